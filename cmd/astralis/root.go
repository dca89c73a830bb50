package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "astralis",
	Short: "Task Orchestration & Scheduling Decision Engine",
	Long: `Astralis manages autonomous task execution for organizations.

It evaluates tasks against their templates to decide state transitions,
records every decision in an auditable log, and honors human overrides
that suspend automatic processing per task. A scheduling layer detects
calendar conflicts and suggests open time slots.

Core capabilities:
- Deterministic task state evaluation with a complete decision log
- Per-task human override (suspend/resume automatic processing)
- Manual reprocess requests routed through the event bus
- Calendar conflict detection across participants
- Ranked time-slot suggestions within working hours`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(intakeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(overrideCmd)
	rootCmd.AddCommand(reprocessCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(templateCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(commitmentCmd)
	rootCmd.AddCommand(conflictsCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
