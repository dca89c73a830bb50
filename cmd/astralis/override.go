package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/astralisone/astralis-core/internal/orchestrator"
)

var (
	overrideClear  bool
	overrideReason string
	overrideActor  string
)

var overrideCmd = &cobra.Command{
	Use:   "override <task-id>",
	Short: "Suspend or resume automatic processing for a task",
	Long: `Set or clear the human override on a task.

While a task is overridden, automatic evaluations still run and are
logged, but their outcomes are suppressed: the task does not change
state until the override is cleared.

Examples:
  astralis override task-42 --reason "vendor dispute" --actor ops-1
  astralis override task-42 --clear --actor ops-1`,
	Args: cobra.ExactArgs(1),
	RunE: runOverride,
}

func init() {
	overrideCmd.Flags().BoolVar(&overrideClear, "clear", false, "Clear the override instead of setting it")
	overrideCmd.Flags().StringVar(&overrideReason, "reason", "", "Why the task is being overridden")
	overrideCmd.Flags().StringVar(&overrideActor, "actor", "", "Who is changing the override (required)")
	overrideCmd.MarkFlagRequired("actor")
}

func runOverride(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	bus := orchestrator.NewBus(cfg.Orchestrator.BusBufferSize)
	controller := orchestrator.NewOverrideController(db, bus, nil)

	result, err := controller.SetOverride(args[0], !overrideClear, overrideReason, overrideActor)
	if err != nil {
		return err
	}

	symbol := color.YellowString("⏸")
	if overrideClear {
		symbol = color.GreenString("▶")
	}
	fmt.Printf("%s %s\n", symbol, result.Message)
	fmt.Printf("  correlation: %s\n", result.CorrelationID)
	return nil
}
