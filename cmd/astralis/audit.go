package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var auditJSON bool

var auditCmd = &cobra.Command{
	Use:   "audit <task-id>",
	Short: "Show the decision log for a task",
	Long: `Print every evaluation decision recorded for a task, in order.

The decision log is append-only and complete: every evaluation produces
exactly one entry, including no-ops and evaluations suppressed by an
override, so the full automated history of a task can be reconstructed.

Output formats:
  - Human-readable (default)
  - JSON (--json flag) for machine consumption

Examples:
  astralis audit task-42
  astralis audit task-42 --json | jq '.[].action'`,
	Args: cobra.ExactArgs(1),
	RunE: runAudit,
}

func init() {
	auditCmd.Flags().BoolVar(&auditJSON, "json", false, "Output in JSON format")
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	entries, err := db.ListDecisionsByTask(args[0])
	if err != nil {
		return err
	}

	if auditJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Printf("No decisions recorded for task %s.\n", args[0])
		return nil
	}

	fmt.Printf("Decision log for task %s (%d entries)\n\n", args[0], len(entries))
	for _, e := range entries {
		marker := color.GreenString("✓")
		if e.Suppressed {
			marker = color.YellowString("·")
		}
		fmt.Printf("%s %s  %-8s", marker, e.At.Local().Format("2006-01-02 15:04:05"), e.Action)
		if e.Suppressed {
			fmt.Print("  (suppressed)")
		}
		fmt.Println()
		fmt.Printf("    trigger: %s  correlation: %s\n", e.EventName, e.CorrelationID)
		if e.Rationale != "" {
			fmt.Printf("    rationale: %s\n", e.Rationale)
		}
	}
	return nil
}
