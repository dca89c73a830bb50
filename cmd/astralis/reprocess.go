package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/astralisone/astralis-core/internal/orchestrator"
)

var (
	reprocessBy     string
	reprocessReason string
	reprocessWait   bool
)

var reprocessCmd = &cobra.Command{
	Use:   "reprocess <task-id>",
	Short: "Request re-evaluation of a task",
	Long: `Request that a task be re-evaluated against its template.

Requests on overridden tasks are accepted and recorded, but their
evaluation outcomes stay suppressed until the override is cleared.

By default the request is handed to a running 'astralis serve' via the
persistent request history. With --wait, the evaluation runs inline in
this process instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runReprocess,
}

func init() {
	reprocessCmd.Flags().StringVar(&reprocessBy, "by", "", "User ID making the request (required)")
	reprocessCmd.Flags().StringVar(&reprocessReason, "reason", "", "Why re-evaluation is needed")
	reprocessCmd.Flags().BoolVar(&reprocessWait, "wait", false, "Evaluate inline and wait for the outcome")
	reprocessCmd.MarkFlagRequired("by")
}

func runReprocess(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	bus := orchestrator.NewBus(cfg.Orchestrator.BusBufferSize)
	coordinator := orchestrator.NewReprocessCoordinator(db, db, bus, nil)

	var evaluator *orchestrator.Evaluator
	var events <-chan orchestrator.Event
	var cancelSub func()
	if reprocessWait {
		machine := orchestrator.NewStateMachine(db, nil)
		evaluator = orchestrator.NewEvaluator(db, machine, bus, cfg.Orchestrator.EvaluationTimeout, nil)
		events, cancelSub = bus.Subscribe(orchestrator.EventReprocessRequested)
		defer cancelSub()
	}

	ack, err := coordinator.RequestReprocess(args[0], reprocessBy, reprocessReason)
	if err != nil {
		return err
	}

	if ack.Suppressed {
		fmt.Printf("%s %s\n", color.YellowString("·"), ack.Message)
	} else {
		fmt.Printf("%s %s\n", color.GreenString("✓"), ack.Message)
	}
	fmt.Printf("  correlation: %s\n", ack.CorrelationID)

	if !reprocessWait {
		return nil
	}

	evt := <-events
	decision, err := evaluator.ProcessEvent(context.Background(), evt)
	if err != nil {
		return fmt.Errorf("evaluate: %w", err)
	}

	if decision.Suppressed {
		fmt.Printf("  outcome: %s (suppressed: %s)\n", decision.Action, decision.Reason)
	} else {
		fmt.Printf("  outcome: %s", decision.Action)
		if decision.NextStatus != "" {
			fmt.Printf(" → %s", decision.NextStatus)
		}
		fmt.Printf(" (%s)\n", decision.Reason)
	}
	return nil
}
