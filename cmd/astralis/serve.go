package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/astralisone/astralis-core/internal/notify"
	"github.com/astralisone/astralis-core/internal/orchestrator"
	"github.com/astralisone/astralis-core/internal/signals"
	"github.com/astralisone/astralis-core/internal/templates"
)

var serveTemplatesDir string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the task orchestrator",
	Long: `Run the orchestrator loop: listen for reprocess requests and intake
assignments on the event bus, evaluate affected tasks, and apply the
resulting transitions.

The loop also watches .astralis/signals for control files dropped by
external tooling, so overrides and reprocess requests work without a
network surface.

Stop with Ctrl-C; in-flight evaluations are drained before exit.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveTemplatesDir, "templates", "", "Template directory to sync on startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	logger := orchestrator.NewDebugLoggerForProject(cwd)
	defer logger.Close()

	if serveTemplatesDir != "" {
		n, err := templates.SyncDir(db, serveTemplatesDir)
		if err != nil {
			return fmt.Errorf("sync templates: %w", err)
		}
		fmt.Printf("%s synced %d templates from %s\n", color.GreenString("✓"), n, serveTemplatesDir)
	}

	bus := orchestrator.NewBus(cfg.Orchestrator.BusBufferSize)
	machine := orchestrator.NewStateMachine(db, logger)
	evaluator := orchestrator.NewEvaluator(db, machine, bus, cfg.Orchestrator.EvaluationTimeout, logger)
	overrides := orchestrator.NewOverrideController(db, bus, logger)
	reprocess := orchestrator.NewReprocessCoordinator(db, db, bus, logger)

	watcher, err := signals.NewWatcher(cwd, overrides, reprocess, logger)
	if err != nil {
		return fmt.Errorf("start signal watcher: %w", err)
	}
	defer watcher.Close()

	dispatcher := notify.NewDispatcher(bus, logger, notify.NewConsoleNotifier(os.Stderr))
	dispatcher.Start()
	defer dispatcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nshutting down...")
		cancel()
	}()

	watcher.Start()

	fmt.Printf("%s orchestrator running (db: %s)\n", color.GreenString("✓"), db.Path())
	fmt.Printf("  signals: %s\n", watcher.SignalsDir())
	fmt.Printf("  evaluation timeout: %s\n", cfg.Orchestrator.EvaluationTimeout)

	evaluator.Run(ctx)

	if dropped := bus.DroppedCount(); dropped > 0 {
		fmt.Fprintf(os.Stderr, "warning: %d events dropped under backpressure\n", dropped)
	}
	return nil
}
