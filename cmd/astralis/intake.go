package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/astralisone/astralis-core/internal/orchestrator"
)

var (
	intakeTemplate string
	intakeOrg      string
	intakePipeline string
	intakeStage    string
	intakeData     []string
)

var intakeCmd = &cobra.Command{
	Use:   "intake <title>",
	Short: "Create a task from an intake request",
	Long: `Create a new task from a business request, routed through the given
template's pipeline and stage defaults.

Payload data is supplied as repeated key=value flags:

  astralis intake "Process ACME invoice" --template invoice-processing \
    --data vendor=acme --data amount=1200.50`,
	Args: cobra.ExactArgs(1),
	RunE: runIntake,
}

func init() {
	intakeCmd.Flags().StringVar(&intakeTemplate, "template", "", "Template ID governing the task (required)")
	intakeCmd.Flags().StringVar(&intakeOrg, "org", "", "Organization ID")
	intakeCmd.Flags().StringVar(&intakePipeline, "pipeline", "", "Pipeline key override")
	intakeCmd.Flags().StringVar(&intakeStage, "stage", "", "Stage key override")
	intakeCmd.Flags().StringArrayVar(&intakeData, "data", nil, "Payload data as key=value (repeatable)")
	intakeCmd.MarkFlagRequired("template")
}

func runIntake(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	data := make(map[string]any, len(intakeData))
	for _, kv := range intakeData {
		key, value, found := strings.Cut(kv, "=")
		if !found || key == "" {
			return fmt.Errorf("invalid --data %q (want key=value)", kv)
		}
		data[key] = value
	}

	bus := orchestrator.NewBus(cfg.Orchestrator.BusBufferSize)
	router := orchestrator.NewIntakeRouter(db, db, bus, nil)

	task, err := router.Assign(orchestrator.IntakeRequest{
		Title:       args[0],
		OrgID:       intakeOrg,
		TemplateID:  intakeTemplate,
		PipelineKey: intakePipeline,
		StageKey:    intakeStage,
		Data:        data,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s task created\n", color.GreenString("✓"))
	fmt.Printf("  ID:       %s\n", task.ID)
	fmt.Printf("  Template: %s\n", task.TemplateID)
	fmt.Printf("  Pipeline: %s / %s\n", task.PipelineKey, task.StageKey)
	fmt.Printf("  Status:   %s\n", task.Status)
	return nil
}
