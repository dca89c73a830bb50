package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/astralisone/astralis-core/pkg/models"
)

var statusFilter string

var statusCmd = &cobra.Command{
	Use:   "status [task-id]",
	Short: "Show task state",
	Long: `Display tasks and their orchestration state.

With a task ID, shows that task in detail, including override state and
recent payload history. Without arguments, lists tasks grouped by status
(or a single status with --filter).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusFilter, "filter", "", "Only list tasks with this status")
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if len(args) == 1 {
		task, err := db.GetTask(args[0])
		if err != nil {
			return err
		}
		if task == nil {
			return fmt.Errorf("task not found: %s", args[0])
		}
		displayTask(task)
		return nil
	}

	statuses := []models.TaskStatus{
		models.TaskStatusNotStarted,
		models.TaskStatusInProgress,
		models.TaskStatusBlocked,
		models.TaskStatusCompleted,
		models.TaskStatusClosed,
	}
	if statusFilter != "" {
		s := models.TaskStatus(statusFilter)
		if !s.Valid() {
			return fmt.Errorf("unknown status %q", statusFilter)
		}
		statuses = []models.TaskStatus{s}
	}

	total := 0
	for _, status := range statuses {
		tasks, err := db.ListTasksByStatus(status)
		if err != nil {
			return err
		}
		if len(tasks) == 0 {
			continue
		}
		fmt.Printf("%s (%d)\n", status, len(tasks))
		for _, task := range tasks {
			marker := " "
			if task.Overridden {
				marker = color.YellowString("⏸")
			}
			fmt.Printf(" %s %-36s  %s\n", marker, task.ID, task.Title)
		}
		total += len(tasks)
	}

	if total == 0 {
		fmt.Println("No tasks. Run 'astralis intake <title>' to create one.")
	}
	return nil
}

func displayTask(task *models.Task) {
	fmt.Printf("Task: %s\n", task.ID)
	fmt.Printf("  Title:    %s\n", task.Title)
	fmt.Printf("  Template: %s\n", task.TemplateID)
	fmt.Printf("  Pipeline: %s / %s\n", task.PipelineKey, task.StageKey)
	fmt.Printf("  Status:   %s\n", task.Status)
	fmt.Printf("  Priority: %d\n", task.Priority)

	if task.Overridden {
		fmt.Printf("  Override: %s by %s", color.YellowString("active"), task.OverrideActorID)
		if task.OverrideAt != nil {
			fmt.Printf(" since %s", task.OverrideAt.Local().Format("2006-01-02 15:04"))
		}
		fmt.Println()
		if task.OverrideReason != "" {
			fmt.Printf("    Reason: %s\n", task.OverrideReason)
		}
	}

	if len(task.Payload.StepsCompleted) > 0 {
		fmt.Printf("  Steps done: %d\n", len(task.Payload.StepsCompleted))
		for step, done := range task.Payload.StepsCompleted {
			if done {
				fmt.Printf("    %s %s\n", color.GreenString("✓"), step)
			}
		}
	}

	reprocessCount := 0
	for _, entry := range task.Payload.History {
		if entry.Field == "reprocess_requests" {
			reprocessCount++
		}
	}
	if reprocessCount > 0 {
		fmt.Printf("  Reprocess requests: %d\n", reprocessCount)
	}
}
