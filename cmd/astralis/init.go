package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/astralisone/astralis-core/internal/state"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize astralis in the current directory",
	Long: `Set up the .astralis directory structure and a project database.

Creates:
  .astralis/            project state and control surface
  .astralis/signals/    control files watched by 'astralis serve'
  .astralis/logs/       orchestrator debug logs
  templates/            example task template definitions
  .astralis.yaml        project configuration overrides`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	dirs := []string{
		filepath.Join(cwd, ".astralis"),
		filepath.Join(cwd, ".astralis", "signals"),
		filepath.Join(cwd, ".astralis", "logs"),
		filepath.Join(cwd, "templates"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	printStatus("✓", "Created .astralis directory structure", color.FgGreen)

	db, err := state.OpenProject(cwd)
	if err != nil {
		return fmt.Errorf("create project database: %w", err)
	}
	if err := db.Migrate(); err != nil {
		db.Close()
		return fmt.Errorf("migrate project database: %w", err)
	}
	db.Close()
	printStatus("✓", "Initialized project database", color.FgGreen)

	examplePath := filepath.Join(cwd, "templates", "example.yaml")
	if _, err := os.Stat(examplePath); os.IsNotExist(err) {
		if err := os.WriteFile(examplePath, []byte(exampleTemplate), 0644); err != nil {
			return fmt.Errorf("write example template: %w", err)
		}
		printStatus("✓", "Created example template in templates/", color.FgGreen)
	}

	projectCfgPath := filepath.Join(cwd, ".astralis.yaml")
	if _, err := os.Stat(projectCfgPath); os.IsNotExist(err) {
		if err := os.WriteFile(projectCfgPath, []byte(projectConfigTemplate), 0644); err != nil {
			return fmt.Errorf("write project config: %w", err)
		}
		printStatus("✓", "Created .astralis.yaml template", color.FgGreen)
	}

	if err := updateGitignore(cwd); err == nil {
		printStatus("✓", "Updated .gitignore", color.FgGreen)
	}

	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		printStatus("⚠", "ANTHROPIC_API_KEY not set (model-based slot scoring disabled)", color.FgYellow)
	} else {
		printStatus("✓", "ANTHROPIC_API_KEY is set", color.FgGreen)
	}

	fmt.Printf("\n%s astralis initialization complete!\n\n", color.GreenString("✓"))
	fmt.Println("Next steps:")
	fmt.Println("  astralis template sync templates/   # load templates")
	fmt.Println("  astralis intake \"My first task\" --template example")
	fmt.Println("  astralis serve                      # run the orchestrator")
	return nil
}

func updateGitignore(cwd string) error {
	path := filepath.Join(cwd, ".gitignore")
	existing, _ := os.ReadFile(path)
	if strings.Contains(string(existing), ".astralis/") {
		return nil
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = f.WriteString("\n# astralis\n.astralis/\n")
	return err
}

func printStatus(symbol, message string, colorAttr color.Attribute) {
	c := color.New(colorAttr)
	fmt.Printf("%s %s\n", c.Sprint(symbol), message)
}

const exampleTemplate = `id: example
name: Example Workflow
version: 1
steps:
  - id: gather
    title: Gather inputs
  - id: execute
    title: Do the work
  - id: verify
    title: Verify the result
agent:
  directive: Work through the steps in order.
  completion:
    kind: required_steps
    required_steps: [gather, execute, verify]
routing:
  pipeline_key: default
  stage_key: intake
sla:
  default_priority: 1
`

const projectConfigTemplate = `# astralis project configuration
# Values here override ~/.config/astralis/config.yaml.

orchestrator:
  evaluation_timeout: 30s

scheduling:
  work_start_hour: 9
  work_end_hour: 17
  granularity_minutes: 30
`
