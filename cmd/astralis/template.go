package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/astralisone/astralis-core/internal/templates"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage task templates",
}

var templateSyncCmd = &cobra.Command{
	Use:   "sync <dir>",
	Short: "Load template YAML files into the store",
	Long: `Validate and upsert every template definition in a directory.

Existing templates with the same ID are replaced. Tasks already bound
to a template pick up the new content on their next evaluation.`,
	Args: cobra.ExactArgs(1),
	RunE: runTemplateSync,
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored templates",
	RunE:  runTemplateList,
}

func init() {
	templateCmd.AddCommand(templateSyncCmd)
	templateCmd.AddCommand(templateListCmd)
}

func runTemplateSync(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := templates.SyncDir(db, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("%s synced %d templates from %s\n", color.GreenString("✓"), n, args[0])
	return nil
}

func runTemplateList(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	all, err := db.ListTemplates()
	if err != nil {
		return err
	}

	if len(all) == 0 {
		fmt.Println("No templates. Run 'astralis template sync <dir>' to load some.")
		return nil
	}

	for _, tmpl := range all {
		fmt.Printf("%-30s v%-3d %s (%d steps)\n", tmpl.ID, tmpl.Version, tmpl.Name, len(tmpl.Steps))
	}
	return nil
}
