package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/astralisone/astralis-core/internal/scheduling"
)

var (
	conflictsOwner        string
	conflictsStart        string
	conflictsEnd          string
	conflictsParticipants []string
	conflictsExclude      string
	conflictsJSON         bool
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts",
	Short: "Check a time window for calendar conflicts",
	Long: `Check whether a proposed time window overlaps existing commitments
for a user and, optionally, other participants.

Overlap is strict: back-to-back events (one ending exactly when the
next starts) do not conflict. Participants whose address cannot be
resolved to a known user are reported as unevaluated rather than
conflict-free.

Examples:
  astralis conflicts --owner user-1 \
    --start "2026-09-02 10:00" --end "2026-09-02 11:00"
  astralis conflicts --owner user-1 --start ... --end ... \
    --participants alice@example.com,bob@example.com --json`,
	RunE: runConflicts,
}

func init() {
	conflictsCmd.Flags().StringVar(&conflictsOwner, "owner", "", "User ID whose calendar anchors the check (required)")
	conflictsCmd.Flags().StringVar(&conflictsStart, "start", "", "Window start (required)")
	conflictsCmd.Flags().StringVar(&conflictsEnd, "end", "", "Window end (required)")
	conflictsCmd.Flags().StringSliceVar(&conflictsParticipants, "participants", nil, "Participant email addresses")
	conflictsCmd.Flags().StringVar(&conflictsExclude, "exclude", "", "Event ID to ignore (when rescheduling)")
	conflictsCmd.Flags().BoolVar(&conflictsJSON, "json", false, "Output in JSON format")
	conflictsCmd.MarkFlagRequired("owner")
	conflictsCmd.MarkFlagRequired("start")
	conflictsCmd.MarkFlagRequired("end")
}

func runConflicts(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	start, err := parseTimeFlag(conflictsStart)
	if err != nil {
		return err
	}
	end, err := parseTimeFlag(conflictsEnd)
	if err != nil {
		return err
	}

	detector := scheduling.NewDetector(db, db)
	result, err := detector.DetectConflicts(conflictsOwner, scheduling.ConflictRequest{
		StartTime:            start,
		EndTime:              end,
		ParticipantAddresses: conflictsParticipants,
		ExcludeEventID:       conflictsExclude,
	})
	if err != nil {
		return err
	}

	if conflictsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if !result.HasConflicts {
		fmt.Printf("%s no conflicts in %s to %s\n", color.GreenString("✓"),
			start.Local().Format("2006-01-02 15:04"), end.Local().Format("15:04"))
	} else {
		fmt.Printf("%s %d conflicts found\n", color.RedString("✗"), result.TotalConflicts)
		for _, c := range result.UserConflicts {
			fmt.Printf("  you: %s to %s  %s\n",
				c.Start.Local().Format("2006-01-02 15:04"), c.End.Local().Format("15:04"), c.Title)
		}
		for _, p := range result.ParticipantConflicts {
			for _, c := range p.Conflicts {
				fmt.Printf("  %s: %s to %s  %s\n", p.Address,
					c.Start.Local().Format("2006-01-02 15:04"), c.End.Local().Format("15:04"), c.Title)
			}
		}
	}

	for _, p := range result.ParticipantConflicts {
		if !p.Evaluated {
			fmt.Printf("%s %s could not be evaluated (unknown address)\n", color.YellowString("⚠"), p.Address)
		}
	}
	return nil
}
