package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/astralisone/astralis-core/pkg/models"
)

var (
	commitmentOwner        string
	commitmentTitle        string
	commitmentStart        string
	commitmentEnd          string
	commitmentAllDay       bool
	commitmentParticipants []string
	commitmentListFrom     string
	commitmentListTo       string
)

var commitmentCmd = &cobra.Command{
	Use:   "commitment",
	Short: "Manage calendar commitments",
}

var commitmentAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record a calendar commitment",
	Long: `Record a busy interval on a user's calendar.

Times accept RFC3339 or '2006-01-02 15:04' local form. All-day events
take a date and block the whole day.

Examples:
  astralis commitment add --owner user-1 --title "Design review" \
    --start "2026-09-02 10:00" --end "2026-09-02 11:00"
  astralis commitment add --owner user-1 --title "Offsite" \
    --start 2026-09-05 --all-day`,
	RunE: runCommitmentAdd,
}

var commitmentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a user's commitments in a window",
	RunE:  runCommitmentList,
}

var commitmentRemoveCmd = &cobra.Command{
	Use:   "remove <event-id>",
	Short: "Delete a commitment",
	Args:  cobra.ExactArgs(1),
	RunE:  runCommitmentRemove,
}

func init() {
	commitmentAddCmd.Flags().StringVar(&commitmentOwner, "owner", "", "Owning user ID (required)")
	commitmentAddCmd.Flags().StringVar(&commitmentTitle, "title", "", "Event title")
	commitmentAddCmd.Flags().StringVar(&commitmentStart, "start", "", "Start time (required)")
	commitmentAddCmd.Flags().StringVar(&commitmentEnd, "end", "", "End time (required unless --all-day)")
	commitmentAddCmd.Flags().BoolVar(&commitmentAllDay, "all-day", false, "Block the whole day")
	commitmentAddCmd.Flags().StringSliceVar(&commitmentParticipants, "participants", nil, "Participant email addresses")
	commitmentAddCmd.MarkFlagRequired("owner")
	commitmentAddCmd.MarkFlagRequired("start")

	commitmentListCmd.Flags().StringVar(&commitmentOwner, "owner", "", "Owning user ID (required)")
	commitmentListCmd.Flags().StringVar(&commitmentListFrom, "from", "", "Window start (default: now)")
	commitmentListCmd.Flags().StringVar(&commitmentListTo, "to", "", "Window end (default: +14 days)")
	commitmentListCmd.MarkFlagRequired("owner")

	commitmentCmd.AddCommand(commitmentAddCmd)
	commitmentCmd.AddCommand(commitmentListCmd)
	commitmentCmd.AddCommand(commitmentRemoveCmd)
}

func runCommitmentAdd(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	start, err := parseTimeFlag(commitmentStart)
	if err != nil {
		return err
	}

	var end time.Time
	if commitmentAllDay {
		end = start.Add(24 * time.Hour)
	} else {
		if commitmentEnd == "" {
			return fmt.Errorf("--end is required unless --all-day is set")
		}
		end, err = parseTimeFlag(commitmentEnd)
		if err != nil {
			return err
		}
	}

	iv := &models.Interval{
		EventID:      uuid.New().String(),
		OwnerID:      commitmentOwner,
		Title:        commitmentTitle,
		Start:        start,
		End:          end,
		AllDay:       commitmentAllDay,
		Participants: commitmentParticipants,
	}
	if err := iv.Validate(); err != nil {
		return err
	}
	if err := db.CreateCommitment(iv); err != nil {
		return err
	}

	fmt.Printf("%s commitment recorded: %s\n", color.GreenString("✓"), iv.EventID)
	return nil
}

func runCommitmentList(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	from := time.Now()
	if commitmentListFrom != "" {
		if from, err = parseTimeFlag(commitmentListFrom); err != nil {
			return err
		}
	}
	to := from.Add(14 * 24 * time.Hour)
	if commitmentListTo != "" {
		if to, err = parseTimeFlag(commitmentListTo); err != nil {
			return err
		}
	}

	commitments, err := db.ListCommitmentsForOwner(commitmentOwner, from, to)
	if err != nil {
		return err
	}

	if len(commitments) == 0 {
		fmt.Println("No commitments in window.")
		return nil
	}

	for _, c := range commitments {
		when := fmt.Sprintf("%s to %s",
			c.Start.Local().Format("2006-01-02 15:04"),
			c.End.Local().Format("15:04"))
		if c.AllDay {
			when = c.Start.Local().Format("2006-01-02") + " (all day)"
		}
		fmt.Printf("%-36s  %s  %s\n", c.EventID, when, c.Title)
	}
	return nil
}

func runCommitmentRemove(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DeleteCommitment(args[0]); err != nil {
		return err
	}
	fmt.Printf("%s commitment removed\n", color.GreenString("✓"))
	return nil
}
