package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/astralisone/astralis-core/internal/ai"
	"github.com/astralisone/astralis-core/internal/config"
	"github.com/astralisone/astralis-core/internal/scheduling"
)

var (
	suggestOwner        string
	suggestDuration     int
	suggestParticipants []string
	suggestDates        []string
	suggestContext      string
	suggestJSON         bool
	suggestNoAI         bool
)

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Suggest open time slots",
	Long: `Suggest ranked open time slots for a meeting, scanning working hours
over the coming days and skipping anything that conflicts with existing
commitments.

When a scheduling context is given and an Anthropic API key is
configured, candidate slots are additionally scored by the model; if
that fails, heuristic ranking still produces results.

An empty suggestion list is a valid outcome: it means no open slots
exist in the scanned window, not an error.

Examples:
  astralis suggest --owner user-1 --duration 60
  astralis suggest --owner user-1 --duration 30 \
    --dates 2026-09-03,2026-09-04 --context "urgent, prefers mornings"`,
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().StringVar(&suggestOwner, "owner", "", "User ID to schedule for (required)")
	suggestCmd.Flags().IntVar(&suggestDuration, "duration", 30, "Meeting duration in minutes")
	suggestCmd.Flags().StringSliceVar(&suggestParticipants, "participants", nil, "Participant email addresses")
	suggestCmd.Flags().StringSliceVar(&suggestDates, "dates", nil, "Preferred dates (2006-01-02, repeatable)")
	suggestCmd.Flags().StringVar(&suggestContext, "context", "", "Free-text scheduling context")
	suggestCmd.Flags().BoolVar(&suggestJSON, "json", false, "Output in JSON format")
	suggestCmd.Flags().BoolVar(&suggestNoAI, "no-ai", false, "Skip model-based slot scoring")
	suggestCmd.MarkFlagRequired("owner")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	var preferred []time.Time
	for _, d := range suggestDates {
		t, err := parseTimeFlag(d)
		if err != nil {
			return err
		}
		preferred = append(preferred, t)
	}

	engine := scheduling.NewEngine(scheduling.EngineConfig{
		WorkStartHour:      cfg.Scheduling.WorkStartHour,
		WorkEndHour:        cfg.Scheduling.WorkEndHour,
		GranularityMinutes: cfg.Scheduling.GranularityMinutes,
		ScanDays:           cfg.Scheduling.ScanDays,
		MaxCandidates:      cfg.Scheduling.MaxCandidates,
		TopN:               cfg.Scheduling.TopN,
	}, db, db, buildAnalyzer(cfg))

	result, err := engine.SuggestSlots(context.Background(), suggestOwner, scheduling.SuggestRequest{
		DurationMinutes:      suggestDuration,
		ParticipantAddresses: suggestParticipants,
		PreferredDates:       preferred,
		Context:              suggestContext,
	})
	if err != nil {
		return err
	}

	if suggestJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	if len(result.Suggestions) == 0 {
		fmt.Printf("No open slots found (%d candidates examined).\n", result.TotalCandidates)
		return nil
	}

	fmt.Printf("Top %d of %d candidate slots:\n\n", len(result.Suggestions), result.TotalCandidates)
	for i, slot := range result.Suggestions {
		fmt.Printf("%d. %s to %s  score %.2f\n", i+1,
			slot.Start.Local().Format("Mon Jan 2 15:04"),
			slot.End.Local().Format("15:04"),
			slot.Score)
		for _, reason := range slot.Reasons {
			fmt.Printf("   - %s\n", reason)
		}
	}

	for _, addr := range result.AnalysisContext.UnevaluatedParticipants {
		fmt.Printf("\n%s %s could not be evaluated (unknown address)\n", color.YellowString("⚠"), addr)
	}
	return nil
}

// buildAnalyzer wires the model-backed slot analyzer when credentials are
// available. Returns nil (heuristics only) otherwise.
func buildAnalyzer(cfg *config.Config) scheduling.ContextAnalyzer {
	if suggestNoAI || suggestContext == "" {
		return nil
	}

	// Bedrock authenticates through the AWS credential chain; everything
	// else resolves the key (env var, then config with env expansion).
	var apiKey string
	if !cfg.Anthropic.UseAWSBedrock {
		key, err := config.ResolveAPIKey(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "note: model scoring unavailable (%v); using heuristics\n", err)
			return nil
		}
		apiKey = key
	}

	client, err := ai.NewClient(ai.ClientConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        apiKey,
		UseAWSBedrock: cfg.Anthropic.UseAWSBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "note: model scoring unavailable (%v); using heuristics\n", err)
		return nil
	}
	return ai.NewSlotAnalyzer(client)
}
