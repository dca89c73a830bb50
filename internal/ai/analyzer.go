package ai

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/astralisone/astralis-core/internal/scheduling"
)

// SlotAnalyzer scores candidate time slots against a free-text scheduling
// context using the Messages API. It implements scheduling.ContextAnalyzer.
type SlotAnalyzer struct {
	client *Client
}

// NewSlotAnalyzer creates a slot analyzer backed by the given client.
func NewSlotAnalyzer(client *Client) *SlotAnalyzer {
	return &SlotAnalyzer{client: client}
}

var _ scheduling.ContextAnalyzer = (*SlotAnalyzer)(nil)

// ScoreSlots asks the model to rate each candidate slot for fit against the
// scheduling context. Scores are returned in slot order, normalized to [0, 1].
func (a *SlotAnalyzer) ScoreSlots(ctx context.Context, schedulingContext string, slots []scheduling.RankedSlot) ([]float64, error) {
	if len(slots) == 0 {
		return nil, nil
	}

	var sb strings.Builder
	for i, slot := range slots {
		fmt.Fprintf(&sb, "Slot %d: %s to %s (%s)\n",
			i+1,
			slot.Start.Format("Mon Jan 2 15:04"),
			slot.End.Format("15:04"),
			slot.Start.Format("MST"))
	}

	prompt := fmt.Sprintf(`You are a scheduling assistant rating candidate meeting slots.

## Scheduling Context
%s

## Candidate Slots
%s
## Your Job

Rate how well each slot fits the scheduling context on a 0-100 scale.
Consider time-of-day preferences, urgency, and any constraints mentioned
in the context. If the context gives no signal for a slot, rate it 50.

## Response Format

One line per slot, nothing else:

Slot 1: [0-100]
Slot 2: [0-100]`, schedulingContext, sb.String())

	resp, err := a.client.sdk().Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.client.Model(),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("score slots: %w", err)
	}

	a.client.Tracker().Add(resp.Usage.InputTokens, resp.Usage.OutputTokens)

	scores, err := parseSlotScores(extractText(resp), len(slots))
	if err != nil {
		return nil, err
	}
	return scores, nil
}

// parseSlotScores extracts per-slot scores from the "Slot N: score" response
// format. Missing or malformed lines fall back to a neutral 0.5.
func parseSlotScores(text string, n int) ([]float64, error) {
	scores := make([]float64, n)
	for i := range scores {
		scores[i] = 0.5
	}

	found := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		var idx int
		var raw string
		if _, err := fmt.Sscanf(line, "Slot %d: %s", &idx, &raw); err != nil {
			continue
		}
		if idx < 1 || idx > n {
			continue
		}
		val, err := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64)
		if err != nil {
			continue
		}
		if val < 0 {
			val = 0
		}
		if val > 100 {
			val = 100
		}
		scores[idx-1] = val / 100
		found++
	}

	if found == 0 {
		return nil, fmt.Errorf("no slot scores found in response")
	}
	return scores, nil
}
