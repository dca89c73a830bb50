package scheduling

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/astralisone/astralis-core/internal/state"
	"github.com/astralisone/astralis-core/pkg/models"
)

const (
	// MinDurationMinutes is the shortest slot duration accepted.
	MinDurationMinutes = 15
	// MaxDurationMinutes is the longest slot duration accepted.
	MaxDurationMinutes = 480
)

// EngineConfig bounds candidate generation and ranking. It is constructed
// from loaded configuration and injected; the engine keeps no global state.
type EngineConfig struct {
	// WorkStartHour is the first working hour of a day (0-23).
	WorkStartHour int
	// WorkEndHour is the hour the working window closes (exclusive).
	WorkEndHour int
	// GranularityMinutes is the spacing between candidate starts.
	GranularityMinutes int
	// ScanDays is how many days around the reference date are considered.
	ScanDays int
	// MaxCandidates caps total candidates generated, bounding worst-case
	// cost regardless of ScanDays.
	MaxCandidates int
	// TopN caps the number of ranked suggestions returned.
	TopN int
}

// DefaultEngineConfig returns the default working-window configuration:
// business hours, 30-minute granularity, 5 suggestions.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		WorkStartHour:      9,
		WorkEndHour:        17,
		GranularityMinutes: 30,
		ScanDays:           5,
		MaxCandidates:      200,
		TopN:               5,
	}
}

// SuggestRequest is the suggestion request contract.
type SuggestRequest struct {
	// DurationMinutes is the desired slot length, in [15, 480].
	DurationMinutes int `json:"durationMinutes"`
	// ParticipantAddresses lists participant contact addresses.
	ParticipantAddresses []string `json:"participantAddresses,omitempty"`
	// PreferredDates optionally restricts and boosts candidate days.
	PreferredDates []time.Time `json:"preferredDates,omitempty"`
	// Context is an optional free-form scheduling context used for
	// AI-assisted ranking.
	Context string `json:"context,omitempty"`
	// ReferenceDate anchors the scan window. Zero means now.
	ReferenceDate time.Time `json:"referenceDate,omitempty"`
}

// RankedSlot is one conflict-free suggested slot.
type RankedSlot struct {
	// Start is the inclusive slot start.
	Start time.Time `json:"start"`
	// End is the exclusive slot end.
	End time.Time `json:"end"`
	// Score ranks the slot; higher is better.
	Score float64 `json:"score"`
	// Reasons lists the criteria that contributed to the score.
	Reasons []string `json:"reasons,omitempty"`
}

// AnalysisContext reports how the suggestion set was computed, so callers
// can show "N slots evaluated, M conflict-free".
type AnalysisContext struct {
	// CriteriaConsidered names the scoring criteria applied.
	CriteriaConsidered []string `json:"criteriaConsidered"`
	// WindowStart and WindowEnd bound the scanned range.
	WindowStart time.Time `json:"windowStart"`
	WindowEnd   time.Time `json:"windowEnd"`
	// GranularityMinutes is the candidate spacing used.
	GranularityMinutes int `json:"granularityMinutes"`
	// ContextApplied is true when AI-assisted context ranking ran.
	ContextApplied bool `json:"contextApplied"`
	// UnevaluatedParticipants lists external addresses whose availability
	// was not checked.
	UnevaluatedParticipants []string `json:"unevaluatedParticipants,omitempty"`
}

// Suggestions is the suggestion response contract. Empty Suggestions with
// TotalCandidates > 0 is a valid outcome: every candidate conflicted.
type Suggestions struct {
	// Suggestions holds the ranked conflict-free slots, best first.
	Suggestions []RankedSlot `json:"suggestions"`
	// TotalCandidates counts every candidate generated before filtering.
	TotalCandidates int `json:"totalCandidates"`
	// AnalysisContext describes the computation.
	AnalysisContext AnalysisContext `json:"analysisContext"`
}

// ContextAnalyzer scores candidate slots for semantic fit against a
// free-form context string. Implementations may call an external model;
// failures degrade to heuristic-only ranking, never to a failed request.
type ContextAnalyzer interface {
	ScoreSlots(ctx context.Context, schedulingContext string, slots []RankedSlot) ([]float64, error)
}

// Engine generates and ranks candidate time slots, using the conflict
// detector's overlap rule as the filter.
type Engine struct {
	cfg         EngineConfig
	commitments state.CommitmentStore
	resolver    AddressResolver
	analyzer    ContextAnalyzer
}

// NewEngine creates a suggestion engine. resolver and analyzer may be nil.
func NewEngine(cfg EngineConfig, commitments state.CommitmentStore, resolver AddressResolver, analyzer ContextAnalyzer) *Engine {
	if cfg.GranularityMinutes <= 0 {
		cfg.GranularityMinutes = 30
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = 200
	}
	if cfg.ScanDays <= 0 {
		cfg.ScanDays = 5
	}
	return &Engine{cfg: cfg, commitments: commitments, resolver: resolver, analyzer: analyzer}
}

// SuggestSlots generates a bounded candidate set within the working window
// around the reference date, filters out conflicting candidates, ranks the
// survivors, and returns the top N with the total candidate count. Zero
// survivors is an explicit empty result, not an error.
func (e *Engine) SuggestSlots(ctx context.Context, userID string, req SuggestRequest) (*Suggestions, error) {
	if userID == "" {
		return nil, &models.ValidationError{Field: "userId", Message: "must not be empty"}
	}
	if req.DurationMinutes < MinDurationMinutes || req.DurationMinutes > MaxDurationMinutes {
		return nil, &models.ValidationError{
			Field:   "durationMinutes",
			Message: fmt.Sprintf("must be in [%d, %d]", MinDurationMinutes, MaxDurationMinutes),
		}
	}

	reference := req.ReferenceDate
	if reference.IsZero() {
		reference = time.Now()
	}
	duration := time.Duration(req.DurationMinutes) * time.Minute

	days := e.scanDays(reference, req.PreferredDates)
	windowStart := e.dayWindowStart(days[0])
	windowEnd := e.dayWindowEnd(days[len(days)-1])

	commitments, err := e.commitments.ListCommitmentsForOwner(userID, windowStart.Add(-24*time.Hour), windowEnd.Add(24*time.Hour))
	if err != nil {
		return nil, &models.DependencyError{Op: "list commitments", Err: err}
	}

	candidates := e.generate(days, reference, duration)

	preferred := make(map[string]bool, len(req.PreferredDates))
	for _, d := range req.PreferredDates {
		preferred[d.Format("2006-01-02")] = true
	}

	var survivors []RankedSlot
	for _, slot := range candidates {
		if len(ConflictsAgainst(commitments, models.Interval{Start: slot.Start, End: slot.End}, "")) > 0 {
			continue
		}
		slot.Score, slot.Reasons = e.score(slot, reference, preferred)
		survivors = append(survivors, slot)
	}

	analysis := AnalysisContext{
		CriteriaConsidered:      []string{"conflict_free", "proximity_to_reference", "working_hours_alignment"},
		WindowStart:             windowStart,
		WindowEnd:               windowEnd,
		GranularityMinutes:      e.cfg.GranularityMinutes,
		UnevaluatedParticipants: e.unevaluated(req.ParticipantAddresses),
	}
	if len(preferred) > 0 {
		analysis.CriteriaConsidered = append(analysis.CriteriaConsidered, "preferred_dates")
	}

	if req.Context != "" && e.analyzer != nil && len(survivors) > 0 {
		if scores, err := e.analyzer.ScoreSlots(ctx, req.Context, survivors); err == nil && len(scores) == len(survivors) {
			for i := range survivors {
				survivors[i].Score += 0.3 * clamp01(scores[i])
				survivors[i].Reasons = append(survivors[i].Reasons, "context_fit")
			}
			analysis.ContextApplied = true
			analysis.CriteriaConsidered = append(analysis.CriteriaConsidered, "semantic_context_fit")
		} else if err != nil {
			log.Printf("[scheduling] context analyzer unavailable, heuristic ranking only: %v", err)
		}
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		if survivors[i].Score != survivors[j].Score {
			return survivors[i].Score > survivors[j].Score
		}
		return survivors[i].Start.Before(survivors[j].Start)
	})
	if len(survivors) > e.cfg.TopN {
		survivors = survivors[:e.cfg.TopN]
	}

	return &Suggestions{
		Suggestions:     survivors,
		TotalCandidates: len(candidates),
		AnalysisContext: analysis,
	}, nil
}

// scanDays returns the ordered list of days to generate candidates on.
// Preferred dates replace the default scan when supplied.
func (e *Engine) scanDays(reference time.Time, preferred []time.Time) []time.Time {
	if len(preferred) > 0 {
		days := make([]time.Time, len(preferred))
		copy(days, preferred)
		sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
		if len(days) > e.cfg.ScanDays {
			days = days[:e.cfg.ScanDays]
		}
		return days
	}
	days := make([]time.Time, 0, e.cfg.ScanDays)
	for i := 0; i < e.cfg.ScanDays; i++ {
		days = append(days, reference.AddDate(0, 0, i))
	}
	return days
}

// generate produces candidates spaced at the configured granularity inside
// each day's working window, skipping starts before the reference time and
// stopping at the candidate cap.
func (e *Engine) generate(days []time.Time, reference time.Time, duration time.Duration) []RankedSlot {
	granularity := time.Duration(e.cfg.GranularityMinutes) * time.Minute
	var candidates []RankedSlot

	for _, day := range days {
		start := e.dayWindowStart(day)
		end := e.dayWindowEnd(day)
		for t := start; !t.Add(duration).After(end); t = t.Add(granularity) {
			if t.Before(reference) {
				continue
			}
			candidates = append(candidates, RankedSlot{Start: t, End: t.Add(duration)})
			if len(candidates) >= e.cfg.MaxCandidates {
				return candidates
			}
		}
	}
	return candidates
}

// score ranks a conflict-free slot. Proximity to the reference dominates;
// alignment with the middle of the working window and preferred-date hits
// contribute the rest.
func (e *Engine) score(slot RankedSlot, reference time.Time, preferred map[string]bool) (float64, []string) {
	reasons := []string{"conflict_free"}

	hoursOut := slot.Start.Sub(reference).Hours()
	if hoursOut < 0 {
		hoursOut = -hoursOut
	}
	proximity := 1.0 - hoursOut/float64(24*e.cfg.ScanDays)
	score := 0.5 * clamp01(proximity)
	reasons = append(reasons, "proximity_to_reference")

	windowMid := float64(e.cfg.WorkStartHour+e.cfg.WorkEndHour) / 2
	halfSpan := float64(e.cfg.WorkEndHour-e.cfg.WorkStartHour) / 2
	slotMid := float64(slot.Start.Hour()) + slot.End.Sub(slot.Start).Hours()/2
	if halfSpan > 0 {
		alignment := 1.0 - absFloat(slotMid-windowMid)/halfSpan
		score += 0.2 * clamp01(alignment)
		reasons = append(reasons, "working_hours_alignment")
	}

	if preferred[slot.Start.Format("2006-01-02")] {
		score += 0.2
		reasons = append(reasons, "preferred_date")
	}
	return score, reasons
}

// unevaluated returns the addresses that do not resolve to internal users.
func (e *Engine) unevaluated(addresses []string) []string {
	var out []string
	for _, a := range addresses {
		if e.resolver == nil {
			out = append(out, a)
			continue
		}
		if _, ok := e.resolver.ResolveAddress(a); !ok {
			out = append(out, a)
		}
	}
	return out
}

// dayWindowStart returns the working-window open on the given day.
func (e *Engine) dayWindowStart(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, e.cfg.WorkStartHour, 0, 0, 0, day.Location())
}

// dayWindowEnd returns the working-window close on the given day.
func (e *Engine) dayWindowEnd(day time.Time) time.Time {
	y, m, d := day.Date()
	return time.Date(y, m, d, e.cfg.WorkEndHour, 0, 0, 0, day.Location())
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
