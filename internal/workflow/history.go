package workflow

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Synthetic labels that are not workflow-scoped labels but still occupy the history chain.
const (
	LabelOpened       = "opened"
	LabelClosed       = "closed"
	LabelReopened     = "reopened"
	LabelMergeRequest = "merge_request"
)

// StageInterval is a half-open span [Start, End) during which an issue occupied one stage.
// A zero End means the interval is still open.
type StageInterval struct {
	Label string    `json:"label"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end,omitzero"`
}

// IsOpen reports whether the interval has no end yet.
func (s StageInterval) IsOpen() bool {
	return s.End.IsZero()
}

func (s StageInterval) String() string {
	end := "open"
	if !s.IsOpen() {
		end = s.End.Format(time.RFC3339)
	}
	return fmt.Sprintf("(%s, %s, %s)", s.Label, s.Start.Format(time.RFC3339), end)
}

// History is the ordered, contiguous stage history of a single issue.
// The first interval is always "opened". It is owned by one issue and has a single writer.
type History struct {
	intervals []StageInterval
}

// NewHistory seeds a history with the opened interval. When closedAt is set the history
// terminates with a closed interval, so issues without any resolver data still end correctly.
func NewHistory(openedAt, closedAt time.Time) *History {
	if closedAt.IsZero() {
		return &History{intervals: []StageInterval{{Label: LabelOpened, Start: openedAt}}}
	}
	return &History{intervals: []StageInterval{
		{Label: LabelOpened, Start: openedAt, End: closedAt},
		{Label: LabelClosed, Start: closedAt},
	}}
}

// Len returns the number of intervals.
func (h *History) Len() int {
	return len(h.intervals)
}

// At returns the i-th interval.
func (h *History) At(i int) StageInterval {
	return h.intervals[i]
}

// Intervals returns a copy of the intervals in chronological order.
func (h *History) Intervals() []StageInterval {
	out := make([]StageInterval, len(h.intervals))
	copy(out, h.intervals)
	return out
}

// AddEvents merges resolver intervals into the history.
//
// A closed interval in events supersedes any closed interval already present. The merged
// sequence is sorted by start and re-chained so every interval but the last ends where the
// next one starts. The history is left untouched if the merge would not start with "opened".
func (h *History) AddEvents(events []StageInterval) error {
	if len(events) == 0 {
		return nil
	}

	existing := h.intervals
	if containsLabel(events, LabelClosed) && containsLabel(existing, LabelClosed) {
		existing = withoutLabel(existing, LabelClosed)
	}

	merged := make([]StageInterval, 0, len(existing)+len(events))
	merged = append(merged, existing...)
	merged = append(merged, events...)

	// Stable so the seeded "opened" wins ties with events recorded at the same instant.
	slices.SortStableFunc(merged, func(a, b StageInterval) int {
		return a.Start.Compare(b.Start)
	})

	if merged[0].Label != LabelOpened {
		return errors.AssertionFailedf("history must start with %q, got %s", LabelOpened, merged[0])
	}

	// Re-chaining replaces resolver-supplied ends too (e.g. a label removal), keeping no gaps.
	for i := 0; i < len(merged)-1; i++ {
		merged[i].End = merged[i+1].Start
	}

	h.intervals = merged
	return nil
}

func (h *History) String() string {
	parts := make([]string, len(h.intervals))
	for i, iv := range h.intervals {
		parts[i] = iv.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func containsLabel(intervals []StageInterval, label string) bool {
	return slices.ContainsFunc(intervals, func(iv StageInterval) bool { return iv.Label == label })
}

func withoutLabel(intervals []StageInterval, label string) []StageInterval {
	out := make([]StageInterval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.Label != label {
			out = append(out, iv)
		}
	}
	return out
}
