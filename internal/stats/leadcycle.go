package stats

import (
	"slices"
	"time"

	"github.com/cockroachdb/errors"

	"gl-analytics/internal/workflow"
)

// ErrMissingWIPLabel is returned when no work-in-progress label is configured.
var ErrMissingWIPLabel = errors.New("a work-in-progress label is required")

// LeadCycleOptions configures cycle start resolution.
type LeadCycleOptions struct {
	// WIPLabel marks the start of substantive work.
	WIPLabel string
	// Stages is the workflow order. Stages after WIPLabel are fallback cycle starts.
	Stages []string
}

// LeadCycleRecord is the per-issue result. Date fields are zero for issues that never closed.
type LeadCycleRecord struct {
	IssueID         int64     `json:"issue_id"`
	ProjectID       int64     `json:"project_id"`
	Type            string    `json:"type"`
	OpenedAt        time.Time `json:"opened_at"`
	CycleStartLabel string    `json:"cycle_start_label,omitempty"`
	CycleStartAt    time.Time `json:"cycle_start_at,omitzero"`
	ClosedAt        time.Time `json:"closed_at,omitzero"`
	LastClosedAt    time.Time `json:"last_closed_at,omitzero"`
	ReopenedCount   int       `json:"reopened_count"`
	LeadTimeDays    int       `json:"lead_time_days"`
	CycleTimeDays   int       `json:"cycle_time_days"`
}

// Closed reports whether the issue has been closed at least once.
func (r LeadCycleRecord) Closed() bool {
	return !r.ClosedAt.IsZero()
}

// LeadCycleTimes derives lead and cycle times for a set of issues.
type LeadCycleTimes struct {
	issues     []*workflow.Issue
	wip        string
	candidates map[string]bool
}

// NewLeadCycleTimes prepares the calculator. The fallback candidates are the WIP label,
// every stage configured after it, and merge requests.
func NewLeadCycleTimes(issues []*workflow.Issue, opts LeadCycleOptions) (*LeadCycleTimes, error) {
	if opts.WIPLabel == "" {
		return nil, ErrMissingWIPLabel
	}

	candidates := map[string]bool{
		opts.WIPLabel:              true,
		workflow.LabelMergeRequest: true,
	}
	if i := slices.Index(opts.Stages, opts.WIPLabel); i >= 0 {
		for _, s := range opts.Stages[i+1:] {
			candidates[s] = true
		}
	}

	return &LeadCycleTimes{issues: issues, wip: opts.WIPLabel, candidates: candidates}, nil
}

// WIPLabel returns the configured work-in-progress label.
func (l *LeadCycleTimes) WIPLabel() string {
	return l.wip
}

// Records returns one record per issue, in input order.
func (l *LeadCycleTimes) Records() []LeadCycleRecord {
	records := make([]LeadCycleRecord, 0, len(l.issues))
	for _, issue := range l.issues {
		records = append(records, l.record(issue))
	}
	return records
}

func (l *LeadCycleTimes) record(issue *workflow.Issue) LeadCycleRecord {
	rec := LeadCycleRecord{
		IssueID:       issue.ID,
		ProjectID:     issue.ProjectID,
		Type:          issue.Type,
		OpenedAt:      issue.OpenedAt(),
		ClosedAt:      issue.ClosedAt(),
		LastClosedAt:  issue.LastClosedAt(),
		ReopenedCount: issue.ReopenedCount(),
	}
	if !rec.Closed() {
		return rec
	}

	rec.CycleStartLabel, rec.CycleStartAt = l.cycleStart(issue.History.Intervals(), rec.OpenedAt, rec.ClosedAt)
	rec.LeadTimeDays = InclusiveBusinessDays(rec.OpenedAt, rec.LastClosedAt)
	rec.CycleTimeDays = InclusiveBusinessDays(rec.CycleStartAt, rec.ClosedAt)
	return rec
}

// cycleStart finds the first WIP interval inside (opened, closed). Failing that it takes the
// earliest fallback candidate in the same range, and finally the close itself.
func (l *LeadCycleTimes) cycleStart(intervals []workflow.StageInterval, opened, closed time.Time) (string, time.Time) {
	within := func(iv workflow.StageInterval) bool {
		return iv.Start.After(opened) && iv.Start.Before(closed)
	}

	// 1. Canonical WIP label
	for _, iv := range intervals {
		if iv.Label == l.wip && within(iv) {
			return iv.Label, iv.Start
		}
	}

	// 2. Fuzzy fallback, intervals are already chronological
	for _, iv := range intervals {
		if l.candidates[iv.Label] && within(iv) {
			return iv.Label, iv.Start
		}
	}

	// 3. Degenerate
	return workflow.LabelClosed, closed
}
