package eventlog

import (
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"gl-analytics/internal/workflow"
)

// Pair converts label add/remove events into stage intervals. A remove without a preceding
// add is dropped. Labels still applied at the end produce open intervals.
func Pair(events []Event) []workflow.StageInterval {
	sorted := slices.Clone(events)
	slices.SortStableFunc(sorted, func(a, b Event) int {
		return a.Timestamp.Compare(b.Timestamp)
	})

	var out []workflow.StageInterval
	open := make(map[string]int) // label -> index into out

	for _, e := range sorted {
		if e.Label == "" || e.Timestamp.IsZero() {
			log.Debug().Str("action", string(e.Action)).Msg("Skipping label event without label or timestamp")
			continue
		}
		switch e.Action {
		case Add:
			if _, ok := open[e.Label]; ok {
				continue
			}
			open[e.Label] = len(out)
			out = append(out, workflow.StageInterval{Label: e.Label, Start: e.Timestamp})
		case Remove:
			i, ok := open[e.Label]
			if !ok {
				log.Debug().Str("label", e.Label).Time("ts", e.Timestamp).Msg("Dropping remove event without matching add")
				continue
			}
			out[i].End = e.Timestamp
			delete(open, e.Label)
		}
	}
	return out
}

// StateIntervals converts close/reopen events into intervals. Other states are ignored.
func StateIntervals(events []Event) []workflow.StageInterval {
	var out []workflow.StageInterval
	for _, e := range events {
		if e.Timestamp.IsZero() {
			continue
		}
		switch e.Label {
		case workflow.LabelClosed, workflow.LabelReopened:
			out = append(out, workflow.StageInterval{Label: e.Label, Start: e.Timestamp})
		default:
			log.Debug().Str("state", e.Label).Msg("Ignoring state event")
		}
	}
	return out
}

// MergeRequestIntervals converts merge request events into "merge_request" intervals.
// Merge requests opened before the issue itself are skipped.
func MergeRequestIntervals(rec IssueRecord, events []Event) []workflow.StageInterval {
	var out []workflow.StageInterval
	for _, e := range events {
		if e.Timestamp.IsZero() || e.Timestamp.Before(rec.OpenedAt) {
			log.Debug().Int64("issue", rec.IID).Time("ts", e.Timestamp).Msg("Skipping merge request created before issue")
			continue
		}
		out = append(out, workflow.StageInterval{Label: workflow.LabelMergeRequest, Start: e.Timestamp, End: e.End})
	}
	return out
}

// FlowSources are the sources stage occupancy is built from. A merge request interval would
// end the stage it was opened in.
var FlowSources = []Source{SourceLabels, SourceState}

// BuildIssue turns a fetched record into an issue history built from sources, or from every
// source when none are given. Sources are merged one at a time in a fixed order.
func BuildIssue(rec IssueRecord, sources ...Source) (*workflow.Issue, error) {
	issue := workflow.NewIssue(rec.IID, rec.ProjectID, rec.Type, rec.OpenedAt, rec.ClosedAt)

	for _, src := range resolveOrder {
		if len(sources) > 0 && !slices.Contains(sources, src) {
			continue
		}
		events := rec.EventsFrom(src)
		if len(events) == 0 {
			continue
		}

		var intervals []workflow.StageInterval
		switch src {
		case SourceLabels:
			intervals = Pair(events)
		case SourceState:
			intervals = StateIntervals(events)
		case SourceMergeRequest:
			intervals = MergeRequestIntervals(rec, events)
		}

		// Labels applied while creating the issue may be stamped just before it.
		for i := range intervals {
			if intervals[i].Start.Before(rec.OpenedAt) {
				intervals[i].Start = rec.OpenedAt
			}
		}

		if err := issue.History.AddEvents(intervals); err != nil {
			return nil, fmt.Errorf("issue %d/%d %s events: %w", rec.ProjectID, rec.IID, src, err)
		}
	}
	return issue, nil
}

// BuildIssues converts records in order, stopping at the first invariant violation.
func BuildIssues(records []IssueRecord, sources ...Source) ([]*workflow.Issue, error) {
	issues := make([]*workflow.Issue, 0, len(records))
	for _, rec := range records {
		issue, err := BuildIssue(rec, sources...)
		if err != nil {
			return nil, err
		}
		issues = append(issues, issue)
	}
	return issues, nil
}

// Histories extracts the histories of a set of issues.
func Histories(issues []*workflow.Issue) []*workflow.History {
	out := make([]*workflow.History, len(issues))
	for i, issue := range issues {
		out[i] = issue.History
	}
	return out
}
