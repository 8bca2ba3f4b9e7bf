package stats

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"

	"gl-analytics/internal/workflow"
)

var workflowStages = []string{"opened", "In Progress", "Code Review", "closed"}

func issueWith(t *testing.T, id int64, openedAt time.Time, events ...workflow.StageInterval) *workflow.Issue {
	t.Helper()
	issue := workflow.NewIssue(id, 7, "Bug", openedAt, time.Time{})
	if err := issue.History.AddEvents(events); err != nil {
		t.Fatalf("AddEvents: %v", err)
	}
	return issue
}

func leadCycle(t *testing.T, issues ...*workflow.Issue) []LeadCycleRecord {
	t.Helper()
	lct, err := NewLeadCycleTimes(issues, LeadCycleOptions{WIPLabel: "In Progress", Stages: workflowStages})
	if err != nil {
		t.Fatalf("NewLeadCycleTimes: %v", err)
	}
	return lct.Records()
}

func TestLeadCycleTimes_Weekend(t *testing.T) {
	opened := at(18, 6) // Thursday
	issue := issueWith(t, 1, opened,
		ev("In Progress", opened.AddDate(0, 0, 2)),
		ev(workflow.LabelClosed, at(23, 21)))

	rec := leadCycle(t, issue)[0]

	if rec.LeadTimeDays != 4 {
		t.Errorf("lead = %d, want 4", rec.LeadTimeDays)
	}
	if rec.CycleTimeDays != 2 {
		t.Errorf("cycle = %d, want 2", rec.CycleTimeDays)
	}
	if rec.CycleStartLabel != "In Progress" {
		t.Errorf("cycle start label = %q", rec.CycleStartLabel)
	}
}

func TestLeadCycleTimes_Additive(t *testing.T) {
	opened := at(14, 12)
	issue := issueWith(t, 1, opened,
		ev("todo", opened.AddDate(0, 0, 1)),
		ev("In Progress", opened.AddDate(0, 0, 2)),
		ev("Code Review", opened.AddDate(0, 0, 3)),
		ev(workflow.LabelClosed, at(18, 21)))

	rec := leadCycle(t, issue)[0]

	if rec.LeadTimeDays != 4 {
		t.Errorf("lead = %d, want 4", rec.LeadTimeDays)
	}
	if rec.CycleTimeDays != 3 {
		t.Errorf("cycle = %d, want 3", rec.CycleTimeDays)
	}
}

func TestLeadCycleTimes_CycleStart(t *testing.T) {
	opened := at(15, 9)
	closed := at(19, 9)

	tests := []struct {
		name      string
		events    []workflow.StageInterval
		wantLabel string
		wantAt    time.Time
		wantCycle int
	}{
		{
			name: "wip label",
			events: []workflow.StageInterval{
				ev("Code Review", at(16, 9)),
				ev("In Progress", at(17, 9)),
				ev(workflow.LabelClosed, closed),
			},
			wantLabel: "In Progress", wantAt: at(17, 9), wantCycle: 3,
		},
		{
			name: "later stage fallback",
			events: []workflow.StageInterval{
				ev("todo", at(16, 9)),
				ev("Code Review", at(17, 9)),
				ev(workflow.LabelClosed, closed),
			},
			wantLabel: "Code Review", wantAt: at(17, 9), wantCycle: 3,
		},
		{
			name: "merge request fallback",
			events: []workflow.StageInterval{
				{Label: workflow.LabelMergeRequest, Start: at(16, 10), End: at(18, 10)},
				ev(workflow.LabelClosed, closed),
			},
			wantLabel: workflow.LabelMergeRequest, wantAt: at(16, 10), wantCycle: 4,
		},
		{
			name: "earlier stages are not candidates",
			events: []workflow.StageInterval{
				ev("todo", at(16, 9)),
				ev(workflow.LabelClosed, closed),
			},
			wantLabel: workflow.LabelClosed, wantAt: closed, wantCycle: 1,
		},
		{
			name:      "degenerate",
			events:    []workflow.StageInterval{ev(workflow.LabelClosed, closed)},
			wantLabel: workflow.LabelClosed, wantAt: closed, wantCycle: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := leadCycle(t, issueWith(t, 1, opened, tt.events...))[0]
			if rec.CycleStartLabel != tt.wantLabel {
				t.Errorf("label = %q, want %q", rec.CycleStartLabel, tt.wantLabel)
			}
			if !rec.CycleStartAt.Equal(tt.wantAt) {
				t.Errorf("start = %v, want %v", rec.CycleStartAt, tt.wantAt)
			}
			if rec.CycleTimeDays != tt.wantCycle {
				t.Errorf("cycle = %d, want %d", rec.CycleTimeDays, tt.wantCycle)
			}
		})
	}
}

func TestLeadCycleTimes_Reopened(t *testing.T) {
	opened := at(15, 9) // Monday
	issue := issueWith(t, 1, opened,
		ev(workflow.LabelClosed, at(16, 9)),
		ev(workflow.LabelReopened, at(17, 9)),
		ev("In Progress", at(17, 10)),
		ev(workflow.LabelClosed, at(18, 9)),
		ev(workflow.LabelReopened, at(22, 9)),
		ev(workflow.LabelClosed, at(23, 9)))

	rec := leadCycle(t, issue)[0]

	if rec.ReopenedCount != 2 {
		t.Errorf("reopened = %d, want 2", rec.ReopenedCount)
	}
	if !rec.ClosedAt.Equal(at(16, 9)) {
		t.Errorf("closed = %v, want first close", rec.ClosedAt)
	}
	if !rec.LastClosedAt.Equal(at(23, 9)) {
		t.Errorf("last closed = %v, want final close", rec.LastClosedAt)
	}
	// Mon 15 to Tue 23, weekend excluded.
	if rec.LeadTimeDays != 7 {
		t.Errorf("lead = %d, want 7", rec.LeadTimeDays)
	}
	// WIP after the first close does not count.
	if rec.CycleTimeDays != 1 {
		t.Errorf("cycle = %d, want 1", rec.CycleTimeDays)
	}
}

func TestLeadCycleTimes_OpenIssue(t *testing.T) {
	issue := issueWith(t, 1, at(15, 9), ev("In Progress", at(16, 9)))

	rec := leadCycle(t, issue)[0]

	if rec.Closed() {
		t.Error("open issue reported as closed")
	}
	if rec.LeadTimeDays != 0 || rec.CycleTimeDays != 0 {
		t.Errorf("open issue has lead %d cycle %d", rec.LeadTimeDays, rec.CycleTimeDays)
	}
}

func TestLeadCycleTimes_InputOrder(t *testing.T) {
	var issues []*workflow.Issue
	for _, id := range []int64{9, 3, 5} {
		issues = append(issues, issueWith(t, id, at(15, 9), ev(workflow.LabelClosed, at(16, 9))))
	}

	records := leadCycle(t, issues...)

	for i, want := range []int64{9, 3, 5} {
		if records[i].IssueID != want {
			t.Errorf("record %d = issue %d, want %d", i, records[i].IssueID, want)
		}
	}
}

func TestLeadCycleTimes_RequiresWIPLabel(t *testing.T) {
	_, err := NewLeadCycleTimes(nil, LeadCycleOptions{})
	if !errors.Is(err, ErrMissingWIPLabel) {
		t.Errorf("Expected ErrMissingWIPLabel, got %v", err)
	}
}
