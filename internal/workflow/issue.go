package workflow

import (
	"fmt"
	"time"
)

// Issue is a tracked work item together with its stage history.
type Issue struct {
	ID        int64
	ProjectID int64
	Type      string
	History   *History
}

// NewIssue creates an issue whose history is seeded from the tracker's opened and closed
// timestamps. closedAt may be zero.
func NewIssue(id, projectID int64, issueType string, openedAt, closedAt time.Time) *Issue {
	return &Issue{
		ID:        id,
		ProjectID: projectID,
		Type:      issueType,
		History:   NewHistory(openedAt, closedAt),
	}
}

// OpenedAt is the start of the first interval.
func (i *Issue) OpenedAt() time.Time {
	if i.History.Len() == 0 {
		return time.Time{}
	}
	return i.History.At(0).Start
}

// ClosedAt is the first time the issue was closed, or zero if it never was.
func (i *Issue) ClosedAt() time.Time {
	for _, iv := range i.History.intervals {
		if iv.Label == LabelClosed {
			return iv.Start
		}
	}
	return time.Time{}
}

// LastClosedAt is the most recent close across reopen cycles, or zero.
func (i *Issue) LastClosedAt() time.Time {
	for j := len(i.History.intervals) - 1; j >= 0; j-- {
		if i.History.intervals[j].Label == LabelClosed {
			return i.History.intervals[j].Start
		}
	}
	return time.Time{}
}

// ReopenedCount is the number of times the issue was reopened.
func (i *Issue) ReopenedCount() int {
	n := 0
	for _, iv := range i.History.intervals {
		if iv.Label == LabelReopened {
			n++
		}
	}
	return n
}

func (i *Issue) String() string {
	return fmt.Sprintf("Issue(id:%d, p:%d, t:%q, h:%s)", i.ID, i.ProjectID, i.Type, i.History)
}
