package eventlog

import "time"

// Action defines the objective nature of a tracker event.
type Action string

const (
	// Add indicates a scoped label was applied.
	Add Action = "add"
	// Remove indicates a scoped label was taken off.
	Remove Action = "remove"
	// State indicates a close or reopen of the issue.
	State Action = "state"
	// MergeRequest indicates a merge request referencing the issue was opened.
	MergeRequest Action = "merge_request"
)

// Source identifies the resolver an event came from. Each source is merged into the
// issue history in one call.
type Source string

const (
	SourceLabels       Source = "labels"
	SourceState        Source = "state"
	SourceMergeRequest Source = "merge_requests"
)

// resolveOrder is the order in which sources are merged into a history.
var resolveOrder = []Source{SourceLabels, SourceState, SourceMergeRequest}

// Event represents a single raw change in an issue's lifecycle.
type Event struct {
	// Source is the resolver that produced the event.
	Source Source `json:"source"`
	// Action is the kind of change.
	Action Action `json:"action"`
	// Label is the stage label with any scope prefix already stripped.
	Label string `json:"label"`
	// Timestamp is when the change happened in the tracker.
	Timestamp time.Time `json:"ts"`
	// End closes the span for events that carry one (merged merge requests).
	End time.Time `json:"end,omitzero"`
}

// IssueRecord is a fetched issue with every raw event its resolvers produced.
// It is the unit stored in the fetch cache.
type IssueRecord struct {
	ID        int64     `json:"id"`
	IID       int64     `json:"iid"`
	ProjectID int64     `json:"projectId"`
	Title     string    `json:"title,omitempty"`
	Type      string    `json:"type,omitempty"`
	OpenedAt  time.Time `json:"openedAt"`
	ClosedAt  time.Time `json:"closedAt,omitzero"`
	Events    []Event   `json:"events,omitempty"`
}

// EventsFrom returns the record's events produced by one source, in fetch order.
func (r IssueRecord) EventsFrom(src Source) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Source == src {
			out = append(out, e)
		}
	}
	return out
}
