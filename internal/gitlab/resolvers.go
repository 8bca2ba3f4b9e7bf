package gitlab

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	gl "gitlab.com/gitlab-org/api/client-go"

	"gl-analytics/internal/eventlog"
	"gl-analytics/internal/workflow"
)

// Resolver turns one kind of GitLab resource event into raw events for an issue.
type Resolver interface {
	Source() eventlog.Source
	Resolve(ctx context.Context, iss *gl.Issue) ([]eventlog.Event, error)
}

// ScopedLabelResolver reads resource label events and keeps the labels of one scope.
type ScopedLabelResolver struct {
	api   *gl.Client
	scope string
}

func (r *ScopedLabelResolver) Source() eventlog.Source { return eventlog.SourceLabels }

func (r *ScopedLabelResolver) Resolve(ctx context.Context, iss *gl.Issue) ([]eventlog.Event, error) {
	opts := &gl.ListLabelEventsOptions{
		ListOptions: gl.ListOptions{Page: 1, PerPage: pageSize},
	}

	var events []eventlog.Event
	for {
		page, resp, err := r.api.ResourceLabelEvents.ListIssueLabelEvents(iss.ProjectID, iss.IID, opts, gl.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("listing label events: %w", err)
		}
		for _, le := range page {
			if e, ok := r.toEvent(le); ok {
				events = append(events, e)
			}
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return events, nil
}

func (r *ScopedLabelResolver) toEvent(le *gl.LabelEvent) (eventlog.Event, bool) {
	if le == nil || le.CreatedAt == nil {
		return eventlog.Event{}, false
	}
	label, ok := strings.CutPrefix(le.Label.Name, r.scope)
	if !ok || label == "" {
		return eventlog.Event{}, false
	}

	var action eventlog.Action
	switch le.Action {
	case "add":
		action = eventlog.Add
	case "remove":
		action = eventlog.Remove
	default:
		log.Debug().Str("action", le.Action).Str("label", le.Label.Name).Msg("Ignoring label event")
		return eventlog.Event{}, false
	}

	return eventlog.Event{
		Source:    eventlog.SourceLabels,
		Action:    action,
		Label:     label,
		Timestamp: le.CreatedAt.UTC(),
	}, true
}

// StateEventResolver reads resource state events for closes and reopens.
type StateEventResolver struct {
	api *gl.Client
}

func (r *StateEventResolver) Source() eventlog.Source { return eventlog.SourceState }

func (r *StateEventResolver) Resolve(ctx context.Context, iss *gl.Issue) ([]eventlog.Event, error) {
	opts := &gl.ListStateEventsOptions{
		ListOptions: gl.ListOptions{Page: 1, PerPage: pageSize},
	}

	var events []eventlog.Event
	for {
		page, resp, err := r.api.ResourceStateEvents.ListIssueStateEvents(iss.ProjectID, iss.IID, opts, gl.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("listing state events: %w", err)
		}
		for _, se := range page {
			if se == nil || se.CreatedAt == nil {
				continue
			}
			state := string(se.State)
			if state != workflow.LabelClosed && state != workflow.LabelReopened {
				continue
			}
			events = append(events, eventlog.Event{
				Source:    eventlog.SourceState,
				Action:    eventlog.State,
				Label:     state,
				Timestamp: se.CreatedAt.UTC(),
			})
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return events, nil
}

// ClosedByResolver reads the merge requests that close an issue.
type ClosedByResolver struct {
	api *gl.Client
}

func (r *ClosedByResolver) Source() eventlog.Source { return eventlog.SourceMergeRequest }

func (r *ClosedByResolver) Resolve(ctx context.Context, iss *gl.Issue) ([]eventlog.Event, error) {
	opts := &gl.ListMergeRequestsClosingIssueOptions{
		ListOptions: gl.ListOptions{Page: 1, PerPage: pageSize},
	}

	var events []eventlog.Event
	for {
		page, resp, err := r.api.Issues.ListMergeRequestsClosingIssue(iss.ProjectID, iss.IID, opts, gl.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("listing closing merge requests: %w", err)
		}
		for _, mr := range page {
			if mr == nil || mr.CreatedAt == nil {
				continue
			}
			e := eventlog.Event{
				Source:    eventlog.SourceMergeRequest,
				Action:    eventlog.MergeRequest,
				Label:     workflow.LabelMergeRequest,
				Timestamp: mr.CreatedAt.UTC(),
			}
			if mr.MergedAt != nil {
				e.End = mr.MergedAt.UTC()
			}
			events = append(events, e)
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return events, nil
}
