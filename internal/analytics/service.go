package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"

	"gl-analytics/internal/config"
	"gl-analytics/internal/eventlog"
	"gl-analytics/internal/stats"
	"gl-analytics/internal/workflow"
)

// IssueSource yields issues with their histories built from the given event sources.
type IssueSource interface {
	Issues(ctx context.Context, q eventlog.Query, sources ...eventlog.Source) ([]*workflow.Issue, error)
}

// Request describes one report run. Empty Stages and WIPLabel fall back to the profile.
type Request struct {
	Query    eventlog.Query
	Window   stats.WindowOptions
	Stages   []string
	WIPLabel string
}

// Service runs the reports on top of an issue source.
type Service struct {
	source  IssueSource
	profile config.WorkflowProfile
}

// NewService creates a report service.
func NewService(source IssueSource, profile config.WorkflowProfile) *Service {
	return &Service{source: source, profile: profile}
}

// Profile returns the workflow profile used for defaults.
func (s *Service) Profile() config.WorkflowProfile {
	return s.profile
}

// Refresh drops cached issues for q so the next report refetches them. Sources without a
// cache ignore it.
func (s *Service) Refresh(q eventlog.Query) error {
	c, ok := s.source.(interface{ Invalidate(eventlog.Query) error })
	if !ok {
		return nil
	}
	log.Debug().Str("key", q.Key()).Msg("Invalidating cached issues")
	return c.Invalidate(q)
}

func (s *Service) stages(req Request) []string {
	if len(req.Stages) > 0 {
		return req.Stages
	}
	return s.profile.Stages
}

func (s *Service) wipLabel(req Request) string {
	if req.WIPLabel != "" {
		return req.WIPLabel
	}
	return s.profile.WIPLabel
}

// CumulativeFlow computes the stage occupancy table for the requested window.
func (s *Service) CumulativeFlow(ctx context.Context, req Request) (*stats.OccupancyTable, error) {
	stages := s.stages(req)

	// Reject bad arguments before touching the tracker.
	window, err := stats.NewReportWindow(req.Window)
	if err != nil {
		return nil, err
	}
	if _, err := stats.NewOccupancyTable(window, stages); err != nil {
		return nil, err
	}

	issues, err := s.source.Issues(ctx, req.Query, eventlog.FlowSources...)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	cf, err := stats.NewCumulativeFlow(eventlog.Histories(issues), stages, req.Window)
	if err != nil {
		return nil, err
	}
	table := cf.Table()
	log.Info().
		Str("window", cf.Window().Label()).
		Int("issues", len(issues)).
		Int("stages", len(stages)).
		Dur("took", time.Since(start)).
		Msg("Computed cumulative flow")
	return table, nil
}

// LeadCycleTimes computes per-issue lead and cycle times.
func (s *Service) LeadCycleTimes(ctx context.Context, req Request) (*stats.LeadCycleTimes, error) {
	opts := stats.LeadCycleOptions{WIPLabel: s.wipLabel(req), Stages: s.stages(req)}
	if opts.WIPLabel == "" {
		return nil, stats.ErrMissingWIPLabel
	}

	issues, err := s.source.Issues(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	lc, err := stats.NewLeadCycleTimes(issues, opts)
	if err != nil {
		return nil, err
	}
	log.Info().Str("wip", opts.WIPLabel).Int("issues", len(issues)).Msg("Computed lead and cycle times")
	return lc, nil
}

// WindowFromArgs builds window options from textual CLI or tool arguments.
func WindowFromArgs(days int, start, end string) (stats.WindowOptions, error) {
	opts := stats.WindowOptions{Days: days}
	var err error
	if opts.StartDate, err = stats.ParseDate(start); err != nil {
		return opts, errors.Wrap(err, "start")
	}
	if opts.EndDate, err = stats.ParseDate(end); err != nil {
		return opts, errors.Wrap(err, "end")
	}
	return opts, nil
}

// SplitStages parses a comma separated stage list. Blank input yields nil.
func SplitStages(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// ReportTitle names a report after its query.
func ReportTitle(kind string, q eventlog.Query) string {
	if q.Milestone == "" {
		return fmt.Sprintf("%s: %s", kind, q.Group)
	}
	return fmt.Sprintf("%s: %s / %s", kind, q.Group, q.Milestone)
}
