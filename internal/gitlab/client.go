package gitlab

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	gl "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/sync/errgroup"

	"gl-analytics/internal/eventlog"
)

const (
	// DefaultBaseURL is the public GitLab API root.
	DefaultBaseURL = "https://gitlab.com/api/v4"
	// DefaultConcurrency bounds the number of issues resolved in parallel.
	DefaultConcurrency = 5

	pageSize = 100
)

// Config holds the connection and resolution settings for GitLab.
type Config struct {
	BaseURL string
	Token   string

	// Concurrency is the number of issues resolved at once.
	Concurrency int

	// LabelScope is the scoped label prefix of workflow stages (e.g. "workflow::").
	LabelScope string
	// TypeScope is the scoped label prefix of the issue type (e.g. "type::").
	TypeScope string
}

// Client fetches group issues and resolves their workflow events.
type Client struct {
	api       *gl.Client
	cfg       Config
	resolvers []Resolver
}

// NewClient creates a GitLab client with the default resolvers.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("gitlab token is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = DefaultConcurrency
	}

	api, err := gl.NewClient(cfg.Token, gl.WithBaseURL(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create gitlab client: %w", err)
	}

	c := &Client{api: api, cfg: cfg}
	c.resolvers = []Resolver{
		&ScopedLabelResolver{api: api, scope: cfg.LabelScope},
		&StateEventResolver{api: api},
		&ClosedByResolver{api: api},
	}
	return c, nil
}

// ListIssues lists the group issues of a milestone and resolves every issue's events.
func (c *Client) ListIssues(ctx context.Context, q eventlog.Query) ([]eventlog.IssueRecord, error) {
	if q.Group == "" {
		return nil, fmt.Errorf("gitlab group is required")
	}

	// 1. List issues page by page
	issues, err := c.listGroupIssues(ctx, q)
	if err != nil {
		return nil, err
	}
	log.Info().Str("group", q.Group).Str("milestone", q.Milestone).Int("count", len(issues)).Msg("Listed issues")

	// 2. Resolve each issue concurrently, one goroutine per issue
	records := make([]eventlog.IssueRecord, len(issues))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)

	for i, iss := range issues {
		records[i] = toRecord(iss, c.cfg.TypeScope)
		g.Go(func() error {
			for _, r := range c.resolvers {
				events, err := r.Resolve(gctx, iss)
				if err != nil {
					return fmt.Errorf("resolve %s for issue %d/%d: %w", r.Source(), iss.ProjectID, iss.IID, err)
				}
				records[i].Events = append(records[i].Events, events...)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Client) listGroupIssues(ctx context.Context, q eventlog.Query) ([]*gl.Issue, error) {
	opts := &gl.ListGroupIssuesOptions{
		Scope: gl.Ptr("all"),
		ListOptions: gl.ListOptions{
			Page:    1,
			PerPage: pageSize,
		},
	}
	if q.Milestone != "" {
		opts.Milestone = gl.Ptr(q.Milestone)
	}
	if q.State != "" && q.State != "all" {
		opts.State = gl.Ptr(q.State)
	}

	var all []*gl.Issue
	for {
		page, resp, err := c.api.Issues.ListGroupIssues(q.Group, opts, gl.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("listing issues of group %s: %w", q.Group, err)
		}
		all = append(all, page...)

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

func toRecord(iss *gl.Issue, typeScope string) eventlog.IssueRecord {
	rec := eventlog.IssueRecord{
		ID:        iss.ID,
		IID:       iss.IID,
		ProjectID: iss.ProjectID,
		Title:     iss.Title,
		Type:      issueType(iss.Labels, typeScope),
	}
	if iss.CreatedAt != nil {
		rec.OpenedAt = iss.CreatedAt.UTC()
	}
	if iss.ClosedAt != nil {
		rec.ClosedAt = iss.ClosedAt.UTC()
	}
	return rec
}

// issueType returns the first label carrying the type scope, with the scope stripped.
func issueType(labels []string, scope string) string {
	if scope == "" {
		return ""
	}
	for _, l := range labels {
		if t, ok := strings.CutPrefix(l, scope); ok {
			return t
		}
	}
	return ""
}
