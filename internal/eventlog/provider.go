package eventlog

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"gl-analytics/internal/workflow"
)

// StateClosed selects only issues that are closed.
const StateClosed = "closed"

// Query selects the issues of one report run.
type Query struct {
	Group     string
	Milestone string
	// State filters issues by tracker state ("opened", "closed" or "all").
	State string
}

// Key identifies the query in the fetch cache.
func (q Query) Key() string {
	state := q.State
	if state == "" {
		state = "all"
	}
	return fmt.Sprintf("%s-%s-%s", q.Group, q.Milestone, state)
}

// Fetcher retrieves fully resolved issue records from the tracker.
type Fetcher interface {
	ListIssues(ctx context.Context, q Query) ([]IssueRecord, error)
}

// LogProvider orchestrates fetching, caching, and history building.
type LogProvider struct {
	fetcher  Fetcher
	store    *Store
	cacheDir string
	ttl      time.Duration
}

// NewLogProvider creates a provider. An empty cacheDir disables the fetch cache.
func NewLogProvider(fetcher Fetcher, store *Store, cacheDir string, ttl time.Duration) *LogProvider {
	return &LogProvider{
		fetcher:  fetcher,
		store:    store,
		cacheDir: cacheDir,
		ttl:      ttl,
	}
}

// Records returns the issue records for q, from the cache when it is fresh.
func (p *LogProvider) Records(ctx context.Context, q Query) ([]IssueRecord, error) {
	key := q.Key()

	// 1. In-memory
	if recs, ok := p.store.Get(key); ok {
		return recs, nil
	}

	// 2. Disk cache
	if p.cacheDir != "" {
		ok, err := p.store.Load(p.cacheDir, key, p.ttl)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Ignoring unreadable cache")
		} else if ok {
			recs, _ := p.store.Get(key)
			return recs, nil
		}
	}

	// 3. Tracker
	start := time.Now()
	recs, err := p.fetcher.ListIssues(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("fetch issues for %s: %w", key, err)
	}
	log.Info().Str("key", key).Int("issues", len(recs)).Dur("took", time.Since(start)).Msg("Fetched issues")

	p.store.Put(key, recs)
	if p.cacheDir != "" {
		if err := p.store.Save(p.cacheDir, key); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to save cache")
		}
	}
	return recs, nil
}

// Issues returns the issues for q with their histories built from sources (all when empty).
// Records are fetched and cached with every source regardless.
func (p *LogProvider) Issues(ctx context.Context, q Query, sources ...Source) ([]*workflow.Issue, error) {
	recs, err := p.Records(ctx, q)
	if err != nil {
		return nil, err
	}
	return BuildIssues(recs, sources...)
}

// Invalidate drops the cached records for q from memory and disk.
func (p *LogProvider) Invalidate(q Query) error {
	key := q.Key()
	p.store.Clear(key)
	if p.cacheDir == "" {
		return nil
	}
	return DeleteCache(p.cacheDir, key)
}
