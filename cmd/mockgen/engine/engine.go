package engine

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"gl-analytics/internal/eventlog"
)

// GeneratorConfig controls the synthetic milestone.
type GeneratorConfig struct {
	Scenario     string
	Distribution string // "uniform" or "weibull"
	Count        int
	Now          time.Time
	Seed         int64
}

// Workflow labels walked by every generated issue, in order.
var Workflow = []string{"Refinement", "In Progress", "Code Review"}

// phase boundaries as fractions of an issue's total duration
var phases = []float64{0.15, 0.40, 0.75}

// Generate builds fully resolved issue records, one arrival per day ending at cfg.Now.
func Generate(cfg GeneratorConfig) []eventlog.IssueRecord {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	cfg.Now = cfg.Now.UTC()
	rng := rand.New(rand.NewSource(cfg.Seed))

	records := make([]eventlog.IssueRecord, 0, cfg.Count)
	tArrival := cfg.Now.AddDate(0, 0, -cfg.Count)

	for i := 0; i < cfg.Count; i++ {
		arrival := tArrival.Add(time.Duration(i*24) * time.Hour)
		rec := eventlog.IssueRecord{
			ID:        int64(1000 + i),
			IID:       int64(i + 1),
			ProjectID: 1,
			Title:     fmt.Sprintf("Synthetic issue %d", i+1),
			Type:      "Story",
			OpenedAt:  arrival,
		}
		if i%5 == 0 {
			rec.Type = "Bug"
		}

		// 1. Determine Parameters
		k, lambda := 2.5, 9.5
		switch cfg.Scenario {
		case "chaos":
			k = 0.8
			if cfg.Distribution == "weibull" {
				lambda = 12.0
			}
		case "drift":
			ratio := float64(i) / float64(cfg.Count)
			k = 2.5 - (1.7 * ratio)
			lambda = 9.5 + (2.5 * ratio)
		}

		// 2. Sample total duration in days
		var total float64
		if cfg.Distribution == "weibull" {
			total = weibullSample(rng, k, lambda)
		} else {
			total = 6.0 + rng.Float64()*5.0
			if cfg.Scenario == "chaos" && rng.Float64() < 0.2 {
				total += 10 + rng.Float64()*15
			}
			if cfg.Scenario == "drift" && i > cfg.Count/2 {
				total *= 2.0
			}
		}
		at := func(fraction float64) time.Time {
			return arrival.Add(time.Duration(total * fraction * 24 * float64(time.Hour))).Truncate(time.Second)
		}

		// 3. Walk the workflow labels until now
		prev := ""
		for p, label := range Workflow {
			ts := at(phases[p])
			if !ts.Before(cfg.Now) {
				break
			}
			if prev != "" {
				rec.Events = append(rec.Events, labelEvent(eventlog.Remove, prev, ts))
			}
			rec.Events = append(rec.Events, labelEvent(eventlog.Add, label, ts))
			prev = label

			// A merge request is opened when review starts.
			if label == "Code Review" {
				mr := eventlog.Event{Source: eventlog.SourceMergeRequest, Action: eventlog.MergeRequest, Label: "merge_request", Timestamp: ts}
				if done := at(1); done.Before(cfg.Now) {
					mr.End = done
				}
				rec.Events = append(rec.Events, mr)
			}
		}

		// 4. Close when finished
		if done := at(1); done.Before(cfg.Now) {
			rec.ClosedAt = done
			rec.Events = append(rec.Events,
				labelEvent(eventlog.Remove, prev, done),
				eventlog.Event{Source: eventlog.SourceState, Action: eventlog.State, Label: "closed", Timestamp: done},
			)
		}

		records = append(records, rec)
	}
	return records
}

func labelEvent(action eventlog.Action, label string, ts time.Time) eventlog.Event {
	return eventlog.Event{Source: eventlog.SourceLabels, Action: action, Label: label, Timestamp: ts}
}

func weibullSample(rng *rand.Rand, k, lambda float64) float64 {
	u := rng.Float64()
	if u == 0 {
		u = 0.0001
	}
	// X = lambda * (-ln(1-u))^(1/k)
	return lambda * math.Pow(-math.Log(1.0-u), 1.0/k)
}

// Save writes the records into the fetch cache under the key of q, where the CLI picks
// them up instead of calling GitLab.
func Save(cacheDir string, q eventlog.Query, records []eventlog.IssueRecord) (string, error) {
	store := eventlog.NewStore()
	store.Put(q.Key(), records)
	if err := store.Save(cacheDir, q.Key()); err != nil {
		return "", err
	}
	return eventlog.CachePath(cacheDir, q.Key()), nil
}
