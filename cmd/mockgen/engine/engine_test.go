package engine

import (
	"context"
	"testing"
	"time"

	"gl-analytics/internal/eventlog"
)

var now = time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

func TestGenerate_BuildsValidHistories(t *testing.T) {
	for _, scenario := range []string{"mild", "chaos", "drift"} {
		for _, dist := range []string{"uniform", "weibull"} {
			t.Run(scenario+"/"+dist, func(t *testing.T) {
				records := Generate(GeneratorConfig{Scenario: scenario, Distribution: dist, Count: 40, Now: now, Seed: 7})
				if len(records) != 40 {
					t.Fatalf("Expected 40 records, got %d", len(records))
				}

				closed := 0
				for _, rec := range records {
					issue, err := eventlog.BuildIssue(rec)
					if err != nil {
						t.Fatalf("BuildIssue(%d): %v", rec.IID, err)
					}
					if rec.ClosedAt.IsZero() {
						continue
					}
					closed++
					if !issue.ClosedAt().Equal(rec.ClosedAt) {
						t.Errorf("issue %d closed at %v, record says %v", rec.IID, issue.ClosedAt(), rec.ClosedAt)
					}
				}
				// Arrivals span 40 days and no issue lasts that long in the mild uniform case.
				if scenario == "mild" && dist == "uniform" && closed == 0 {
					t.Error("Expected some closed issues")
				}
			})
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	cfg := GeneratorConfig{Scenario: "chaos", Count: 10, Now: now, Seed: 42}
	a, b := Generate(cfg), Generate(cfg)
	for i := range a {
		if !a[i].ClosedAt.Equal(b[i].ClosedAt) || len(a[i].Events) != len(b[i].Events) {
			t.Fatalf("record %d differs between runs with the same seed", i)
		}
	}
}

func TestSave_ReadableByProvider(t *testing.T) {
	dir := t.TempDir()
	q := eventlog.Query{Group: "mock", Milestone: "m1"}
	records := Generate(GeneratorConfig{Count: 5, Now: now, Seed: 1})

	if _, err := Save(dir, q, records); err != nil {
		t.Fatalf("Save: %v", err)
	}

	p := eventlog.NewLogProvider(nil, eventlog.NewStore(), dir, time.Hour)
	issues, err := p.Issues(context.Background(), q)
	if err != nil {
		t.Fatalf("Issues: %v", err)
	}
	if len(issues) != 5 {
		t.Errorf("Expected 5 cached issues, got %d", len(issues))
	}
}
