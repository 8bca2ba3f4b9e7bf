package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gl-analytics/cmd/mockgen/engine"
	"gl-analytics/internal/eventlog"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, chaos, drift")
	distribution := flag.String("distribution", "uniform", "Distribution to use: uniform, weibull")
	outDir := flag.String("out", "./cache", "Cache directory to write the issues to (DATA_PATH/cache)")
	group := flag.String("group", "mock", "Group the issues are cached under")
	milestone := flag.String("milestone", "mock", "Milestone the issues are cached under")
	count := flag.Int("count", 60, "Number of issues to generate")
	seed := flag.Int64("seed", time.Now().UnixNano(), "Random seed")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario:     *scenario,
		Distribution: *distribution,
		Count:        *count,
		Now:          time.Now(),
		Seed:         *seed,
	}

	fmt.Printf("Generating scenario '%s' (Distribution: %s, Count: %d) to %s...\n", cfg.Scenario, cfg.Distribution, cfg.Count, *outDir)

	records := engine.Generate(cfg)

	path, err := engine.Save(*outDir, eventlog.Query{Group: *group, Milestone: *milestone}, records)
	if err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d issues to %s\n", len(records), path)
	fmt.Printf("Report on them with: DATA_PATH=%s gl-analytics --cache cf -g %s -m %s\n", filepath.Dir(filepath.Clean(*outDir)), *group, *milestone)
}
