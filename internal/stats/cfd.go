package stats

import (
	"slices"
	"time"

	"gl-analytics/internal/workflow"
)

// CumulativeFlow counts, for each day of a window, how many issues occupied each stage.
type CumulativeFlow struct {
	histories []*workflow.History
	stages    []string
	index     map[string]int
	window    ReportWindow
}

// NewCumulativeFlow validates the stage vocabulary and resolves the reporting window.
func NewCumulativeFlow(histories []*workflow.History, stages []string, opts WindowOptions) (*CumulativeFlow, error) {
	index, err := stageIndex(stages)
	if err != nil {
		return nil, err
	}
	window, err := NewReportWindow(opts)
	if err != nil {
		return nil, err
	}
	return &CumulativeFlow{
		histories: histories,
		stages:    slices.Clone(stages),
		index:     index,
		window:    window,
	}, nil
}

// Window returns the resolved reporting window.
func (c *CumulativeFlow) Window() ReportWindow {
	return c.window
}

// Stages returns the stage vocabulary in column order.
func (c *CumulativeFlow) Stages() []string {
	return slices.Clone(c.stages)
}

// Table builds the occupancy table. Each issue contributes an end-of-day state series that
// is forward-filled across the window, and the per-issue tables are summed.
func (c *CumulativeFlow) Table() *OccupancyTable {
	// Vocabulary was validated in the constructor.
	table, _ := NewOccupancyTable(c.window, c.stages)

	for _, h := range c.histories {
		spans := c.occupancy(h.Intervals())
		if len(spans) == 0 {
			continue
		}
		series, _ := NewOccupancyTable(c.window, c.stages)
		c.fill(series, spans)
		_ = table.Add(series)
	}
	return table
}

// span is a stage occupancy in whole days, [start, end). A zero end runs past the window.
type span struct {
	stage int
	start time.Time
	end   time.Time
}

func (s span) covers(day time.Time) bool {
	return !day.Before(s.start) && (s.end.IsZero() || day.Before(s.end))
}

// occupancy maps one history onto day spans for the listed stages.
//
// A kept interval ends where the next interval of the full history starts, so an excluded
// stage still terminates the listed stage before it. When the last listed interval started on
// the issue's opening day, only that interval counts and it occupies at least its start day.
func (c *CumulativeFlow) occupancy(intervals []workflow.StageInterval) []span {
	var kept []int
	for i, iv := range intervals {
		if _, ok := c.index[iv.Label]; ok {
			kept = append(kept, i)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	endOf := func(i int) time.Time {
		if i+1 < len(intervals) {
			return intervals[i+1].Start
		}
		return intervals[i].End
	}

	last := kept[len(kept)-1]
	opened := SnapToDay(intervals[0].Start)
	if SnapToDay(intervals[last].Start).Equal(opened) {
		s := span{stage: c.index[intervals[last].Label], start: opened}
		if end := endOf(last); !end.IsZero() {
			s.end = SnapToDay(end)
			if !s.end.After(s.start) {
				s.end = s.start.AddDate(0, 0, 1)
			}
		}
		return []span{s}
	}

	spans := make([]span, 0, len(kept))
	for _, i := range kept {
		s := span{stage: c.index[intervals[i].Label], start: SnapToDay(intervals[i].Start)}
		if end := endOf(i); !end.IsZero() {
			s.end = SnapToDay(end)
			if !s.end.After(s.start) {
				// Entered and left on the same day, never present at end of day.
				continue
			}
		}
		spans = append(spans, s)
	}
	return spans
}

// fill records the issue's end-of-day state on every day it changes, then carries the last
// known state forward onto each day of the window.
func (c *CumulativeFlow) fill(series *OccupancyTable, spans []span) {
	// 1. Collect the days on which occupancy changes
	var changes []time.Time
	for _, s := range spans {
		changes = append(changes, s.start)
		if !s.end.IsZero() {
			changes = append(changes, s.end)
		}
	}
	slices.SortFunc(changes, time.Time.Compare)
	changes = slices.CompactFunc(changes, time.Time.Equal)

	// 2. End-of-day state on each change day
	states := make([][]int, len(changes))
	for k, day := range changes {
		row := make([]int, len(c.stages))
		for _, s := range spans {
			if s.covers(day) {
				row[s.stage]++
			}
		}
		states[k] = row
	}

	// 3. Forward fill onto the window calendar
	k := -1
	for i := range series.Rows {
		day := series.Rows[i].Date
		for k+1 < len(changes) && !changes[k+1].After(day) {
			k++
		}
		if k >= 0 {
			copy(series.Rows[i].Counts, states[k])
		}
	}
}
