package stats

import (
	"slices"
	"time"

	"github.com/cockroachdb/errors"
)

var (
	// ErrInvalidStages is returned when the stage vocabulary is empty or has duplicates.
	ErrInvalidStages = errors.New("stages must be a non-empty list of unique labels")
	// ErrUnknownStage is returned when a column is requested for a stage not in the vocabulary.
	ErrUnknownStage = errors.New("unknown stage")
	// ErrShapeMismatch is returned when two tables with different dates or stages are combined.
	ErrShapeMismatch = errors.New("occupancy tables do not share dates and stages")
)

// OccupancyRow holds the per-stage counts for one day, in stage order.
type OccupancyRow struct {
	Date   time.Time `json:"date"`
	Counts []int     `json:"counts"`
}

// OccupancyTable is a dense date x stage table of issue counts.
type OccupancyTable struct {
	Stages []string       `json:"stages"`
	Rows   []OccupancyRow `json:"rows"`
	index  map[string]int
}

// NewOccupancyTable creates a zero filled table with one row per day of the window.
func NewOccupancyTable(window ReportWindow, stages []string) (*OccupancyTable, error) {
	index, err := stageIndex(stages)
	if err != nil {
		return nil, err
	}

	days := window.Days()
	rows := make([]OccupancyRow, len(days))
	for i, d := range days {
		rows[i] = OccupancyRow{Date: d, Counts: make([]int, len(stages))}
	}
	return &OccupancyTable{Stages: slices.Clone(stages), Rows: rows, index: index}, nil
}

// Column returns the per-day counts for a stage.
func (t *OccupancyTable) Column(stage string) ([]int, error) {
	j, ok := t.index[stage]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownStage, "%q", stage)
	}
	col := make([]int, len(t.Rows))
	for i, r := range t.Rows {
		col[i] = r.Counts[j]
	}
	return col, nil
}

// Value returns the count for a stage on a given day. Days outside the table count as zero.
func (t *OccupancyTable) Value(day time.Time, stage string) (int, error) {
	j, ok := t.index[stage]
	if !ok {
		return 0, errors.Wrapf(ErrUnknownStage, "%q", stage)
	}
	day = SnapToDay(day)
	for _, r := range t.Rows {
		if r.Date.Equal(day) {
			return r.Counts[j], nil
		}
	}
	return 0, nil
}

// Add sums another table with identical dates and stages into t.
func (t *OccupancyTable) Add(other *OccupancyTable) error {
	if !slices.Equal(t.Stages, other.Stages) || len(t.Rows) != len(other.Rows) {
		return ErrShapeMismatch
	}
	for i := range t.Rows {
		if !t.Rows[i].Date.Equal(other.Rows[i].Date) {
			return errors.Wrapf(ErrShapeMismatch, "row %d", i)
		}
		for j := range t.Rows[i].Counts {
			t.Rows[i].Counts[j] += other.Rows[i].Counts[j]
		}
	}
	return nil
}

// Totals returns the number of issues present in any listed stage, per day.
func (t *OccupancyTable) Totals() []int {
	totals := make([]int, len(t.Rows))
	for i, r := range t.Rows {
		for _, c := range r.Counts {
			totals[i] += c
		}
	}
	return totals
}

func stageIndex(stages []string) (map[string]int, error) {
	if len(stages) == 0 {
		return nil, ErrInvalidStages
	}
	index := make(map[string]int, len(stages))
	for i, s := range stages {
		if s == "" {
			return nil, errors.Wrap(ErrInvalidStages, "empty stage label")
		}
		if _, dup := index[s]; dup {
			return nil, errors.Wrapf(ErrInvalidStages, "duplicate stage %q", s)
		}
		index[s] = i
	}
	return index, nil
}
