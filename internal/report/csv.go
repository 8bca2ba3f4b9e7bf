package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"gl-analytics/internal/stats"
)

// WriteOccupancyCSV writes the occupancy table as "date,<stage>..." with one row per day.
func WriteOccupancyCSV(w io.Writer, table *stats.OccupancyTable) error {
	cw := csv.NewWriter(w)

	header := append([]string{"date"}, table.Stages...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, row := range table.Rows {
		rec := make([]string, 0, len(row.Counts)+1)
		rec = append(rec, row.Date.Format(stats.DateLayout))
		for _, c := range row.Counts {
			rec = append(rec, strconv.Itoa(c))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// LeadCycleHeader returns the lead/cycle CSV header. The cycle start column is named after
// the work-in-progress label.
func LeadCycleHeader(wipLabel string) []string {
	return []string{"issue", "project", "type", "opened", wipLabel, "closed", "last_closed", "reopened", "lead", "cycle"}
}

// WriteLeadCycleCSV writes one row per record, in record order. Cells of issues that never
// closed are left empty.
func WriteLeadCycleCSV(w io.Writer, wipLabel string, records []stats.LeadCycleRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(LeadCycleHeader(wipLabel)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, r := range records {
		lead, cycle := "", ""
		if r.Closed() {
			lead = strconv.Itoa(r.LeadTimeDays)
			cycle = strconv.Itoa(r.CycleTimeDays)
		}
		rec := []string{
			strconv.FormatInt(r.IssueID, 10),
			strconv.FormatInt(r.ProjectID, 10),
			r.Type,
			formatDate(r.OpenedAt),
			formatDate(r.CycleStartAt),
			formatDate(r.ClosedAt),
			formatDate(r.LastClosedAt),
			strconv.Itoa(r.ReopenedCount),
			lead,
			cycle,
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(stats.DateLayout)
}
