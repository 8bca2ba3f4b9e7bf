package report

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"gl-analytics/internal/stats"
)

// CumulativeFlowChart creates a Mermaid xychart-beta of the occupancy table. Stages are
// stacked in reverse order, so the last stage forms the bottom band and every line is the
// running total of the stages beneath it.
func CumulativeFlowChart(table *stats.OccupancyTable, title string) string {
	if len(table.Rows) == 0 {
		return ""
	}

	labels := make([]string, len(table.Rows))
	for i, r := range table.Rows {
		labels[i] = quote(r.Date.Format("01-02"))
	}

	order := slices.Clone(table.Stages)
	slices.Reverse(order)

	running := make([]int, len(table.Rows))
	lines := make([]string, 0, len(order))
	maxY := 0
	for _, stage := range order {
		col, _ := table.Column(stage)
		values := make([]string, len(col))
		for i, c := range col {
			running[i] += c
			values[i] = strconv.Itoa(running[i])
			maxY = max(maxY, running[i])
		}
		lines = append(lines, fmt.Sprintf("    %%%% %s\n    line [%s]\n", stage, strings.Join(values, ", ")))
	}

	var sb strings.Builder
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title %s\n", quote(title)))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Issues\" 0 --> %d\n", yCeil(float64(maxY))))
	for _, l := range lines {
		sb.WriteString(l)
	}
	return sb.String()
}

// LeadCycleChart creates a Mermaid bar chart of lead and cycle times of closed issues.
func LeadCycleChart(records []stats.LeadCycleRecord, title string) string {
	var labels, leads, cycles []string
	maxY := 0
	for _, r := range records {
		if !r.Closed() {
			continue
		}
		labels = append(labels, quote(fmt.Sprintf("#%d", r.IssueID)))
		leads = append(leads, strconv.Itoa(r.LeadTimeDays))
		cycles = append(cycles, strconv.Itoa(r.CycleTimeDays))
		maxY = max(maxY, r.LeadTimeDays, r.CycleTimeDays)
	}
	if len(labels) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title %s\n", quote(title)))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Business Days\" 0 --> %d\n", yCeil(float64(maxY))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(leads, ", ")))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(cycles, ", ")))
	return sb.String()
}

// Markdown wraps a diagram in a mermaid code fence.
func Markdown(diagram string) string {
	if diagram == "" {
		return ""
	}
	return "```mermaid\n" + diagram + "```\n"
}

// yCeil leaves some headroom above the highest value.
func yCeil(v float64) int {
	return int(math.Max(1, math.Ceil(v*1.1)))
}

func quote(s string) string {
	return "\"" + strings.ReplaceAll(s, "\"", "'") + "\""
}
