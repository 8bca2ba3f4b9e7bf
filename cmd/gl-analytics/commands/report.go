package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"gl-analytics/internal/analytics"
	"gl-analytics/internal/eventlog"
	"gl-analytics/internal/report"
)

// reportFlags are shared by the report commands.
type reportFlags struct {
	group     string
	milestone string
	format    string
	outfile   string
	stages    string
	open      bool
	refresh   bool

	// state restricts the listed issues, all when empty.
	state string
}

func (f *reportFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVarP(&f.group, "group", "g", "", "GitLab group path (defaults to GITLAB_GROUP)")
	fl.StringVarP(&f.milestone, "milestone", "m", "", "milestone title")
	fl.StringVarP(&f.format, "report", "r", string(report.FormatCSV), "report type: csv or plot")
	fl.StringVarP(&f.outfile, "outfile", "o", "", "output file, stdout when empty (plots ending in .html become a web page)")
	fl.StringVar(&f.stages, "stages", "", "comma separated stage labels (defaults to the workflow profile)")
	fl.BoolVar(&f.open, "open", false, "open the written report in the browser")
	fl.BoolVar(&f.refresh, "refresh", false, "drop cached issues and refetch them")
	_ = cmd.MarkFlagRequired("milestone")
}

func (f *reportFlags) query() (eventlog.Query, error) {
	group := f.group
	if group == "" {
		group = cfg.Group
	}
	if group == "" {
		return eventlog.Query{}, fmt.Errorf("group is required, pass --group or set GITLAB_GROUP")
	}
	return eventlog.Query{Group: group, Milestone: f.milestone, State: f.state}, nil
}

// prepare validates the flags and returns the query and format before any fetching.
func (f *reportFlags) prepare(svc *analytics.Service) (eventlog.Query, report.Format, error) {
	format, err := report.ParseFormat(f.format)
	if err != nil {
		return eventlog.Query{}, "", err
	}
	if f.open && (f.outfile == "" || f.outfile == "-") {
		return eventlog.Query{}, "", fmt.Errorf("--open needs --outfile")
	}

	q, err := f.query()
	if err != nil {
		return q, "", err
	}
	if f.refresh {
		if err := svc.Refresh(q); err != nil {
			return q, "", fmt.Errorf("failed to refresh cache: %w", err)
		}
	}
	return q, format, nil
}

// write renders the report in the requested format and opens it when asked.
func (f *reportFlags) write(stdout io.Writer, format report.Format, csv func(io.Writer) error, title string, diagram func() string) error {
	var err error
	switch format {
	case report.FormatPlot:
		err = report.WriteChart(f.outfile, stdout, title, diagram())
	default:
		err = report.WriteTo(f.outfile, stdout, csv)
	}
	if err != nil {
		return err
	}

	if f.open {
		return report.Open(f.outfile)
	}
	return nil
}
