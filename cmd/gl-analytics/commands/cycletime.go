package commands

import (
	"io"

	"github.com/spf13/cobra"

	"gl-analytics/internal/analytics"
	"gl-analytics/internal/eventlog"
	"gl-analytics/internal/report"
)

var (
	cycleFlags reportFlags
	wipLabel   string
)

var cycleCmd = &cobra.Command{
	Use:     "cycletime",
	Aliases: []string{"cy"},
	Short:   "Lead and cycle time of every issue in business days",
	Long: `Reports, per issue, the lead time from opening to the last close and the cycle time from
the first work-in-progress label to the first close. Weekends are not counted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newService()

		q, format, err := cycleFlags.prepare(svc)
		if err != nil {
			return err
		}

		lc, err := svc.LeadCycleTimes(cmd.Context(), analytics.Request{
			Query:    q,
			Stages:   analytics.SplitStages(cycleFlags.stages),
			WIPLabel: wipLabel,
		})
		if err != nil {
			return err
		}

		records := lc.Records()
		title := analytics.ReportTitle("Lead and cycle time", q)
		return cycleFlags.write(cmd.OutOrStdout(), format,
			func(w io.Writer) error { return report.WriteLeadCycleCSV(w, lc.WIPLabel(), records) },
			title,
			func() string { return report.LeadCycleChart(records, title) },
		)
	},
}

func init() {
	cycleFlags.register(cycleCmd)
	cycleFlags.state = eventlog.StateClosed
	cycleCmd.Flags().StringVar(&wipLabel, "wip-label", "", "label marking the start of cycle time (defaults to the workflow profile)")
	rootCmd.AddCommand(cycleCmd)
}
