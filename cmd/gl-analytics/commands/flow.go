package commands

import (
	"io"

	"github.com/spf13/cobra"

	"gl-analytics/internal/analytics"
	"gl-analytics/internal/report"
	"gl-analytics/internal/stats"
)

var (
	flowFlags reportFlags
	flowDays  int
	flowStart string
	flowEnd   string
)

var flowCmd = &cobra.Command{
	Use:     "cumulativeflow",
	Aliases: []string{"cf", "flow"},
	Short:   "Daily count of issues in each workflow stage",
	Long: `Counts, for every day of the window, how many issues of the milestone sat in each stage.
The window ends today and spans --days days unless --start or --end pin it.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc := newService()

		window, err := analytics.WindowFromArgs(flowDays, flowStart, flowEnd)
		if err != nil {
			return err
		}
		q, format, err := flowFlags.prepare(svc)
		if err != nil {
			return err
		}

		table, err := svc.CumulativeFlow(cmd.Context(), analytics.Request{
			Query:  q,
			Window: window,
			Stages: analytics.SplitStages(flowFlags.stages),
		})
		if err != nil {
			return err
		}

		title := analytics.ReportTitle("Cumulative flow", q)
		return flowFlags.write(cmd.OutOrStdout(), format,
			func(w io.Writer) error { return report.WriteOccupancyCSV(w, table) },
			title,
			func() string { return report.CumulativeFlowChart(table, title) },
		)
	},
}

func init() {
	flowFlags.register(flowCmd)
	flowCmd.Flags().IntVar(&flowDays, "days", stats.DefaultDays, "number of days in the window")
	flowCmd.Flags().StringVar(&flowStart, "start", "", "first day of the window (YYYY-MM-DD)")
	flowCmd.Flags().StringVar(&flowEnd, "end", "", "last day of the window (YYYY-MM-DD), today when omitted")
	rootCmd.AddCommand(flowCmd)
}
