package mcp

import (
	"bytes"
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"gl-analytics/internal/analytics"
	"gl-analytics/internal/eventlog"
	"gl-analytics/internal/report"
	"gl-analytics/internal/stats"
)

func (s *Server) handleCumulativeFlow(ctx context.Context, req *sdk.CallToolRequest, args CumulativeFlowArgs) (*sdk.CallToolResult, any, error) {
	q, err := s.query(args.Group, args.Milestone, "", args.Refresh)
	if err != nil {
		return nil, nil, err
	}

	days := args.Days
	if days == 0 {
		days = stats.DefaultDays
	}
	window, err := analytics.WindowFromArgs(days, args.Start, args.End)
	if err != nil {
		return nil, nil, err
	}

	log.Debug().Str("group", q.Group).Str("milestone", q.Milestone).Int("days", days).Msg("cumulative_flow called")
	table, err := s.svc.CumulativeFlow(ctx, analytics.Request{Query: q, Window: window, Stages: args.Stages})
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	if err := report.WriteOccupancyCSV(&buf, table); err != nil {
		return nil, nil, err
	}
	content := []sdk.Content{&sdk.TextContent{Text: buf.String()}}
	if args.Chart {
		chart := report.CumulativeFlowChart(table, analytics.ReportTitle("Cumulative flow", q))
		content = append(content, &sdk.TextContent{Text: report.Markdown(chart)})
	}
	return &sdk.CallToolResult{Content: content}, nil, nil
}

func (s *Server) handleLeadCycleTimes(ctx context.Context, req *sdk.CallToolRequest, args LeadCycleArgs) (*sdk.CallToolResult, any, error) {
	q, err := s.query(args.Group, args.Milestone, eventlog.StateClosed, args.Refresh)
	if err != nil {
		return nil, nil, err
	}

	log.Debug().Str("group", q.Group).Str("milestone", q.Milestone).Str("wip", args.WIPLabel).Msg("lead_cycle_times called")
	lc, err := s.svc.LeadCycleTimes(ctx, analytics.Request{Query: q, WIPLabel: args.WIPLabel, Stages: args.Stages})
	if err != nil {
		return nil, nil, err
	}

	var buf bytes.Buffer
	if err := report.WriteLeadCycleCSV(&buf, lc.WIPLabel(), lc.Records()); err != nil {
		return nil, nil, err
	}
	content := []sdk.Content{&sdk.TextContent{Text: buf.String()}}
	if args.Chart {
		chart := report.LeadCycleChart(lc.Records(), analytics.ReportTitle("Lead and cycle time", q))
		content = append(content, &sdk.TextContent{Text: report.Markdown(chart)})
	}
	return &sdk.CallToolResult{Content: content}, nil, nil
}
