package mcp

import (
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// CumulativeFlowArgs are the arguments of the cumulative_flow tool.
type CumulativeFlowArgs struct {
	Group     string   `json:"group,omitempty" jsonschema:"GitLab group path, defaults to the configured group"`
	Milestone string   `json:"milestone" jsonschema:"Milestone title whose issues are analysed"`
	Days      int      `json:"days,omitempty" jsonschema:"Number of days in the window, 30 when omitted"`
	Start     string   `json:"start,omitempty" jsonschema:"First day of the window (YYYY-MM-DD)"`
	End       string   `json:"end,omitempty" jsonschema:"Last day of the window (YYYY-MM-DD), today when omitted"`
	Stages    []string `json:"stages,omitempty" jsonschema:"Stage labels in column order, the workflow profile when omitted"`
	Chart     bool     `json:"chart,omitempty" jsonschema:"Also return a Mermaid chart"`
	Refresh   bool     `json:"refresh,omitempty" jsonschema:"Ignore cached issues and refetch from GitLab"`
}

// LeadCycleArgs are the arguments of the lead_cycle_times tool.
type LeadCycleArgs struct {
	Group     string   `json:"group,omitempty" jsonschema:"GitLab group path, defaults to the configured group"`
	Milestone string   `json:"milestone" jsonschema:"Milestone title whose issues are analysed"`
	WIPLabel  string   `json:"wip_label,omitempty" jsonschema:"Label marking the start of cycle time, the workflow profile when omitted"`
	Stages    []string `json:"stages,omitempty" jsonschema:"Stage order used to pick a fallback cycle start"`
	Chart     bool     `json:"chart,omitempty" jsonschema:"Also return a Mermaid chart"`
	Refresh   bool     `json:"refresh,omitempty" jsonschema:"Ignore cached issues and refetch from GitLab"`
}

func (s *Server) registerTools(srv *sdk.Server) {
	sdk.AddTool(srv, &sdk.Tool{
		Name: "cumulative_flow",
		Description: "Count, for every day of a window, how many issues of a milestone sat in each workflow stage. " +
			"Returns CSV with one row per day and one column per stage. Use it to spot bottlenecks and growing queues.",
		InputSchema: inputSchema[CumulativeFlowArgs](),
	}, s.handleCumulativeFlow)

	sdk.AddTool(srv, &sdk.Tool{
		Name: "lead_cycle_times",
		Description: "Compute per-issue lead time (opened to last close) and cycle time (work started to first close) " +
			"in business days for the closed issues of a milestone. Returns CSV with one row per issue.",
		InputSchema: inputSchema[LeadCycleArgs](),
	}, s.handleLeadCycleTimes)
}
