package mcp

import (
	"context"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"gl-analytics/internal/analytics"
	"gl-analytics/internal/eventlog"
)

// Version is reported to clients during initialization.
var Version = "0.1.0"

// Server exposes the reports as MCP tools.
type Server struct {
	svc   *analytics.Service
	group string
}

// NewServer creates a new MCP server. defaultGroup is used when a call names no group.
func NewServer(svc *analytics.Service, defaultGroup string) *Server {
	return &Server{svc: svc, group: defaultGroup}
}

// MCPServer builds the protocol server with every tool registered.
func (s *Server) MCPServer() *sdk.Server {
	srv := sdk.NewServer(&sdk.Implementation{Name: "gl-analytics", Version: Version}, nil)
	s.registerTools(srv)
	return srv
}

// Serve runs the server over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	log.Info().Str("version", Version).Msg("Serving MCP over stdio")
	return s.MCPServer().Run(ctx, &sdk.StdioTransport{})
}

// query resolves the issue selection of a tool call.
func (s *Server) query(group, milestone, state string, refresh bool) (eventlog.Query, error) {
	if group == "" {
		group = s.group
	}
	if group == "" {
		return eventlog.Query{}, fmt.Errorf("group is required, pass it or set GITLAB_GROUP")
	}
	if milestone == "" {
		return eventlog.Query{}, fmt.Errorf("milestone is required")
	}

	q := eventlog.Query{Group: group, Milestone: milestone, State: state}
	if refresh {
		if err := s.svc.Refresh(q); err != nil {
			return q, fmt.Errorf("failed to refresh cache: %w", err)
		}
	}
	return q, nil
}

func inputSchema[T any]() *jsonschema.Schema {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		panic(fmt.Sprintf("input schema for %T: %v", *new(T), err))
	}
	for _, name := range []string{"start", "end"} {
		if p, ok := schema.Properties[name]; ok {
			p.Format = "date"
		}
	}
	return schema
}
