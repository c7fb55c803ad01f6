// Package tools exposes the career flows as MCP tools.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jonathan/career-compass/internal/careers"
	"github.com/jonathan/career-compass/internal/flow"
)

const (
	serverName    = "career-compass"
	serverVersion = "1.0.0"

	// RoadmapsURI is the resource listing the featured roadmaps.
	RoadmapsURI = "careers://roadmaps"

	genericFailure = "Something went wrong. Please try again."
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Flows   *flow.Registry
	Invoker flow.Invoker
	Catalog *careers.Catalog // optional; without it the roadmap tools are not registered
	Logger  *slog.Logger
}

func (d MCPDeps) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

// NewMCPServer creates an MCP server with one tool per flow. Each tool takes the
// flow's input schema as its argument schema and returns the flow output as JSON text.
func NewMCPServer(deps MCPDeps) (*server.MCPServer, error) {
	if deps.Flows == nil {
		return nil, fmt.Errorf("flow registry is required")
	}
	if deps.Invoker == nil {
		return nil, fmt.Errorf("invoker is required")
	}
	s := server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("career-compass: career guidance flows for goals, roadmaps, resumes, networking and job search."),
		server.WithRecovery(),
	)

	for _, runner := range deps.Flows.List() {
		s.AddTool(
			mcp.NewToolWithRawSchema(runner.Name(), runner.Description(), runner.InputSchema()),
			flowTool(deps, runner.Name()),
		)
	}

	if deps.Catalog != nil {
		s.AddTool(
			mcp.NewTool("search-roadmaps",
				mcp.WithDescription("Search the featured career roadmaps by title or description."),
				mcp.WithString("query", mcp.Description("Search text, for example \"data\""), mcp.Required()),
				mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 10)")),
			),
			searchRoadmaps(deps),
		)
		s.AddResource(
			mcp.NewResource(
				RoadmapsURI,
				"Featured Roadmaps",
				mcp.WithResourceDescription("The featured career roadmaps as JSON"),
				mcp.WithMIMEType("application/json"),
			),
			roadmapsResource(deps),
		)
	}

	return s, nil
}

// ServeStdio runs the server over the given streams, normally stdin and stdout,
// until ctx is done or in is closed.
func ServeStdio(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer, logger *slog.Logger) error {
	stdio := server.NewStdioServer(s)
	if logger != nil {
		stdio.SetErrorLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))
	}
	err := stdio.Listen(ctx, in, out)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp stdio server: %w", err)
	}
	return nil
}

func flowTool(deps MCPDeps, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.GetArguments()
		if args == nil {
			args = map[string]any{}
		}
		input, err := json.Marshal(args)
		if err != nil {
			return mcpError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		out, err := deps.Flows.Run(ctx, deps.Invoker, name, input)
		if err != nil {
			return flowError(deps.logger(), name, err), nil
		}
		return mcpText(string(out)), nil
	}
}

// flowError turns a flow failure into a tool error. Input problems are reported
// in full; model failures all read the same.
func flowError(logger *slog.Logger, name string, err error) *mcp.CallToolResult {
	var ve *flow.ValidationError
	if errors.As(err, &ve) {
		msg := ve.Message
		if msg == "" {
			msg = "invalid input"
		}
		for _, f := range ve.Fields {
			msg += fmt.Sprintf("\n- %s: %s", f.Field, f.Message)
		}
		return mcpError(msg)
	}

	logger.Warn("mcp flow failed", "flow", name, "kind", flow.KindOf(err), "error", err)
	return mcpError(genericFailure)
}

func searchRoadmaps(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil || strings.TrimSpace(query) == "" {
			return mcpError("query is required"), nil
		}

		limit := req.GetInt("limit", 10)
		if limit <= 0 {
			limit = 10
		}
		if limit > 50 {
			limit = 50
		}

		found, err := deps.Catalog.Search(query, limit)
		if err != nil {
			deps.logger().Error("roadmap search failed", "error", err)
			return mcpError(genericFailure), nil
		}
		if found == nil {
			found = []careers.Roadmap{}
		}

		b, err := json.Marshal(found)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func roadmapsResource(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		b, err := json.Marshal(deps.Catalog.List())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal roadmaps: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
