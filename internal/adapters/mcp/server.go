// Package mcp exposes the assignment engine as a Model Context Protocol
// tool over stdio.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	service "github.com/SFZPL/tms-sub000/internal/app"
	"github.com/SFZPL/tms-sub000/internal/domain/model"
	"github.com/SFZPL/tms-sub000/pkg/logger"
)

// ToolEvaluate is the name of the evaluation tool.
const ToolEvaluate = "designer_evaluate"

// Evaluator is the engine operation the tool calls.
type Evaluator interface {
	EvaluateRequest(ctx context.Context, r service.TaskRequest) (model.TaskRequirement, *model.Evaluation, error)
}

var evaluateToolDef = mcp.NewTool(ToolEvaluate,
	mcp.WithDescription("Rank designers for a task by skill fit, split them by whether they "+
		"have a free slot before the deadline, and suggest a reshuffle when a busy designer "+
		"is a clearly better fit."),
	mcp.WithString("description", mcp.Required(),
		mcp.Description("What the task is about; used to judge skill fit.")),
	mcp.WithNumber("duration_hours",
		mcp.Description("Working hours the task needs. Takes precedence over design_units.")),
	mcp.WithNumber("design_units",
		mcp.Description("Number of design units; estimated at two hours each, four hours minimum.")),
	mcp.WithString("deadline",
		mcp.Description("RFC3339 timestamp or YYYY-MM-DD. Defaults to a week from now.")),
	mcp.WithString("target_language",
		mcp.Description("Language the deliverable is in.")),
	mcp.WithObject("category",
		mcp.Description("Service category, e.g. {\"id\": 4, \"label\": \"Infographic\"}.")),
	mcp.WithArray("roster",
		mcp.Description("Designers to consider. Defaults to the configured roster."),
		mcp.Items(map[string]any{
			"type": "object",
			"properties": map[string]any{
				"id":        map[string]any{"type": "string"},
				"name":      map[string]any{"type": "string"},
				"role":      map[string]any{"type": "string"},
				"tools":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"outputs":   map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				"languages": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"required": []string{"name"},
		})),
	mcp.WithString("format",
		mcp.Description("json (default) or markdown."),
		mcp.Enum("json", "markdown")),
)

// NewServer creates a new MCP server with the evaluation tool registered.
func NewServer(engine Evaluator, version string, log logger.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		"tms",
		version,
		server.WithToolCapabilities(true),
	)
	h := NewHandlers(engine, log)
	s.AddTool(evaluateToolDef, h.HandleEvaluate)
	return s
}

// Run serves the tool over stdio until stdin closes.
func Run(engine Evaluator, version string, log logger.Logger) error {
	return server.ServeStdio(NewServer(engine, version, log))
}
