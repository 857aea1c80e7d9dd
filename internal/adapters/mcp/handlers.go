package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"

	service "github.com/SFZPL/tms-sub000/internal/app"
	"github.com/SFZPL/tms-sub000/internal/domain/model"
	"github.com/SFZPL/tms-sub000/internal/report"
	"github.com/SFZPL/tms-sub000/pkg/logger"
	"github.com/SFZPL/tms-sub000/pkg/metrics"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	engine Evaluator
	log    logger.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(engine Evaluator, log logger.Logger) *Handlers {
	if log == nil {
		log = logger.Nop()
	}
	return &Handlers{engine: engine, log: log}
}

// EvaluateRequest represents the arguments for designer_evaluate.
type EvaluateRequest struct {
	service.TaskRequest
	Format string `json:"format,omitempty"`
}

// HandleEvaluate handles the designer_evaluate tool call.
func (h *Handlers) HandleEvaluate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[EvaluateRequest](req)
	if err != nil {
		return errorResult("invalid_request", err.Error()), nil
	}

	task, eval, err := h.engine.EvaluateRequest(ctx, input.TaskRequest)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrInvalidTask):
		return errorResult("invalid_task", err.Error()), nil
	case errors.Is(err, service.ErrNoRosterSource):
		return errorResult("no_roster", "no roster given and none configured"), nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return errorResult("unavailable", "evaluation did not finish in time"), nil
	default:
		metrics.RecordErrorByComponent("mcp", "internal")
		h.log.Error(ctx, "designer_evaluate failed", logger.Error(err))
		return errorResult("internal", "an internal error occurred"), nil
	}

	if input.Format == "markdown" {
		return mcp.NewToolResultText(report.Markdown(task, eval)), nil
	}
	return mcp.NewToolResultJSON(eval)
}

// errorResult creates an MCP error result. IsError is set so clients treat
// it as a failed call.
func errorResult(code, message string) *mcp.CallToolResult {
	content, _ := json.Marshal(map[string]any{
		"error": map[string]any{"code": code, "message": message},
	})
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}
