package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	service "github.com/SFZPL/tms-sub000/internal/app"
	"github.com/SFZPL/tms-sub000/internal/report"
	"github.com/SFZPL/tms-sub000/pkg/logger"
	"github.com/SFZPL/tms-sub000/pkg/metrics"
)

const maxRequestBytes = 1 << 20

// EvaluateHandler handles evaluation requests.
type EvaluateHandler struct {
	engine Evaluator
	log    logger.Logger
}

// NewEvaluateHandler creates a new evaluate handler.
func NewEvaluateHandler(engine Evaluator, log logger.Logger) *EvaluateHandler {
	if log == nil {
		log = logger.Nop()
	}
	return &EvaluateHandler{engine: engine, log: log}
}

// HandleEvaluate handles POST /evaluate requests. The response is the
// evaluation as JSON, or a Markdown brief when ?format=markdown is given.
func (h *EvaluateHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "api.evaluate"
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}

	var req service.TaskRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("%s: %w: %w", op, ErrBadRequest, err))
		return
	}

	task, eval, err := h.engine.EvaluateRequest(r.Context(), req)
	if err != nil {
		status, code := statusFor(err)
		if status >= http.StatusInternalServerError {
			metrics.RecordErrorByComponent("api", code)
			h.log.Error(r.Context(), "evaluation failed", logger.Error(err))
		}
		writeError(w, status, code, err)
		return
	}

	if r.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, report.Markdown(task, eval))
		return
	}
	writeJSON(w, http.StatusOK, eval)
}
