package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/SFZPL/tms-sub000/internal/config"
	"github.com/SFZPL/tms-sub000/internal/domain/model"
)

// TaskRequest is the wire form of a task shared by the HTTP, MCP and CLI
// surfaces. Roster is optional; when empty the configured roster source is
// used.
type TaskRequest struct {
	Description    string                  `json:"description"`
	DurationHours  float64                 `json:"duration_hours,omitempty"`
	DesignUnits    int                     `json:"design_units,omitempty"`
	Deadline       string                  `json:"deadline,omitempty"`
	TargetLanguage string                  `json:"target_language,omitempty"`
	Category       model.ServiceCategory   `json:"category"`
	Roster         []model.DesignerProfile `json:"roster,omitempty"`
}

// Defaults fill in what a TaskRequest leaves out.
type Defaults struct {
	Duration       time.Duration
	DeadlineWindow time.Duration
}

// DefaultsFromConfig reads request defaults from cfg.
func DefaultsFromConfig(cfg *config.Config) Defaults {
	return Defaults{
		Duration:       model.DurationFromHours(cfg.DefaultDurationHours),
		DeadlineWindow: time.Duration(cfg.DefaultDeadlineDays) * 24 * time.Hour,
	}
}

// Task converts r to a TaskRequirement. An explicit duration wins over
// design units; a missing deadline is now plus the default window. Deadlines
// are RFC3339 timestamps or plain dates, which are read as midnight UTC.
func (r TaskRequest) Task(now time.Time, d Defaults) (model.TaskRequirement, error) {
	task := model.TaskRequirement{
		Description:    strings.TrimSpace(r.Description),
		TargetLanguage: strings.TrimSpace(r.TargetLanguage),
		Category:       r.Category,
	}

	switch {
	case r.DurationHours != 0:
		task.Duration = model.DurationFromHours(r.DurationHours)
	case r.DesignUnits > 0:
		task.Duration = model.EstimateDuration(r.DesignUnits)
	case d.Duration > 0:
		task.Duration = d.Duration
	default:
		task.Duration = model.DefaultTaskDuration
	}

	deadline, err := parseDeadline(r.Deadline)
	if err != nil {
		return model.TaskRequirement{}, err
	}
	if deadline.IsZero() {
		deadline = now.Add(d.DeadlineWindow)
	}
	task.Deadline = deadline
	return task, nil
}

func parseDeadline(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%w: deadline %q must be RFC3339 or YYYY-MM-DD", model.ErrInvalidTask, s)
}

// EvaluateRequest converts r with the service's defaults and evaluates it,
// against r.Roster when given and the roster source otherwise. The converted
// task is returned alongside for rendering.
func (s *Service) EvaluateRequest(ctx context.Context, r TaskRequest) (model.TaskRequirement, *model.Evaluation, error) {
	task, err := r.Task(s.now(), s.defaults)
	if err != nil {
		s.rejected.Add(1)
		return model.TaskRequirement{}, nil, err
	}
	var eval *model.Evaluation
	if len(r.Roster) > 0 {
		eval, err = s.Evaluate(ctx, task, r.Roster)
	} else {
		eval, err = s.EvaluateFromSource(ctx, task)
	}
	return task, eval, err
}
