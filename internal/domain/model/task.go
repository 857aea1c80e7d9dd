package model

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for rejected task preconditions.
var (
	ErrInvalidTask     = errors.New("invalid task")
	ErrInvalidDuration = fmt.Errorf("%w: duration must be positive", ErrInvalidTask)
	ErrDeadlinePassed  = fmt.Errorf("%w: deadline is not in the future", ErrInvalidTask)
)

// Duration heuristics used when a task carries design units instead of hours.
const (
	DefaultTaskDuration = 8 * time.Hour
	MinUnitDuration     = 4 * time.Hour
	HoursPerDesignUnit  = 2 * time.Hour
)

// TaskRequirement is what the caller asks the engine to place.
type TaskRequirement struct {
	Description    string
	Duration       time.Duration
	Deadline       time.Time
	TargetLanguage string
	Category       ServiceCategory
}

// Validate rejects tasks the engine cannot evaluate.
func (t TaskRequirement) Validate(now time.Time) error {
	if t.Duration <= 0 {
		return ErrInvalidDuration
	}
	if !t.Deadline.After(now) {
		return ErrDeadlinePassed
	}
	return nil
}

// EstimateDuration converts design units to working hours: two hours per
// unit with a four hour floor, or the default when no units are given.
func EstimateDuration(designUnits int) time.Duration {
	if designUnits <= 0 {
		return DefaultTaskDuration
	}
	d := time.Duration(designUnits) * HoursPerDesignUnit
	if d < MinUnitDuration {
		return MinUnitDuration
	}
	return d
}

// DurationFromHours converts fractional hours to a Duration.
func DurationFromHours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}
