package model

import "time"

// BlockReason explains why a designer landed in the unavailable partition.
type BlockReason string

const (
	BlockConflict            BlockReason = "conflict"
	BlockNoSlot              BlockReason = "no_slot"
	BlockNotFound            BlockReason = "not_found"
	BlockScheduleUnavailable BlockReason = "schedule_unavailable"
)

// Placeholder labels used when upstream data is incomplete.
const (
	UnknownWorkItem       = "Unknown"
	NotInSchedulingSystem = "not found in scheduling system"
	ScheduleLookupFailed  = "schedule lookup failed"
)

// Blocking describes what keeps an unavailable designer busy. Label and
// Deadline are always present in the output; Deadline is null when unknown.
type Blocking struct {
	Reason     BlockReason `json:"reason"`
	Label      string      `json:"label"`
	WorkItemID string      `json:"work_item_id,omitempty"`
	Deadline   *time.Time  `json:"deadline"`
}

// AvailableDesigner is a scored designer with an open slot before the deadline.
type AvailableDesigner struct {
	ScoredDesigner
	Slot Slot `json:"slot"`
}

// UnavailableDesigner is a scored designer with no open slot.
type UnavailableDesigner struct {
	ScoredDesigner
	Blocking Blocking `json:"blocking"`
}

// ReshuffleSuggestion proposes freeing a better-matching busy designer.
type ReshuffleSuggestion struct {
	Candidate          ScoredDesigner `json:"candidate"`
	Blocking           Blocking       `json:"blocking"`
	BestAvailableScore float64        `json:"best_available_score"`
	CurrentDeadline    time.Time      `json:"current_deadline"`
}

// DegradedReason says why default scores were used.
type DegradedReason string

const (
	DegradedNone              DegradedReason = ""
	DegradedPartialCoverage   DegradedReason = "partial_coverage"
	DegradedScorerUnavailable DegradedReason = "scorer_unavailable"
)

// Evaluation is the engine's answer for one task.
type Evaluation struct {
	ID             string                `json:"id"`
	EvaluatedAt    time.Time             `json:"evaluated_at"`
	Available      []AvailableDesigner   `json:"available"`
	Unavailable    []UnavailableDesigner `json:"unavailable"`
	Reshuffle      *ReshuffleSuggestion  `json:"reshuffle_suggestion"`
	Degraded       bool                  `json:"degraded"`
	DegradedReason DegradedReason        `json:"degraded_reason,omitempty"`
}

// Size returns the number of designers across both partitions.
func (e *Evaluation) Size() int {
	if e == nil {
		return 0
	}
	return len(e.Available) + len(e.Unavailable)
}
