// Package reshuffle decides whether a busy designer is a better fit than
// anyone free, and worth freeing up.
package reshuffle

import (
	"time"

	"github.com/SFZPL/tms-sub000/internal/domain/model"
)

// Suggest returns the unavailable designer most worth freeing for a task due
// at currentDeadline, or nil.
//
// A candidate must score strictly above the best available designer and be
// blocked by work whose own deadline falls on a strictly later calendar day
// than currentDeadline, in currentDeadline's location. A blocking commitment without a deadline never qualifies. Among
// candidates the highest score wins; equal scores go to the one listed first
// in unavailable.
//
// An empty unavailable partition yields nil. An empty available partition
// does not: the best available score is then 0, so any positive-scoring busy
// designer with slack is suggested.
//
// currentDuration is accepted for callers that want to weigh effort; the
// policy itself does not use it.
func Suggest(
	available []model.AvailableDesigner,
	unavailable []model.UnavailableDesigner,
	currentDeadline time.Time,
	currentDuration time.Duration,
) *model.ReshuffleSuggestion {
	if len(unavailable) == 0 {
		return nil
	}

	best := BestAvailableScore(available)

	var pick *model.UnavailableDesigner
	for i := range unavailable {
		u := &unavailable[i]
		if u.Score <= best || !HasSlack(u.Blocking, currentDeadline) {
			continue
		}
		if pick == nil || u.Score > pick.Score {
			pick = u
		}
	}
	if pick == nil {
		return nil
	}
	return &model.ReshuffleSuggestion{
		Candidate:          pick.ScoredDesigner,
		Blocking:           pick.Blocking,
		BestAvailableScore: best,
		CurrentDeadline:    currentDeadline,
	}
}

// BestAvailableScore is the highest score among available designers, or 0.
func BestAvailableScore(available []model.AvailableDesigner) float64 {
	var best float64
	for _, a := range available {
		if a.Score > best {
			best = a.Score
		}
	}
	return best
}

// HasSlack reports whether the blocking work is due on a later calendar day
// than currentDeadline.
func HasSlack(b model.Blocking, currentDeadline time.Time) bool {
	if b.Deadline == nil {
		return false
	}
	return !model.SameDayOrBefore(*b.Deadline, currentDeadline)
}
