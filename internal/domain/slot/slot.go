// Package slot finds the earliest open interval in a designer's timeline.
package slot

import (
	"slices"
	"time"

	"github.com/SFZPL/tms-sub000/internal/domain/model"
)

// Find returns the earliest interval of length duration that starts at or
// after now, ends at or before deadline, and overlaps none of commitments.
//
// Commitments may arrive in any order; a stable copy sorted by start is
// walked so the caller's slice is never mutated. now is floored to the
// minute. The second return value is false when no such interval exists,
// including for a non-positive duration or a deadline before now.
func Find(commitments []model.Commitment, duration time.Duration, deadline, now time.Time) (model.Slot, bool) {
	if duration <= 0 {
		return model.Slot{}, false
	}
	now = now.Truncate(time.Minute)
	if deadline.Before(now) {
		return model.Slot{}, false
	}
	latestStart := deadline.Add(-duration)
	if latestStart.Before(now) {
		return model.Slot{}, false
	}

	sorted := slices.Clone(commitments)
	slices.SortStableFunc(sorted, func(a, b model.Commitment) int {
		return a.Start.Compare(b.Start)
	})

	cursor := now
	for _, c := range sorted {
		if cursor.After(latestStart) {
			return model.Slot{}, false
		}
		if c.Start.Sub(cursor) >= duration {
			return model.Slot{From: cursor, Until: cursor.Add(duration)}, true
		}
		if c.End.After(cursor) {
			cursor = c.End
		}
	}

	if !cursor.After(latestStart) {
		return model.Slot{From: cursor, Until: cursor.Add(duration)}, true
	}
	return model.Slot{}, false
}

// Gaps lists every open interval between now and deadline, in order. It is
// the brute-force counterpart of Find and is used by reports and tests.
func Gaps(commitments []model.Commitment, deadline, now time.Time) []model.Slot {
	now = now.Truncate(time.Minute)
	if !deadline.After(now) {
		return nil
	}
	sorted := slices.Clone(commitments)
	slices.SortStableFunc(sorted, func(a, b model.Commitment) int {
		return a.Start.Compare(b.Start)
	})

	var gaps []model.Slot
	cursor := now
	for _, c := range sorted {
		if !cursor.Before(deadline) {
			return gaps
		}
		end := c.Start
		if end.After(deadline) {
			end = deadline
		}
		if end.After(cursor) {
			gaps = append(gaps, model.Slot{From: cursor, Until: end})
		}
		if c.End.After(cursor) {
			cursor = c.End
		}
	}
	if cursor.Before(deadline) {
		gaps = append(gaps, model.Slot{From: cursor, Until: deadline})
	}
	return gaps
}
