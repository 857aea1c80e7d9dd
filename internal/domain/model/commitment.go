package model

import "time"

// Commitment is a half-open interval [Start, End) during which a designer is
// occupied by another work item.
type Commitment struct {
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	WorkItemID   string    `json:"work_item_id,omitempty"`
	WorkItemName string    `json:"work_item_name,omitempty"`
	// Deadline of the occupying work item. Day-granular; nil when unknown.
	Deadline *time.Time `json:"deadline,omitempty"`
}

// Covers reports whether t lies within [Start, End], inclusive on both ends.
func (c Commitment) Covers(t time.Time) bool {
	return !t.Before(c.Start) && !t.After(c.End)
}

// Slot is an open interval a designer can take the task in.
type Slot struct {
	From  time.Time `json:"from"`
	Until time.Time `json:"until"`
}

// SameDayOrBefore reports whether a falls on or before b's calendar day,
// evaluated in b's location.
func SameDayOrBefore(a, b time.Time) bool {
	return !DayOf(a, b.Location()).After(DayOf(b, b.Location()))
}

// DayOf truncates t to midnight of its calendar day in loc.
func DayOf(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
