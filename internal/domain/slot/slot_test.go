package slot_test

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/SFZPL/tms-sub000/internal/domain/model"
	"github.com/SFZPL/tms-sub000/internal/domain/slot"
	. "github.com/smartystreets/goconvey/convey"
)

var base = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func at(h int) time.Time { return base.Add(time.Duration(h) * time.Hour) }

func busy(from, to int) model.Commitment {
	return model.Commitment{Start: at(from), End: at(to), WorkItemName: "busy"}
}

func TestFind(t *testing.T) {
	Convey("Given an empty timeline", t, func() {
		Convey("When the window fits the duration", func() {
			s, ok := slot.Find(nil, 4*time.Hour, at(48), base)

			Convey("Then the slot starts now", func() {
				So(ok, ShouldBeTrue)
				So(s.From, ShouldEqual, base)
				So(s.Until, ShouldEqual, at(4))
			})
		})

		Convey("When the duration is longer than the window", func() {
			_, ok := slot.Find(nil, 5*time.Hour, at(4), base)
			So(ok, ShouldBeFalse)
		})

		Convey("When the deadline has already passed", func() {
			_, ok := slot.Find(nil, time.Hour, at(-1), base)
			So(ok, ShouldBeFalse)
		})

		Convey("When the duration is not positive", func() {
			_, ok := slot.Find(nil, 0, at(10), base)
			So(ok, ShouldBeFalse)
		})
	})

	Convey("Given now with seconds", t, func() {
		now := base.Add(90 * time.Second)
		s, ok := slot.Find(nil, time.Hour, at(5), now)

		Convey("Then the slot starts on the floored minute", func() {
			So(ok, ShouldBeTrue)
			So(s.From, ShouldEqual, base.Add(time.Minute))
		})
	})

	Convey("Given unsorted commitments", t, func() {
		commitments := []model.Commitment{busy(3, 6), busy(0, 2), busy(7, 9)}

		Convey("When the first gap is too short", func() {
			s, ok := slot.Find(commitments, 2*time.Hour, at(20), base)

			Convey("Then the tail gap is used", func() {
				So(ok, ShouldBeTrue)
				So(s.From, ShouldEqual, at(9))
				So(s.Until, ShouldEqual, at(11))
			})

			Convey("And the input order is untouched", func() {
				So(commitments[0].Start, ShouldEqual, at(3))
			})
		})

		Convey("When a one-hour gap is enough", func() {
			s, ok := slot.Find(commitments, time.Hour, at(20), base)
			So(ok, ShouldBeTrue)
			So(s.From, ShouldEqual, at(2))
		})
	})

	Convey("Given a commitment nested inside another", t, func() {
		commitments := []model.Commitment{busy(0, 10), busy(2, 4)}
		s, ok := slot.Find(commitments, time.Hour, at(12), base)

		Convey("Then the cursor keeps the latest end seen", func() {
			So(ok, ShouldBeTrue)
			So(s.From, ShouldEqual, at(10))
		})
	})

	Convey("Given a timeline booked through the deadline", t, func() {
		_, ok := slot.Find([]model.Commitment{busy(0, 60)}, 4*time.Hour, at(48), base)
		So(ok, ShouldBeFalse)
	})

	Convey("Given a gap that ends exactly at the deadline", t, func() {
		s, ok := slot.Find([]model.Commitment{busy(0, 6)}, 2*time.Hour, at(8), base)
		So(ok, ShouldBeTrue)
		So(s.Until, ShouldEqual, at(8))
	})
}

func TestGaps(t *testing.T) {
	Convey("Given commitments straddling the deadline", t, func() {
		gaps := slot.Gaps([]model.Commitment{busy(1, 2), busy(4, 9)}, at(6), base)

		So(gaps, ShouldResemble, []model.Slot{
			{From: at(0), Until: at(1)},
			{From: at(2), Until: at(4)},
		})
	})
}

// earliest enumerates every whole-hour start and returns the first one whose
// interval overlaps nothing. All synthetic boundaries are whole hours, so the
// earliest valid start is always one of them.
func earliest(commitments []model.Commitment, d int, deadline int) (int, bool) {
	for s := 0; s+d <= deadline; s++ {
		if !overlaps(commitments, at(s), at(s+d)) {
			return s, true
		}
	}
	return 0, false
}

func overlaps(commitments []model.Commitment, from, until time.Time) bool {
	for _, c := range commitments {
		if from.Before(c.End) && c.Start.Before(until) {
			return true
		}
	}
	return false
}

func TestFindMatchesExhaustiveSearch(t *testing.T) {
	Convey("Given random small timelines", t, func() {
		rng := rand.New(rand.NewPCG(7, 11))

		for i := 0; i < 2000; i++ {
			var commitments []model.Commitment
			for n := rng.IntN(5); n > 0; n-- {
				start := rng.IntN(12) - 2
				commitments = append(commitments, busy(start, start+1+rng.IntN(4)))
			}
			d := 1 + rng.IntN(4)
			deadline := rng.IntN(14) - 1

			s, ok := slot.Find(commitments, time.Duration(d)*time.Hour, at(deadline), base)
			want, wantOK := earliest(commitments, d, deadline)

			So(ok, ShouldEqual, wantOK)
			if !ok {
				continue
			}
			So(s.From, ShouldEqual, at(want))
			So(s.Until.Sub(s.From), ShouldEqual, time.Duration(d)*time.Hour)
			So(s.Until.After(at(deadline)), ShouldBeFalse)
			So(s.From.Before(base), ShouldBeFalse)
			So(overlaps(commitments, s.From, s.Until), ShouldBeFalse)
		}
	})
}
