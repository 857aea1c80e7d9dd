package model_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	model "github.com/SFZPL/tms-sub000/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestNormalizeName(t *testing.T) {
	convey.Convey("Given designer names from different sources", t, func() {
		convey.So(model.NormalizeName("  Sara  AL-Hassan "), convey.ShouldEqual, "sara alhassan")
		convey.So(model.NormalizeName("Zoë\tMüller"), convey.ShouldEqual, "zoë müller")
		convey.So(model.NormalizeName("J. R. Smith"), convey.ShouldEqual, "j r smith")
		convey.So(model.NormalizeName(""), convey.ShouldEqual, "")
	})

	convey.Convey("Given a profile without an ID", t, func() {
		p := model.DesignerProfile{Name: "Lina Haddad"}

		convey.Convey("Then its key falls back to the normalized name", func() {
			convey.So(p.Key(), convey.ShouldEqual, "lina haddad")
		})
	})
}

func TestTaskValidate(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	convey.Convey("Given task requirements", t, func() {
		convey.Convey("When duration is not positive", func() {
			err := model.TaskRequirement{Duration: 0, Deadline: now.Add(time.Hour)}.Validate(now)

			convey.Convey("Then it is rejected as an invalid task", func() {
				convey.So(errors.Is(err, model.ErrInvalidDuration), convey.ShouldBeTrue)
				convey.So(errors.Is(err, model.ErrInvalidTask), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the deadline has passed", func() {
			err := model.TaskRequirement{Duration: time.Hour, Deadline: now}.Validate(now)

			convey.Convey("Then it is rejected", func() {
				convey.So(errors.Is(err, model.ErrDeadlinePassed), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the task is well formed", func() {
			err := model.TaskRequirement{Duration: time.Hour, Deadline: now.Add(48 * time.Hour)}.Validate(now)
			convey.So(err, convey.ShouldBeNil)
		})
	})
}

func TestEstimateDuration(t *testing.T) {
	convey.Convey("Given design unit counts", t, func() {
		convey.So(model.EstimateDuration(0), convey.ShouldEqual, 8*time.Hour)
		convey.So(model.EstimateDuration(1), convey.ShouldEqual, 4*time.Hour)
		convey.So(model.EstimateDuration(2), convey.ShouldEqual, 4*time.Hour)
		convey.So(model.EstimateDuration(5), convey.ShouldEqual, 10*time.Hour)
		convey.So(model.DurationFromHours(1.5), convey.ShouldEqual, 90*time.Minute)
	})
}

func TestServiceCategory(t *testing.T) {
	convey.Convey("Given the three category variants", t, func() {
		convey.So(model.UnsetCategory().Display(), convey.ShouldEqual, "Not specified")
		convey.So(model.KnownCategory(4, "Infographic").Display(), convey.ShouldEqual, "Infographic")
		convey.So(model.InvalidCategory("???").Display(), convey.ShouldEqual, "??? (unrecognized)")

		id, label, ok := model.KnownCategory(4, "Infographic").Known()
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(id, convey.ShouldEqual, 4)
		convey.So(label, convey.ShouldEqual, "Infographic")

		_, _, ok = model.InvalidCategory("x").Known()
		convey.So(ok, convey.ShouldBeFalse)
	})

	convey.Convey("Given JSON category payloads", t, func() {
		cases := map[string]model.CategoryState{
			`null`:                           model.CategoryUnset,
			`""`:                             model.CategoryUnset,
			`"Motion"`:                       model.CategoryInvalid,
			`{"id": 2, "label": "Motion"}`:   model.CategoryKnown,
			`{"raw": "mystery"}`:             model.CategoryInvalid,
			`{}`:                             model.CategoryUnset,
		}
		for payload, want := range cases {
			var c model.ServiceCategory
			err := json.Unmarshal([]byte(payload), &c)
			convey.So(err, convey.ShouldBeNil)
			convey.So(c.State(), convey.ShouldEqual, want)
		}

		convey.Convey("Then a known category survives a round trip", func() {
			data, err := json.Marshal(model.KnownCategory(2, "Motion"))
			convey.So(err, convey.ShouldBeNil)
			var back model.ServiceCategory
			convey.So(json.Unmarshal(data, &back), convey.ShouldBeNil)
			convey.So(back, convey.ShouldResemble, model.KnownCategory(2, "Motion"))
		})
	})
}

func TestCommitmentCovers(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	c := model.Commitment{Start: start, End: start.Add(4 * time.Hour)}

	convey.Convey("Given a commitment", t, func() {
		convey.So(c.Covers(start), convey.ShouldBeTrue)
		convey.So(c.Covers(start.Add(4*time.Hour)), convey.ShouldBeTrue)
		convey.So(c.Covers(start.Add(-time.Minute)), convey.ShouldBeFalse)
		convey.So(c.Covers(start.Add(5*time.Hour)), convey.ShouldBeFalse)
	})

	convey.Convey("Given two instants on the same day", t, func() {
		morning := time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC)
		evening := time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC)
		convey.So(model.SameDayOrBefore(evening, morning), convey.ShouldBeTrue)
		convey.So(model.SameDayOrBefore(evening.Add(2*time.Hour), morning), convey.ShouldBeFalse)
	})
}
