package service_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	service "github.com/SFZPL/tms-sub000/internal/app"
	"github.com/SFZPL/tms-sub000/internal/config"
	"github.com/SFZPL/tms-sub000/internal/domain/model"
)

func TestTaskRequest_Task(t *testing.T) {
	defaults := service.DefaultsFromConfig(config.New())

	Convey("Given the configured defaults", t, func() {
		So(defaults.Duration, ShouldEqual, 8*time.Hour)
		So(defaults.DeadlineWindow, ShouldEqual, 7*24*time.Hour)
	})

	Convey("Given a request with only a description", t, func() {
		task, err := service.TaskRequest{Description: "  Poster  "}.Task(now, defaults)

		Convey("Then duration and deadline come from the defaults", func() {
			So(err, ShouldBeNil)
			So(task.Description, ShouldEqual, "Poster")
			So(task.Duration, ShouldEqual, 8*time.Hour)
			So(task.Deadline, ShouldEqual, now.Add(7*24*time.Hour))
			So(task.Category.State(), ShouldEqual, model.CategoryUnset)
		})
	})

	Convey("Given both hours and design units", t, func() {
		task, err := service.TaskRequest{DurationHours: 1.5, DesignUnits: 10}.Task(now, defaults)

		Convey("Then explicit hours win", func() {
			So(err, ShouldBeNil)
			So(task.Duration, ShouldEqual, 90*time.Minute)
		})
	})

	Convey("Given design units only", t, func() {
		one, _ := service.TaskRequest{DesignUnits: 1}.Task(now, defaults)
		five, _ := service.TaskRequest{DesignUnits: 5}.Task(now, defaults)

		Convey("Then two hours per unit are estimated with a four hour floor", func() {
			So(one.Duration, ShouldEqual, 4*time.Hour)
			So(five.Duration, ShouldEqual, 10*time.Hour)
		})
	})

	Convey("Given deadlines in the accepted formats", t, func() {
		stamp, err := service.TaskRequest{Deadline: "2026-03-05T17:30:00+03:00"}.Task(now, defaults)
		So(err, ShouldBeNil)
		So(stamp.Deadline, ShouldEqual, time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC))

		date, err := service.TaskRequest{Deadline: "2026-03-05"}.Task(now, defaults)
		So(err, ShouldBeNil)
		So(date.Deadline, ShouldEqual, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC))
	})

	Convey("Given an unparseable deadline", t, func() {
		_, err := service.TaskRequest{Deadline: "next week"}.Task(now, defaults)

		Convey("Then the task is rejected as invalid", func() {
			So(errors.Is(err, model.ErrInvalidTask), ShouldBeTrue)
		})
	})

	Convey("Given a request decoded from JSON", t, func() {
		var r service.TaskRequest
		err := json.Unmarshal([]byte(`{
			"description": "Infographic",
			"category": {"id": 4, "label": "Infographic"},
			"target_language": "Arabic",
			"roster": [{"name": "Lina Haddad", "tools": ["Illustrator"]}]
		}`), &r)
		So(err, ShouldBeNil)
		task, err := r.Task(now, defaults)

		Convey("Then every field carries over", func() {
			So(err, ShouldBeNil)
			So(task.Category.Display(), ShouldEqual, "Infographic")
			So(task.TargetLanguage, ShouldEqual, "Arabic")
			So(r.Roster[0].Tools, ShouldResemble, []string{"Illustrator"})
		})
	})
}
