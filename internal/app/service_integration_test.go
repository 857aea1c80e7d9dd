package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/SFZPL/tms-sub000/internal/adapters/repository"
	service "github.com/SFZPL/tms-sub000/internal/app"
	"github.com/SFZPL/tms-sub000/internal/config"
	"github.com/SFZPL/tms-sub000/internal/domain/model"
)

const rosterYAML = `
designers:
  - id: d-1
    name: Lina Haddad
    role: Motion Designer
    tools: [After Effects]
    outputs: [animation]
    languages: [Arabic]
  - id: d-2
    name: Omar Saleh
    role: Illustrator
    tools: [Illustrator]
    outputs: [print]
    languages: [English]
  - id: d-3
    name: Rana Aziz
    role: Brand Designer
    tools: [After Effects]
    languages: [English]
`

func buildEngine(t *testing.T, dbPath string) *service.Engine {
	engine, err := service.Build(context.Background(), engineConfig(t, dbPath), nil)
	if err != nil {
		t.Fatal(err)
	}
	return engine
}

func engineConfig(t *testing.T, dbPath string) *config.Config {
	dir := t.TempDir()
	rosterPath := filepath.Join(dir, "roster.yaml")
	if err := os.WriteFile(rosterPath, []byte(rosterYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := config.New()
	cfg.ScheduleDBPath = dbPath
	cfg.RosterPath = rosterPath
	cfg.WorkerCount = 2
	return cfg
}

func TestServiceIntegration(t *testing.T) {
	ctx := context.Background()
	start := time.Now()

	Convey("Given an engine on a SQLite schedule and a roster file", t, func() {
		engine := buildEngine(t, filepath.Join(t.TempDir(), "schedule.db"))
		defer func() { So(engine.Close(), ShouldBeNil) }()

		So(engine.Store.UpsertEmployee(ctx, repository.Employee{ID: "e-1", Name: "Lina Haddad"}), ShouldBeNil)
		So(engine.Store.UpsertEmployee(ctx, repository.Employee{ID: "e-3", Name: "Rana Aziz"}), ShouldBeNil)
		later := start.Add(10 * 24 * time.Hour)
		So(engine.Store.AddCommitment(ctx, "e-1", model.Commitment{
			Start:        start.Add(-time.Hour),
			End:          start.Add(96 * time.Hour),
			WorkItemID:   "T-204",
			WorkItemName: "Ramadan campaign key visual",
			Deadline:     &later,
		}), ShouldBeNil)

		Convey("When a motion task is evaluated against the configured roster", func() {
			eval, err := engine.EvaluateFromSource(ctx, model.TaskRequirement{
				Description: "Arabic motion graphics animation in After Effects",
				Duration:    4 * time.Hour,
				Deadline:    start.Add(48 * time.Hour),
			})
			So(err, ShouldBeNil)

			Convey("Then the heuristic ranks the free After Effects designer first", func() {
				So(eval.Available, ShouldHaveLength, 1)
				So(eval.Available[0].Designer.Name, ShouldEqual, "Rana Aziz")
				So(eval.Available[0].Score, ShouldEqual, 30)
			})

			Convey("And designers missing from the schedule are reported, not dropped", func() {
				So(eval.Unavailable, ShouldHaveLength, 2)
				So(eval.Unavailable[0].Designer.Name, ShouldEqual, "Lina Haddad")
				So(eval.Unavailable[0].Score, ShouldEqual, 80)
				So(eval.Unavailable[0].Blocking.Reason, ShouldEqual, model.BlockConflict)
				So(eval.Unavailable[1].Designer.Name, ShouldEqual, "Omar Saleh")
				So(eval.Unavailable[1].Blocking.Reason, ShouldEqual, model.BlockNotFound)
			})

			Convey("And the busy top match is proposed for a reshuffle", func() {
				So(eval.Reshuffle, ShouldNotBeNil)
				So(eval.Reshuffle.Candidate.Designer.Name, ShouldEqual, "Lina Haddad")
				So(eval.Reshuffle.Blocking.WorkItemID, ShouldEqual, "T-204")
				So(eval.Reshuffle.BestAvailableScore, ShouldEqual, 30)
			})
		})
	})

	Convey("Given an engine without a schedule database", t, func() {
		engine := buildEngine(t, "")
		defer engine.Close()

		Convey("Then the in-memory schedule is used and nobody resolves", func() {
			_, isMemory := engine.Store.(*repository.MemoryStore)
			So(isMemory, ShouldBeTrue)

			eval, err := engine.EvaluateFromSource(ctx, model.TaskRequirement{
				Description: "Print flyer",
				Duration:    time.Hour,
				Deadline:    start.Add(24 * time.Hour),
			})
			So(err, ShouldBeNil)
			So(eval.Available, ShouldBeEmpty)
			So(eval.Unavailable, ShouldHaveLength, 3)
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given one engine shared by many callers", t, func() {
		engine := buildEngine(t, "")
		defer engine.Close()
		ctx := context.Background()
		So(engine.Store.UpsertEmployee(ctx, repository.Employee{ID: "e-2", Name: "Omar Saleh"}), ShouldBeNil)

		const callers = 16
		var wg sync.WaitGroup
		results := make([]*model.Evaluation, callers)
		errs := make([]error, callers)
		for i := range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i], errs[i] = engine.EvaluateFromSource(ctx, model.TaskRequirement{
					Description: "Illustrator print poster",
					Duration:    2 * time.Hour,
					Deadline:    time.Now().Add(24 * time.Hour),
				})
			}()
		}
		wg.Wait()

		Convey("Then every call completes with the same partitions and a distinct ID", func() {
			ids := map[string]struct{}{}
			for i := range callers {
				So(errs[i], ShouldBeNil)
				So(results[i].Available, ShouldHaveLength, 1)
				So(results[i].Available[0].Designer.Name, ShouldEqual, "Omar Saleh")
				So(results[i].Unavailable, ShouldHaveLength, 2)
				ids[results[i].ID] = struct{}{}
			}
			So(len(ids), ShouldEqual, callers)
			So(engine.Stats()["evaluations"], ShouldEqual, callers)
		})
	})
}

func TestServiceScorerBudget(t *testing.T) {
	ctx := context.Background()

	Convey("Given scorer retries that do not fit the evaluation timeout", t, func() {
		cfg := engineConfig(t, "")
		cfg.EvaluationTimeoutMS = 60
		cfg.ScorerTimeoutMS = 20
		cfg.ScorerBackoffMS = 7

		_, err := service.Build(ctx, cfg, nil)

		Convey("Then the engine is not built", func() {
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})

	Convey("Given a scorer slower than every attempt allows", t, func() {
		cfg := engineConfig(t, "")
		cfg.EvaluationTimeoutMS = 2_000
		cfg.ScorerTimeoutMS = 20
		cfg.ScorerBackoffMS = 7
		cfg.HeuristicLatencyMinMS = 1_000
		cfg.HeuristicLatencyMaxMS = 1_000
		engine, err := service.Build(ctx, cfg, nil)
		So(err, ShouldBeNil)
		defer engine.Close()

		eval, err := engine.EvaluateFromSource(ctx, model.TaskRequirement{
			Description: "Print flyer",
			Duration:    time.Hour,
			Deadline:    time.Now().Add(24 * time.Hour),
		})

		Convey("Then every designer gets the neutral score and the result is degraded", func() {
			So(err, ShouldBeNil)
			So(eval.Degraded, ShouldBeTrue)
			So(eval.DegradedReason, ShouldEqual, model.DegradedScorerUnavailable)
			So(eval.Unavailable, ShouldHaveLength, 3)
			for _, u := range eval.Unavailable {
				So(u.Score, ShouldEqual, cfg.DefaultScore)
			}
		})
	})
}
