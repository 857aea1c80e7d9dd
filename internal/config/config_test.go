package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/SFZPL/tms-sub000/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*2)
			convey.So(cfg.ScorerProvider, convey.ShouldEqual, config.ScorerHeuristic)
			convey.So(cfg.ScorerMaxAttempts, convey.ShouldEqual, 3)
			convey.So(cfg.ScorerBackoff(), convey.ShouldEqual, 7*time.Second)
			convey.So(cfg.RepositoryBackoff(), convey.ShouldEqual, 500*time.Millisecond)
			convey.So(cfg.DefaultScore, convey.ShouldEqual, 50)
			convey.So(cfg.ScorerBudget(), convey.ShouldEqual, 74*time.Second)
			convey.So(cfg.ScorerBudget(), convey.ShouldBeLessThan, cfg.EvaluationTimeout())
			convey.So(cfg.MetricsEnabled, convey.ShouldBeTrue)
			convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "tms")
			convey.So(cfg.MetricsRefresh(), convey.ShouldEqual, 10*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the default deadline is a week out", func() {
			now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
			convey.So(cfg.DefaultDeadline(now), convey.ShouldEqual, now.AddDate(0, 0, 7))
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with invalid fields", t, func() {
		cases := []struct {
			name   string
			mutate func(*config.Config)
		}{
			{"empty addr", func(c *config.Config) { c.Addr = "" }},
			{"zero workers", func(c *config.Config) { c.WorkerCount = 0 }},
			{"zero attempts", func(c *config.Config) { c.ScorerMaxAttempts = 0 }},
			{"negative backoff", func(c *config.Config) { c.RepositoryBackoffMS = -1 }},
			{"score above range", func(c *config.Config) { c.DefaultScore = 101 }},
			{"zero duration", func(c *config.Config) { c.DefaultDurationHours = 0 }},
			{"zero deadline days", func(c *config.Config) { c.DefaultDeadlineDays = 0 }},
			{"negative evaluation timeout", func(c *config.Config) { c.EvaluationTimeoutMS = -1 }},
			{"scorer retries outlasting the evaluation", func(c *config.Config) { c.EvaluationTimeoutMS = 60_000 }},
			{"scorer retries exactly filling the evaluation", func(c *config.Config) { c.EvaluationTimeoutMS = 74_000 }},
			{"inverted latency", func(c *config.Config) { c.HeuristicLatencyMinMS, c.HeuristicLatencyMaxMS = 10, 5 }},
			{"zero metrics refresh", func(c *config.Config) { c.MetricsRefreshMS = 0 }},
			{"unknown provider", func(c *config.Config) { c.ScorerProvider = "oracle-of-delphi" }},
			{"genai without a key", func(c *config.Config) { c.ScorerProvider = config.ScorerGenAI }},
		}
		for _, tc := range cases {
			convey.Convey("When the config has "+tc.name, func() {
				cfg := config.New()
				tc.mutate(cfg)

				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})

	convey.Convey("Given no evaluation timeout", t, func() {
		cfg := config.New()
		cfg.EvaluationTimeoutMS = 0
		convey.So(cfg.Validate(), convey.ShouldBeNil)
	})

	convey.Convey("Given the genai provider with a key", t, func() {
		cfg := config.New()
		cfg.ScorerProvider = config.ScorerGenAI
		cfg.GenAIAPIKey = "test-key"
		convey.So(cfg.Validate(), convey.ShouldBeNil)
	})
}
