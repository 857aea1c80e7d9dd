// Package config defines engine configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Durations are configured in milliseconds and exposed through helpers.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Scorer providers.
const (
	ScorerHeuristic = "heuristic"
	ScorerGenAI     = "genai"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// WorkerCount bounds concurrent availability checks per evaluation.
	WorkerCount int `koanf:"worker_count"`

	// EvaluationTimeoutMS bounds one whole evaluation. It must leave room
	// for every scorer attempt and backoff; zero disables the bound.
	EvaluationTimeoutMS int `koanf:"evaluation_timeout_ms"`

	// ScorerProvider selects the skill oracle: heuristic or genai.
	ScorerProvider string `koanf:"scorer_provider"`
	GenAIAPIKey    string `koanf:"genai_api_key"`
	GenAIModel     string `koanf:"genai_model"`

	// Retry policy around skill oracle calls.
	ScorerMaxAttempts int `koanf:"scorer_max_attempts"`
	ScorerBackoffMS   int `koanf:"scorer_backoff_ms"`
	ScorerTimeoutMS   int `koanf:"scorer_timeout_ms"`

	// Retry policy around scheduling-system calls.
	RepositoryMaxAttempts int `koanf:"repository_max_attempts"`
	RepositoryBackoffMS   int `koanf:"repository_backoff_ms"`
	RepositoryTimeoutMS   int `koanf:"repository_timeout_ms"`

	// DefaultScore is the neutral score for designers the oracle did not score.
	DefaultScore float64 `koanf:"default_score"`

	// Wire-boundary defaults for requests that omit duration or deadline.
	DefaultDurationHours float64 `koanf:"default_duration_hours"`
	DefaultDeadlineDays  int     `koanf:"default_deadline_days"`

	// ScheduleDBPath is the SQLite schedule database.
	ScheduleDBPath string `koanf:"schedule_db_path"`

	// RosterPath is the YAML roster file; WatchRoster reloads it on change.
	RosterPath  string `koanf:"roster_path"`
	WatchRoster bool   `koanf:"watch_roster"`

	// AttributeWeights maps profile attributes (role, tools, outputs,
	// languages) to heuristic scoring weights.
	AttributeWeights       map[string]float64 `koanf:"attribute_weights"`
	DefaultAttributeWeight float64            `koanf:"default_attribute_weight"`

	// HeuristicLatencyMinMS and HeuristicLatencyMaxMS simulate oracle latency.
	HeuristicLatencyMinMS int `koanf:"heuristic_latency_min_ms"`
	HeuristicLatencyMaxMS int `koanf:"heuristic_latency_max_ms"`

	// Metrics. MetricsLabels are constant labels added to every series.
	MetricsEnabled   bool              `koanf:"metrics_enabled"`
	MetricsNamespace string            `koanf:"metrics_namespace"`
	MetricsLabels    map[string]string `koanf:"metrics_labels"`
	MetricsRefreshMS int               `koanf:"metrics_refresh_ms"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		WorkerCount:           runtime.NumCPU() * 2,
		EvaluationTimeoutMS:   90_000,
		ScorerProvider:        ScorerHeuristic,
		GenAIModel:            "gemini-2.0-flash",
		ScorerMaxAttempts:     3,
		ScorerBackoffMS:       7_000,
		ScorerTimeoutMS:       20_000,
		RepositoryMaxAttempts: 3,
		RepositoryBackoffMS:   500,
		RepositoryTimeoutMS:   5_000,
		DefaultScore:          50,
		DefaultDurationHours:  8,
		DefaultDeadlineDays:   7,
		ScheduleDBPath:        "data/schedule.db",
		RosterPath:            "roster.yaml",
		WatchRoster:           true,
		AttributeWeights: map[string]float64{
			"role":      20,
			"tools":     30,
			"outputs":   30,
			"languages": 20,
		},
		DefaultAttributeWeight: 25,
		MetricsEnabled:         true,
		MetricsNamespace:       "tms",
		MetricsRefreshMS:       10_000,
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.ScorerMaxAttempts <= 0 || c.RepositoryMaxAttempts <= 0:
		return fmt.Errorf("%w: max attempts must be positive", ErrInvalidConfig)
	case c.ScorerBackoffMS < 0 || c.RepositoryBackoffMS < 0:
		return fmt.Errorf("%w: backoff must not be negative", ErrInvalidConfig)
	case c.DefaultScore < 0 || c.DefaultScore > 100:
		return fmt.Errorf("%w: default_score must be within [0, 100]", ErrInvalidConfig)
	case c.DefaultDurationHours <= 0:
		return fmt.Errorf("%w: default_duration_hours must be positive", ErrInvalidConfig)
	case c.DefaultDeadlineDays <= 0:
		return fmt.Errorf("%w: default_deadline_days must be positive", ErrInvalidConfig)
	case c.EvaluationTimeoutMS < 0:
		return fmt.Errorf("%w: evaluation_timeout_ms must not be negative", ErrInvalidConfig)
	case c.EvaluationTimeoutMS > 0 && c.ScorerBudget() >= c.EvaluationTimeout():
		return fmt.Errorf("%w: scorer retries (%s) do not fit within evaluation_timeout_ms (%s)",
			ErrInvalidConfig, c.ScorerBudget(), c.EvaluationTimeout())
	case c.HeuristicLatencyMaxMS < c.HeuristicLatencyMinMS:
		return fmt.Errorf("%w: heuristic latency max below min", ErrInvalidConfig)
	case c.MetricsRefreshMS <= 0:
		return fmt.Errorf("%w: metrics_refresh_ms must be positive", ErrInvalidConfig)
	}
	switch c.ScorerProvider {
	case ScorerHeuristic:
	case ScorerGenAI:
		if c.GenAIAPIKey == "" {
			return fmt.Errorf("%w: genai_api_key is required for the genai scorer", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown scorer_provider %q", ErrInvalidConfig, c.ScorerProvider)
	}
	return nil
}

// EvaluationTimeout returns the bound for one evaluation.
func (c *Config) EvaluationTimeout() time.Duration { return ms(c.EvaluationTimeoutMS) }

// ScorerBackoff returns the wait between oracle attempts.
func (c *Config) ScorerBackoff() time.Duration { return ms(c.ScorerBackoffMS) }

// ScorerTimeout returns the bound for one oracle attempt.
func (c *Config) ScorerTimeout() time.Duration { return ms(c.ScorerTimeoutMS) }

// ScorerBudget returns the longest the scorer can take across all attempts
// and the waits between them.
func (c *Config) ScorerBudget() time.Duration {
	n := max(c.ScorerMaxAttempts, 1)
	return time.Duration(n)*c.ScorerTimeout() + time.Duration(n-1)*c.ScorerBackoff()
}

// RepositoryBackoff returns the wait between scheduling-system attempts.
func (c *Config) RepositoryBackoff() time.Duration { return ms(c.RepositoryBackoffMS) }

// RepositoryTimeout returns the bound for one scheduling-system attempt.
func (c *Config) RepositoryTimeout() time.Duration { return ms(c.RepositoryTimeoutMS) }

// HeuristicLatency returns the simulated oracle latency range.
func (c *Config) HeuristicLatency() (time.Duration, time.Duration) {
	return ms(c.HeuristicLatencyMinMS), ms(c.HeuristicLatencyMaxMS)
}

// MetricsRefresh returns how often system gauges are refreshed.
func (c *Config) MetricsRefresh() time.Duration { return ms(c.MetricsRefreshMS) }

// DefaultDeadline returns now plus the configured number of days.
func (c *Config) DefaultDeadline(now time.Time) time.Time {
	return now.AddDate(0, 0, c.DefaultDeadlineDays)
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }
