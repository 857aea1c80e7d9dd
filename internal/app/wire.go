package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/SFZPL/tms-sub000/internal/adapters/llm"
	"github.com/SFZPL/tms-sub000/internal/adapters/repository"
	"github.com/SFZPL/tms-sub000/internal/adapters/roster"
	"github.com/SFZPL/tms-sub000/internal/config"
	"github.com/SFZPL/tms-sub000/internal/domain/availability"
	"github.com/SFZPL/tms-sub000/internal/domain/retry"
	"github.com/SFZPL/tms-sub000/internal/domain/scoring"
	"github.com/SFZPL/tms-sub000/pkg/logger"
)

// Engine bundles a Service with the resources it was built on.
type Engine struct {
	*Service

	Store  repository.Store
	Roster roster.Source

	closers []func() error
}

// Close releases the store and stops the roster watcher.
func (e *Engine) Close() error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Build wires an Engine from cfg: the configured skill oracle behind the
// scoring adapter, the SQLite schedule behind the partitioner, and the
// roster file as the default roster source. An empty ScheduleDBPath selects
// an in-memory schedule.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*Engine, error) {
	if log == nil {
		log = logger.Nop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{}

	oracle, err := buildOracle(ctx, cfg)
	if err != nil {
		return nil, err
	}
	scorer := scoring.NewAdapter(oracle,
		scoring.WithDefaultScore(cfg.DefaultScore),
		scoring.WithLogger(log.Named("scoring")),
		scoring.WithRetryPolicy(retry.NewPolicy(
			retry.WithMaxAttempts(cfg.ScorerMaxAttempts),
			retry.WithBackoff(cfg.ScorerBackoff()),
			retry.WithAttemptTimeout(cfg.ScorerTimeout()),
		)),
	)

	if cfg.ScheduleDBPath == "" {
		e.Store = repository.NewMemoryStore()
	} else {
		store, err := repository.OpenSQLite(cfg.ScheduleDBPath)
		if err != nil {
			return nil, fmt.Errorf("open schedule: %w", err)
		}
		e.Store = store
	}
	e.closers = append(e.closers, e.Store.Close)

	partitioner := availability.NewPartitioner(e.Store,
		availability.WithWorkers(cfg.WorkerCount),
		availability.WithLogger(log.Named("availability")),
		availability.WithRetryPolicy(retry.NewPolicy(
			retry.WithMaxAttempts(cfg.RepositoryMaxAttempts),
			retry.WithBackoff(cfg.RepositoryBackoff()),
			retry.WithAttemptTimeout(cfg.RepositoryTimeout()),
		)),
	)

	opts := []Option{
		WithScorer(scorer),
		WithPartitioner(partitioner),
		WithEvaluationTimeout(cfg.EvaluationTimeout()),
		WithScorerBudget(cfg.ScorerBudget()),
		WithFallbackScore(cfg.DefaultScore),
		WithDefaults(DefaultsFromConfig(cfg)),
		WithLogger(log.Named("engine")),
	}
	if cfg.RosterPath != "" {
		src := roster.NewFileSource(cfg.RosterPath, roster.WithLogger(log.Named("roster")))
		if cfg.WatchRoster {
			if err := src.Start(ctx); err != nil {
				log.Warn(ctx, "roster watch disabled", logger.String("path", cfg.RosterPath), logger.Error(err))
			} else {
				e.closers = append(e.closers, func() error { src.Stop(); return nil })
			}
		}
		e.Roster = src
		opts = append(opts, WithRosterSource(src))
	}

	e.Service = New(opts...)
	log.Info(ctx, "engine ready",
		logger.String("scorer", cfg.ScorerProvider),
		logger.Int("workers", cfg.WorkerCount),
		logger.String("schedule", cfg.ScheduleDBPath),
		logger.String("roster", cfg.RosterPath))
	return e, nil
}

func buildOracle(ctx context.Context, cfg *config.Config) (scoring.Oracle, error) {
	switch cfg.ScorerProvider {
	case config.ScorerGenAI:
		o, err := llm.NewGenAIOracle(ctx, cfg.GenAIAPIKey, cfg.GenAIModel)
		if err != nil {
			return nil, fmt.Errorf("build genai scorer: %w", err)
		}
		return o, nil
	default:
		minLatency, maxLatency := cfg.HeuristicLatency()
		return scoring.NewHeuristicOracle(
			scoring.WithLatencyRange(minLatency, maxLatency),
			scoring.WithAttributeWeightsFromConfig(cfg.AttributeWeights, cfg.DefaultAttributeWeight),
		), nil
	}
}
