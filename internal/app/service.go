// Package service provides the designer assignment engine: the single
// evaluate operation the HTTP, MCP and CLI surfaces call.
package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/SFZPL/tms-sub000/internal/adapters/roster"
	"github.com/SFZPL/tms-sub000/internal/domain/model"
	"github.com/SFZPL/tms-sub000/internal/domain/reshuffle"
	"github.com/SFZPL/tms-sub000/internal/domain/scoring"
	"github.com/SFZPL/tms-sub000/pkg/logger"
	"github.com/SFZPL/tms-sub000/pkg/metrics"
)

// Scorer produces exactly one score per roster member.
type Scorer interface {
	Score(ctx context.Context, description string, roster []model.DesignerProfile) (scoring.Scores, error)
}

// Partitioner splits a scored roster by availability.
type Partitioner interface {
	Partition(ctx context.Context, scored []model.ScoredDesigner, deadline time.Time, duration time.Duration) ([]model.AvailableDesigner, []model.UnavailableDesigner, error)
}

// Service evaluates tasks against a roster. It holds no per-request state
// and is safe for concurrent use.
type Service struct {
	scorer      Scorer
	partitioner Partitioner
	roster      roster.Source
	now         func() time.Time
	timeout     time.Duration
	budget      time.Duration
	fallback    float64
	defaults    Defaults
	logger      logger.Logger

	evaluations atomic.Int64
	degraded    atomic.Int64
	rejected    atomic.Int64
	suggestions atomic.Int64
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithScorer sets the skill scorer.
func WithScorer(s Scorer) Option {
	return func(svc *Service) {
		if s != nil {
			svc.scorer = s
		}
	}
}

// WithPartitioner sets the availability partitioner.
func WithPartitioner(p Partitioner) Option {
	return func(svc *Service) {
		if p != nil {
			svc.partitioner = p
		}
	}
}

// WithRosterSource sets where EvaluateFromSource reads designers from.
func WithRosterSource(src roster.Source) Option {
	return func(svc *Service) {
		if src != nil {
			svc.roster = src
		}
	}
}

// WithClock sets the source of "now" used for validation.
func WithClock(now func() time.Time) Option {
	return func(svc *Service) {
		if now != nil {
			svc.now = now
		}
	}
}

// WithEvaluationTimeout bounds one evaluation. Zero means only the
// caller's context applies.
func WithEvaluationTimeout(d time.Duration) Option {
	return func(svc *Service) {
		if d >= 0 {
			svc.timeout = d
		}
	}
}

// WithScorerBudget bounds scoring within an evaluation. When it runs out
// while the caller is still waiting, designers get the fallback score and
// the evaluation is flagged degraded. Zero means scoring shares the
// evaluation timeout.
func WithScorerBudget(d time.Duration) Option {
	return func(svc *Service) {
		if d >= 0 {
			svc.budget = d
		}
	}
}

// WithFallbackScore sets the score given to designers the scorer could not
// score.
func WithFallbackScore(score float64) Option {
	return func(svc *Service) {
		if score >= 0 && score <= 100 {
			svc.fallback = score
		}
	}
}

// WithDefaults sets the defaults EvaluateRequest fills in.
func WithDefaults(d Defaults) Option {
	return func(svc *Service) {
		svc.defaults = d
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(svc *Service) {
		if l != nil {
			svc.logger = l
		}
	}
}

// New constructs a new Service. A scorer defaults to the local heuristic
// oracle; a partitioner must be supplied.
func New(opts ...Option) *Service {
	s := &Service{
		scorer:   scoring.NewAdapter(scoring.NewHeuristicOracle()),
		now:      time.Now,
		fallback: scoring.DefaultScore,
		logger:   logger.Nop(),
		defaults: Defaults{
			Duration:       model.DefaultTaskDuration,
			DeadlineWindow: 7 * 24 * time.Hour,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EvaluateFromSource reads the roster snapshot and evaluates task against it.
func (s *Service) EvaluateFromSource(ctx context.Context, task model.TaskRequirement) (*model.Evaluation, error) {
	if s.roster == nil {
		return nil, ErrNoRosterSource
	}
	designers, err := s.roster.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	return s.Evaluate(ctx, task, designers)
}

// Evaluate scores every designer against task, partitions them by whether
// they have an open slot before the deadline, and suggests a reshuffle when
// a busy designer is a clearly better fit.
//
// Invalid tasks are rejected with an error wrapping model.ErrInvalidTask.
// Scorer and scheduling failures never surface as errors: they show up as
// defaulted scores, the degraded flag, or blocking reasons. A scorer that
// outlasts its budget counts as a failure. The only other error is
// cancellation or expiry of the evaluation itself, in which case nothing
// partial is returned.
func (s *Service) Evaluate(ctx context.Context, task model.TaskRequirement, designers []model.DesignerProfile) (*model.Evaluation, error) {
	start := time.Now()
	now := s.now()

	if err := task.Validate(now); err != nil {
		s.rejected.Add(1)
		metrics.RecordEvaluation("rejected")
		return nil, err
	}
	if s.partitioner == nil {
		return nil, fmt.Errorf("%w: partitioner", ErrNotConfigured)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	unique := dedupe(designers)
	eval := &model.Evaluation{
		ID:          uuid.NewString(),
		EvaluatedAt: now,
		Available:   []model.AvailableDesigner{},
		Unavailable: []model.UnavailableDesigner{},
	}
	if len(unique) == 0 {
		s.finish(ctx, eval, task, start)
		return eval, nil
	}

	scores, err := s.score(ctx, task.Description, unique)
	if err != nil {
		return nil, s.cancelled(ctx, err)
	}
	scored := s.ensureCoverage(unique, scores)
	eval.Degraded = scores.Degraded || scored.patched
	eval.DegradedReason = scores.Reason
	if scored.patched && eval.DegradedReason == model.DegradedNone {
		eval.DegradedReason = model.DegradedPartialCoverage
	}

	ranked := scored.designers
	slices.SortStableFunc(ranked, func(a, b model.ScoredDesigner) int {
		return cmp.Compare(b.Score, a.Score)
	})

	available, unavailable, err := s.partitioner.Partition(ctx, ranked, task.Deadline, task.Duration)
	if err != nil {
		return nil, s.cancelled(ctx, err)
	}
	eval.Available = available
	eval.Unavailable = unavailable
	eval.Reshuffle = reshuffle.Suggest(available, unavailable, task.Deadline, task.Duration)

	s.finish(ctx, eval, task, start)
	return eval, nil
}

// score runs the scorer under its budget. Running out of budget is reported
// as an error only when ctx itself is done.
func (s *Service) score(ctx context.Context, description string, designers []model.DesignerProfile) (scoring.Scores, error) {
	sctx := ctx
	if s.budget > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, s.budget)
		defer cancel()
	}
	scores, err := s.scorer.Score(sctx, description, designers)
	if err == nil {
		return scores, nil
	}
	if ctx.Err() != nil {
		return scoring.Scores{}, err
	}
	metrics.RecordScorerDegraded(string(model.DegradedScorerUnavailable))
	s.logger.Warn(ctx, "skill scorer ran out of time, using estimated scores",
		logger.Duration("budget", s.budget),
		logger.Int("designers", len(designers)),
		logger.Error(err))
	return scoring.Estimated(designers, s.fallback), nil
}

func (s *Service) finish(ctx context.Context, eval *model.Evaluation, task model.TaskRequirement, start time.Time) {
	s.evaluations.Add(1)
	outcome := "ok"
	if eval.Degraded {
		outcome = "degraded"
		s.degraded.Add(1)
	}
	if eval.Reshuffle != nil {
		s.suggestions.Add(1)
		metrics.RecordReshuffleSuggestion()
	}
	metrics.RecordEvaluation(outcome)
	metrics.RecordEvaluationLatency(float64(time.Since(start).Milliseconds()))

	fields := []logger.Field{
		logger.String("evaluation_id", eval.ID),
		logger.String("category", task.Category.Display()),
		logger.Int("available", len(eval.Available)),
		logger.Int("unavailable", len(eval.Unavailable)),
		logger.Bool("degraded", eval.Degraded),
		logger.Bool("reshuffle", eval.Reshuffle != nil),
		logger.Duration("took", time.Since(start)),
	}
	if eval.Degraded {
		s.logger.Warn(ctx, "evaluation used estimated scores",
			append(fields, logger.String("reason", string(eval.DegradedReason)))...)
		return
	}
	s.logger.Info(ctx, "evaluation complete", fields...)
}

func (s *Service) cancelled(ctx context.Context, err error) error {
	metrics.RecordEvaluation("cancelled")
	s.logger.Warn(ctx, "evaluation abandoned", logger.Error(err))
	return fmt.Errorf("evaluate: %w", err)
}

// Stats returns counters for monitoring.
func (s *Service) Stats() map[string]any {
	return map[string]any{
		"evaluations":          s.evaluations.Load(),
		"degraded":             s.degraded.Load(),
		"rejected":             s.rejected.Load(),
		"reshuffleSuggestions": s.suggestions.Load(),
		"evaluationTimeoutMs":  s.timeout.Milliseconds(),
		"scorerBudgetMs":       s.budget.Milliseconds(),
	}
}

// dedupe keeps the first profile for each designer key.
func dedupe(designers []model.DesignerProfile) []model.DesignerProfile {
	seen := make(map[string]struct{}, len(designers))
	out := make([]model.DesignerProfile, 0, len(designers))
	for _, d := range designers {
		k := d.Key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, d)
	}
	return out
}

type coverage struct {
	designers []model.ScoredDesigner
	patched   bool
}

// ensureCoverage returns exactly one scored entry per roster member in
// roster order, whatever the scorer returned.
func (s *Service) ensureCoverage(designers []model.DesignerProfile, scores scoring.Scores) coverage {
	byKey := make(map[string]model.ScoredDesigner, len(scores.Designers))
	for _, sd := range scores.Designers {
		k := sd.Designer.Key()
		if _, dup := byKey[k]; !dup {
			sd.Score = scoring.Clamp(sd.Score)
			byKey[k] = sd
		}
	}
	out := coverage{designers: make([]model.ScoredDesigner, 0, len(designers))}
	for _, d := range designers {
		sd, ok := byKey[d.Key()]
		if !ok {
			sd = model.ScoredDesigner{
				Designer:  d,
				Score:     s.fallback,
				Rationale: scoring.RationaleMissing,
				Defaulted: true,
			}
			out.patched = true
		}
		out.designers = append(out.designers, sd)
	}
	return out
}
