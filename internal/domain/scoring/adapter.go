// Package scoring turns an external skill oracle into one score per roster
// member, with retries and a flagged fallback when the oracle fails.
package scoring

import (
	"context"
	"time"

	"github.com/SFZPL/tms-sub000/internal/domain/model"
	"github.com/SFZPL/tms-sub000/internal/domain/retry"
	"github.com/SFZPL/tms-sub000/pkg/logger"
	"github.com/SFZPL/tms-sub000/pkg/metrics"
)

// Default adapter configuration constants.
const (
	DefaultScore = 50

	RationaleMissing   = "no score returned"
	RationaleEstimated = "score estimated: scorer unavailable"
)

// Oracle ranks a roster against a task and answers with free text,
// normally JSON. Implementations must honor ctx.
type Oracle interface {
	Rank(ctx context.Context, prompt Prompt) (string, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, prompt Prompt) (string, error)

// Rank calls f.
func (f OracleFunc) Rank(ctx context.Context, prompt Prompt) (string, error) {
	return f(ctx, prompt)
}

// Scores is the adapter's answer: exactly one ScoredDesigner per roster
// member, in roster order.
type Scores struct {
	Designers []model.ScoredDesigner
	Degraded  bool
	Reason    model.DegradedReason
}

// AdapterOption applies a configuration option to the Adapter.
type AdapterOption func(*Adapter)

// WithRetryPolicy sets the policy used around oracle calls.
func WithRetryPolicy(p *retry.Policy) AdapterOption {
	return func(a *Adapter) {
		if p != nil {
			a.policy = p
		}
	}
}

// WithDefaultScore sets the neutral score given to designers the oracle
// did not score.
func WithDefaultScore(score float64) AdapterOption {
	return func(a *Adapter) {
		if score >= minScore && score <= maxScore {
			a.defaultScore = score
		}
	}
}

// WithLogger sets the adapter's logger.
func WithLogger(l logger.Logger) AdapterOption {
	return func(a *Adapter) {
		if l != nil {
			a.log = l
		}
	}
}

// Adapter scores rosters through an Oracle.
type Adapter struct {
	oracle       Oracle
	policy       *retry.Policy
	defaultScore float64
	log          logger.Logger
}

// NewAdapter creates a new Adapter with configuration options.
func NewAdapter(oracle Oracle, opts ...AdapterOption) *Adapter {
	a := &Adapter{
		oracle:       oracle,
		policy:       retry.NewPolicy(),
		defaultScore: DefaultScore,
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Score returns one score per roster member. Oracle failures, after
// retries, and unrecognized responses never surface as errors: every member
// gets the neutral default and the result is flagged degraded. The only
// error returned is ctx's own.
func (a *Adapter) Score(ctx context.Context, description string, roster []model.DesignerProfile) (Scores, error) {
	if len(roster) == 0 {
		return Scores{Designers: []model.ScoredDesigner{}}, nil
	}

	text, err := a.rank(ctx, BuildPrompt(description, roster))
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Scores{}, ctxErr
	}
	if err != nil {
		metrics.RecordScorerCall("failed")
		a.log.Warn(ctx, "skill scorer unavailable, using estimated scores",
			logger.Int("designers", len(roster)),
			logger.Error(err))
		return a.fallback(roster), nil
	}

	entries, err := Normalize(text, roster)
	if err != nil {
		metrics.RecordScorerCall("unrecognized")
		a.log.Warn(ctx, "skill scorer response not recognized, using estimated scores",
			logger.Int("response_bytes", len(text)),
			logger.Error(err))
		return a.fallback(roster), nil
	}
	metrics.RecordScorerCall("ok")

	out := Scores{Designers: make([]model.ScoredDesigner, 0, len(roster))}
	for _, d := range roster {
		e, ok := entries[d.Key()]
		if !ok {
			out.Designers = append(out.Designers, model.ScoredDesigner{
				Designer:  d,
				Score:     a.defaultScore,
				Rationale: RationaleMissing,
				Defaulted: true,
			})
			out.Degraded = true
			continue
		}
		out.Designers = append(out.Designers, model.ScoredDesigner{
			Designer:  d,
			Score:     e.Score,
			Rationale: e.Rationale,
		})
	}
	if out.Degraded {
		out.Reason = model.DegradedPartialCoverage
		metrics.RecordScorerDegraded(string(out.Reason))
		a.log.Warn(ctx, "skill scorer omitted designers",
			logger.Int("scored", len(entries)),
			logger.Int("roster", len(roster)))
	}
	return out, nil
}

func (a *Adapter) rank(ctx context.Context, prompt Prompt) (string, error) {
	if a.oracle == nil {
		return "", ErrNoOracle
	}

	start := time.Now()
	defer func() {
		metrics.RecordScorerLatency(float64(time.Since(start).Milliseconds()))
	}()

	var text string
	attempts := 0
	err := a.policy.Do(ctx, func(actx context.Context) error {
		attempts++
		if attempts > 1 {
			metrics.RecordScorerRetry()
		}
		t, err := a.oracle.Rank(actx, prompt)
		if err != nil {
			a.log.Debug(ctx, "skill scorer attempt failed",
				logger.Int("attempt", attempts),
				logger.Error(err))
			return err
		}
		if t == "" {
			return ErrEmptyResponse
		}
		text = t
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func (a *Adapter) fallback(roster []model.DesignerProfile) Scores {
	out := Estimated(roster, a.defaultScore)
	metrics.RecordScorerDegraded(string(out.Reason))
	return out
}

// Estimated gives every roster member score, marked as defaulted, and flags
// the result as degraded because the scorer was unavailable.
func Estimated(roster []model.DesignerProfile, score float64) Scores {
	out := Scores{
		Designers: make([]model.ScoredDesigner, 0, len(roster)),
		Degraded:  true,
		Reason:    model.DegradedScorerUnavailable,
	}
	for _, d := range roster {
		out.Designers = append(out.Designers, model.ScoredDesigner{
			Designer:  d,
			Score:     score,
			Rationale: RationaleEstimated,
			Defaulted: true,
		})
	}
	return out
}
