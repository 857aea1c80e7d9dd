// Package availability splits a scored roster into designers who can take a
// task before its deadline and designers who cannot.
package availability

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/SFZPL/tms-sub000/internal/domain/model"
	"github.com/SFZPL/tms-sub000/internal/domain/retry"
	"github.com/SFZPL/tms-sub000/internal/domain/slot"
	"github.com/SFZPL/tms-sub000/pkg/logger"
	"github.com/SFZPL/tms-sub000/pkg/metrics"
)

const defaultWorkers = 8

// CommitmentSource is the read contract of the scheduling system.
type CommitmentSource interface {
	// ResolveDesignerID maps a roster name to a scheduling-system ID,
	// returning ErrDesignerNotFound when there is no match.
	ResolveDesignerID(ctx context.Context, name string) (string, error)
	// ListCommitments returns the designer's commitments, in any order.
	ListCommitments(ctx context.Context, designerID string) ([]model.Commitment, error)
}

// Option applies a configuration option to the Partitioner.
type Option func(*Partitioner)

// WithWorkers bounds how many designers are checked concurrently.
func WithWorkers(n int) Option {
	return func(p *Partitioner) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithRetryPolicy sets the policy used around scheduling-system calls.
func WithRetryPolicy(policy *retry.Policy) Option {
	return func(p *Partitioner) {
		if policy != nil {
			p.policy = policy
		}
	}
}

// WithClock sets the source of "now", the earliest possible slot start.
func WithClock(now func() time.Time) Option {
	return func(p *Partitioner) {
		if now != nil {
			p.now = now
		}
	}
}

// WithLogger sets the partitioner's logger.
func WithLogger(l logger.Logger) Option {
	return func(p *Partitioner) {
		if l != nil {
			p.log = l
		}
	}
}

// Partitioner checks every designer's timeline against a deadline.
type Partitioner struct {
	source  CommitmentSource
	workers int
	policy  *retry.Policy
	now     func() time.Time
	log     logger.Logger
}

// NewPartitioner creates a new Partitioner reading from source.
func NewPartitioner(source CommitmentSource, opts ...Option) *Partitioner {
	p := &Partitioner{
		source:  source,
		workers: defaultWorkers,
		policy:  retry.NewPolicy(retry.WithBackoff(500 * time.Millisecond)),
		now:     time.Now,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Workers returns the concurrency bound.
func (p *Partitioner) Workers() int { return p.workers }

type outcome struct {
	available   *model.AvailableDesigner
	unavailable *model.UnavailableDesigner
}

// Partition places every scored designer in exactly one of the two returned
// sets, keeping the input order within each. Scheduling-system failures are
// recorded on the designer, never returned. The only error is ctx's, in
// which case no partial result is returned.
func (p *Partitioner) Partition(
	ctx context.Context,
	scored []model.ScoredDesigner,
	deadline time.Time,
	duration time.Duration,
) ([]model.AvailableDesigner, []model.UnavailableDesigner, error) {
	available := make([]model.AvailableDesigner, 0, len(scored))
	unavailable := make([]model.UnavailableDesigner, 0)
	if len(scored) == 0 {
		return available, unavailable, ctx.Err()
	}

	now := p.now()
	results := make([]outcome, len(scored))
	metrics.UpdateAvailabilityWorkers(p.workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range scored {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := p.check(gctx, scored[i], deadline, duration, now)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	for _, r := range results {
		switch {
		case r.available != nil:
			available = append(available, *r.available)
		case r.unavailable != nil:
			unavailable = append(unavailable, *r.unavailable)
		}
	}
	metrics.RecordPartition("available", len(available))
	metrics.RecordPartition("unavailable", len(unavailable))
	return available, unavailable, nil
}

// check decides one designer. It returns an error only when ctx is done.
func (p *Partitioner) check(
	ctx context.Context,
	d model.ScoredDesigner,
	deadline time.Time,
	duration time.Duration,
	now time.Time,
) (outcome, error) {
	id, err := p.resolve(ctx, d.Designer.Name)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return outcome{}, ctxErr
	}
	if err != nil {
		metrics.RecordUnresolvedDesigner()
		if !errors.Is(err, ErrDesignerNotFound) {
			metrics.RecordCommitmentFetchError("resolve")
			p.log.Warn(ctx, "designer lookup failed",
				logger.String("designer", d.Designer.Name),
				logger.Error(err))
		}
		return blocked(d, model.Blocking{
			Reason: model.BlockNotFound,
			Label:  model.NotInSchedulingSystem,
		}), nil
	}

	commitments, err := p.list(ctx, id)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return outcome{}, ctxErr
	}
	if err != nil {
		metrics.RecordCommitmentFetchError("list")
		p.log.Warn(ctx, "commitment lookup failed",
			logger.String("designer", d.Designer.Name),
			logger.String("designer_id", id),
			logger.Error(err))
		return blocked(d, model.Blocking{
			Reason: model.BlockScheduleUnavailable,
			Label:  model.ScheduleLookupFailed,
		}), nil
	}

	if s, ok := slot.Find(commitments, duration, deadline, now); ok {
		return outcome{available: &model.AvailableDesigner{ScoredDesigner: d, Slot: s}}, nil
	}
	return blocked(d, BlockingAt(commitments, deadline)), nil
}

// BlockingAt describes the first commitment, by start time, that covers the
// deadline instant. When none does the label is a placeholder and the
// deadline is nil.
func BlockingAt(commitments []model.Commitment, deadline time.Time) model.Blocking {
	sorted := slices.Clone(commitments)
	slices.SortStableFunc(sorted, func(a, b model.Commitment) int {
		return a.Start.Compare(b.Start)
	})
	for _, c := range sorted {
		if !c.Covers(deadline) {
			continue
		}
		label := c.WorkItemName
		if label == "" {
			label = c.WorkItemID
		}
		if label == "" {
			label = model.UnknownWorkItem
		}
		return model.Blocking{
			Reason:     model.BlockConflict,
			Label:      label,
			WorkItemID: c.WorkItemID,
			Deadline:   c.Deadline,
		}
	}
	return model.Blocking{Reason: model.BlockNoSlot, Label: model.UnknownWorkItem}
}

func blocked(d model.ScoredDesigner, b model.Blocking) outcome {
	return outcome{unavailable: &model.UnavailableDesigner{ScoredDesigner: d, Blocking: b}}
}

func (p *Partitioner) resolve(ctx context.Context, name string) (string, error) {
	var id string
	notFound := false
	err := p.policy.Do(ctx, func(actx context.Context) error {
		got, err := p.source.ResolveDesignerID(actx, name)
		if errors.Is(err, ErrDesignerNotFound) {
			notFound = true
			return nil
		}
		if err != nil {
			return err
		}
		id = got
		return nil
	})
	if err != nil {
		return "", err
	}
	if notFound || id == "" {
		return "", fmt.Errorf("%w: %q", ErrDesignerNotFound, name)
	}
	return id, nil
}

func (p *Partitioner) list(ctx context.Context, id string) ([]model.Commitment, error) {
	start := time.Now()
	defer func() {
		metrics.RecordCommitmentFetchLatency(float64(time.Since(start).Milliseconds()))
	}()

	var commitments []model.Commitment
	err := p.policy.Do(ctx, func(actx context.Context) error {
		got, err := p.source.ListCommitments(actx, id)
		if err != nil {
			return err
		}
		commitments = got
		return nil
	})
	return commitments, err
}
