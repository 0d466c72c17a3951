package aggregate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Sumatoshi-tech/scmlog/pkg/metrics"
	"github.com/Sumatoshi-tech/scmlog/pkg/scm"
)

const tracerName = "scmlog/aggregate"

// Stats describes the work done by one run.
type Stats struct {
	Commits       int64
	Modifications int64
	Observations  int64
	Files         int
	Duration      time.Duration
}

// Runner drives aggregation runs over commit sources.
type Runner struct {
	catalog *metrics.Catalog
	tracer  trace.Tracer
	now     func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithTracer sets the tracer used for run spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(r *Runner) {
		if tracer != nil {
			r.tracer = tracer
		}
	}
}

// NewRunner creates a runner that feeds every kind of catalog.
func NewRunner(catalog *metrics.Catalog, opts ...Option) *Runner {
	runner := &Runner{
		catalog: catalog,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(runner)
	}

	return runner
}

// Catalog returns the runner's catalog.
func (r *Runner) Catalog() *metrics.Catalog {
	return r.catalog
}

// Run consumes src until io.EOF and returns the final snapshot.
//
// Commits are processed in source order and modifications in commit order; every
// modification is observed once per catalog kind. Any failure aborts the run and the
// partial snapshot is discarded.
func (r *Runner) Run(ctx context.Context, src scm.Source) (Snapshot, Stats, error) {
	ctx, span := r.tracer.Start(ctx, "aggregate.Run")
	defer span.End()

	started := r.now()
	registry := NewRegistry(r.catalog)
	kinds := r.catalog.Kinds()

	var (
		stats      Stats
		lastCommit string
	)

	for {
		ctxErr := ctx.Err()
		if ctxErr != nil {
			return nil, stats, r.fail(span, fmt.Errorf("aggregation aborted: %w", ctxErr))
		}

		commit, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			ctxErr = ctx.Err()
			if ctxErr != nil {
				return nil, stats, r.fail(span, fmt.Errorf("aggregation aborted: %w", ctxErr))
			}

			return nil, stats, r.fail(span, sourceReadError(lastCommit, err))
		}

		for _, mod := range commit.Stamped() {
			for _, kind := range kinds {
				observeErr := registry.Observe(mod.FileID, kind, mod)
				if observeErr != nil {
					return nil, stats, r.fail(span, &ObserveError{
						Commit: commit.Hash,
						FileID: mod.FileID,
						Kind:   kind,
						Err:    observeErr,
					})
				}

				stats.Observations++
			}

			stats.Modifications++
		}

		stats.Commits++
		lastCommit = commit.Hash
	}

	stats.Files = registry.Len()
	stats.Duration = r.now().Sub(started)

	span.SetAttributes(
		attribute.Int64("scmlog.commits", stats.Commits),
		attribute.Int64("scmlog.modifications", stats.Modifications),
		attribute.Int("scmlog.files", stats.Files),
	)

	return registry.Snapshot(), stats, nil
}

func (r *Runner) fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	return err
}

// Run aggregates src with every kind of catalog. It is a shorthand for
// NewRunner(catalog).Run when run statistics are not needed.
func Run(ctx context.Context, catalog *metrics.Catalog, src scm.Source) (Snapshot, error) {
	snap, _, err := NewRunner(catalog).Run(ctx, src)

	return snap, err
}
