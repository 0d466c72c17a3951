package aggregate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Sumatoshi-tech/scmlog/pkg/metrics"
	"github.com/Sumatoshi-tech/scmlog/pkg/scm"
)

// shardBufferSize is the capacity of each shard's input channel.
const shardBufferSize = 256

// routedModification is one modification on its way to the shard owning its file.
type routedModification struct {
	commit string
	mod    scm.Modification
}

// shard owns a private registry for a disjoint subset of files.
type shard struct {
	registry     *Registry
	input        chan routedModification
	observations int64
}

// firstError keeps the first error reported by any goroutine of a run.
type firstError struct {
	once sync.Once
	err  error
}

func (f *firstError) set(err error) {
	f.once.Do(func() { f.err = err })
}

// RunPartitioned is Run with per-file parallelism.
//
// Files are partitioned over workers goroutines by hash of their identifier. Each
// goroutine owns a private Registry and receives its modifications through one
// ordered channel, so every (file, kind) slot keeps a single writer and per-file
// order matches source order. workers <= 1 runs sequentially.
func (r *Runner) RunPartitioned(ctx context.Context, src scm.Source, workers int) (Snapshot, Stats, error) {
	if workers <= 1 {
		return r.Run(ctx, src)
	}

	ctx, span := r.tracer.Start(ctx, "aggregate.RunPartitioned")
	defer span.End()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	started := r.now()
	kinds := r.catalog.Kinds()
	shards := make([]*shard, workers)

	var (
		wg    sync.WaitGroup
		first firstError
	)

	for i := range shards {
		shards[i] = &shard{
			registry: NewRegistry(r.catalog),
			input:    make(chan routedModification, shardBufferSize),
		}

		wg.Add(1)

		go func(sh *shard) {
			defer wg.Done()

			sh.consume(kinds, cancel, &first)
		}(shards[i])
	}

	stats, produceErr := r.produce(ctx, src, shards)

	for _, sh := range shards {
		close(sh.input)
	}

	wg.Wait()

	if produceErr != nil {
		first.set(produceErr)
	}

	if first.err != nil {
		return nil, stats, r.fail(span, first.err)
	}

	snap := make(Snapshot)

	for _, sh := range shards {
		snap.merge(sh.registry.Snapshot())
		stats.Observations += sh.observations
		stats.Files += sh.registry.Len()
	}

	stats.Duration = r.now().Sub(started)

	span.SetAttributes(
		attribute.Int("scmlog.workers", workers),
		attribute.Int64("scmlog.commits", stats.Commits),
		attribute.Int("scmlog.files", stats.Files),
	)

	return snap, stats, nil
}

// produce pulls commits from src and routes every modification to its shard.
// It stops at io.EOF, on source failure, or when ctx is cancelled by a failing shard.
func (r *Runner) produce(ctx context.Context, src scm.Source, shards []*shard) (Stats, error) {
	var (
		stats      Stats
		lastCommit string
	)

	for {
		if ctx.Err() != nil {
			return stats, r.abortCause(ctx)
		}

		commit, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			return stats, nil
		}

		if err != nil {
			if ctx.Err() != nil {
				return stats, r.abortCause(ctx)
			}

			return stats, sourceReadError(lastCommit, err)
		}

		for _, mod := range commit.Stamped() {
			item := routedModification{commit: commit.Hash, mod: mod}
			target := shards[partition(mod.FileID, len(shards))]

			select {
			case target.input <- item:
			case <-ctx.Done():
				return stats, r.abortCause(ctx)
			}

			stats.Modifications++
		}

		stats.Commits++
		lastCommit = commit.Hash
	}
}

// abortCause wraps the cancellation of a producer. When a failing shard cancelled the
// run, its error was recorded first and wins over this one.
func (r *Runner) abortCause(ctx context.Context) error {
	return fmt.Errorf("aggregation aborted: %w", ctx.Err())
}

// consume feeds every routed modification to the shard's registry. After the first
// failure it keeps draining its input so the producer never blocks.
func (sh *shard) consume(kinds []metrics.Kind, cancel context.CancelFunc, first *firstError) {
	failed := false

	for item := range sh.input {
		if failed {
			continue
		}

		for _, kind := range kinds {
			err := sh.registry.Observe(item.mod.FileID, kind, item.mod)
			if err != nil {
				first.set(&ObserveError{Commit: item.commit, FileID: item.mod.FileID, Kind: kind, Err: err})
				cancel()

				failed = true

				break
			}

			sh.observations++
		}
	}
}

// partition maps a file identifier to a shard index.
func partition(fileID string, shards int) int {
	return int(xxhash.Sum64String(fileID) % uint64(shards)) //nolint:gosec // shards is a small positive count.
}
