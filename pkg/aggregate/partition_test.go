package aggregate

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/scmlog/pkg/metrics"
	"github.com/Sumatoshi-tech/scmlog/pkg/scm"
)

const kindLastAdded metrics.Kind = "last_added"

// lastAdded remembers the AddedLines of the latest modification, so its value
// depends on the order modifications arrive in.
type lastAdded struct {
	value int64
}

func (m *lastAdded) Value() int64 { return m.value }

func (m *lastAdded) RegisterModification(mod scm.Modification) { m.value = mod.AddedLines }

func orderSensitiveCatalog(t *testing.T) *metrics.Catalog {
	t.Helper()

	defs := append(metrics.DefaultDefinitions(), metrics.Definition{
		MetricMeta: metrics.MetricMeta{MetricName: kindLastAdded, MetricType: metrics.TypeCount},
		New:        func() metrics.Metric { return &lastAdded{} },
	})

	catalog, err := metrics.NewCatalog(defs...)
	require.NoError(t, err)

	return catalog
}

func syntheticHistory(commits, filesPerCommit int) []*scm.Commit {
	base := time.Date(2023, time.June, 5, 9, 0, 0, 0, time.UTC)
	history := make([]*scm.Commit, 0, commits)

	for i := range commits {
		commit := &scm.Commit{
			Hash:   fmt.Sprintf("c%04d", i),
			Author: fmt.Sprintf("dev%d", i%5),
			When:   base.Add(time.Duration(i) * 31 * time.Hour),
		}

		for j := range filesPerCommit {
			kind := scm.KindModify
			if (i+j)%11 == 0 {
				kind = scm.KindDelete
			}

			commit.Modifications = append(commit.Modifications, scm.Modification{
				FileID:       fmt.Sprintf("src/file%02d.go", (i*3+j)%37),
				Kind:         kind,
				AddedLines:   int64(i + j),
				DeletedLines: int64(j),
			})
		}

		history = append(history, commit)
	}

	return history
}

func TestRunPartitioned_MatchesSequential(t *testing.T) {
	t.Parallel()

	catalog := orderSensitiveCatalog(t)
	history := syntheticHistory(200, 4)

	want, wantStats, err := NewRunner(catalog).Run(context.Background(), scm.NewSliceSource(history...))
	require.NoError(t, err)

	for _, workers := range []int{0, 1, 2, 3, 8} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			t.Parallel()

			got, stats, runErr := NewRunner(catalog).RunPartitioned(
				context.Background(), scm.NewSliceSource(history...), workers)
			require.NoError(t, runErr)

			assert.Equal(t, want, got)
			assert.Equal(t, wantStats.Commits, stats.Commits)
			assert.Equal(t, wantStats.Modifications, stats.Modifications)
			assert.Equal(t, wantStats.Observations, stats.Observations)
			assert.Equal(t, wantStats.Files, stats.Files)
		})
	}
}

func TestRun_OrderSensitiveMetricSeesSourceOrder(t *testing.T) {
	t.Parallel()

	catalog := orderSensitiveCatalog(t)
	first := &scm.Commit{Hash: "c1", Modifications: []scm.Modification{{FileID: "a.go", AddedLines: 1}}}
	second := &scm.Commit{Hash: "c2", Modifications: []scm.Modification{{FileID: "a.go", AddedLines: 2}}}

	forward, err := Run(context.Background(), catalog, scm.NewSliceSource(first, second))
	require.NoError(t, err)

	backward, err := Run(context.Background(), catalog, scm.NewSliceSource(second, first))
	require.NoError(t, err)

	assert.Equal(t, int64(2), forward["a.go"][kindLastAdded])
	assert.Equal(t, int64(1), backward["a.go"][kindLastAdded])
}

func TestRunPartitioned_SourceFailure(t *testing.T) {
	t.Parallel()

	src := failingSource(errBrokenPipe, syntheticHistory(10, 2)...)

	snap, _, err := NewRunner(metrics.DefaultCatalog()).RunPartitioned(context.Background(), src, 4)
	require.ErrorIs(t, err, ErrSourceRead)
	require.ErrorIs(t, err, errBrokenPipe)
	assert.Nil(t, snap)
}

func TestRunPartitioned_InvalidModification(t *testing.T) {
	t.Parallel()

	history := syntheticHistory(50, 3)
	history[20].Modifications[1].AddedLines = -1

	snap, _, err := NewRunner(metrics.DefaultCatalog()).RunPartitioned(
		context.Background(), scm.NewSliceSource(history...), 4)
	require.ErrorIs(t, err, scm.ErrInvalidArgument)
	assert.Nil(t, snap)

	var observeErr *ObserveError
	require.ErrorAs(t, err, &observeErr)
	assert.Equal(t, history[20].Hash, observeErr.Commit)
}

func TestRunPartitioned_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap, _, err := NewRunner(metrics.DefaultCatalog()).RunPartitioned(
		ctx, scm.NewSliceSource(syntheticHistory(5, 2)...), 3)
	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, snap)
}

func TestPartition_StableAndInRange(t *testing.T) {
	t.Parallel()

	for _, file := range []string{"a.go", "pkg/x/y.go", "", "README.md"} {
		first := partition(file, 7)
		assert.GreaterOrEqual(t, first, 0)
		assert.Less(t, first, 7)
		assert.Equal(t, first, partition(file, 7))
	}
}

func TestPartition_UsesEveryShard(t *testing.T) {
	t.Parallel()

	const shards = 4

	seen := make(map[int]int, shards)

	for i := range 200 {
		seen[partition(fmt.Sprintf("src/file_%03d.go", i), shards)]++
	}

	assert.Len(t, seen, shards)
}
