package gitrepo

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/scmlog/pkg/aggregate"
	"github.com/Sumatoshi-tech/scmlog/pkg/metrics"
	"github.com/Sumatoshi-tech/scmlog/pkg/scm"
)

type fixture struct {
	t     *testing.T
	dir   string
	repo  *git2go.Repository
	clock time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()

	repo, err := git2go.InitRepository(dir, false)
	require.NoError(t, err)

	t.Cleanup(repo.Free)

	return &fixture{t: t, dir: dir, repo: repo, clock: time.Date(2024, time.February, 5, 9, 0, 0, 0, time.UTC)}
}

func (f *fixture) write(name, content string) {
	f.t.Helper()

	path := filepath.Join(f.dir, name)
	require.NoError(f.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(f.t, os.WriteFile(path, []byte(content), 0o644))
}

func (f *fixture) remove(name string) {
	f.t.Helper()

	require.NoError(f.t, os.Remove(filepath.Join(f.dir, name)))
}

func (f *fixture) commit(author string, after time.Duration) {
	f.t.Helper()

	index, err := f.repo.Index()
	require.NoError(f.t, err)

	defer index.Free()

	require.NoError(f.t, index.AddAll([]string{"*"}, git2go.IndexAddDefault, nil))
	require.NoError(f.t, index.UpdateAll([]string{"*"}, nil))
	require.NoError(f.t, index.Write())

	treeID, err := index.WriteTree()
	require.NoError(f.t, err)

	tree, err := f.repo.LookupTree(treeID)
	require.NoError(f.t, err)

	defer tree.Free()

	f.clock = f.clock.Add(after)
	sig := &git2go.Signature{Name: author, Email: author + "@example.com", When: f.clock}

	var parents []*git2go.Commit

	head, err := f.repo.Head()
	if err == nil {
		parent, lookupErr := f.repo.LookupCommit(head.Target())
		require.NoError(f.t, lookupErr)

		parents = append(parents, parent)

		head.Free()
	}

	_, err = f.repo.CreateCommit("HEAD", sig, sig, "change", tree, parents...)
	require.NoError(f.t, err)

	for _, parent := range parents {
		parent.Free()
	}
}

func TestSource_ReadsHistoryOldestFirst(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.write("main.go", "package main\n")
	fx.write("README.md", "# demo\n")
	fx.commit("alice", time.Hour)

	fx.write("main.go", "package main\n\nfunc main() {}\n")
	fx.commit("bob", 8*24*time.Hour)

	fx.remove("README.md")
	fx.commit("bob", time.Hour)

	src, err := Open(fx.dir, DefaultOptions())
	require.NoError(t, err)

	t.Cleanup(func() { _ = src.Close() })

	commits, err := scm.Collect(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, commits, 3)

	assert.Equal(t, "alice", commits[0].Author)
	assert.Len(t, commits[0].Modifications, 2)

	for _, mod := range commits[0].Modifications {
		assert.Equal(t, scm.KindAdd, mod.Kind)
	}

	require.Len(t, commits[1].Modifications, 1)
	edit := commits[1].Modifications[0]
	assert.Equal(t, "main.go", edit.FileID)
	assert.Equal(t, scm.KindModify, edit.Kind)
	assert.Equal(t, int64(2), edit.AddedLines)
	assert.Equal(t, int64(0), edit.DeletedLines)

	require.Len(t, commits[2].Modifications, 1)
	assert.Equal(t, scm.KindDelete, commits[2].Modifications[0].Kind)
	assert.Equal(t, int64(1), commits[2].Modifications[0].DeletedLines)
}

func TestSource_FeedsAggregation(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	body := "alpha\nbeta\ngamma\ndelta\nepsilon\nzeta\n"
	fx.write("old.txt", body)
	fx.commit("alice", time.Hour)

	fx.remove("old.txt")
	fx.write("new.txt", body)
	fx.commit("bob", time.Hour)

	src, err := Open(fx.dir, DefaultOptions())
	require.NoError(t, err)

	t.Cleanup(func() { _ = src.Close() })

	snap, err := aggregate.Run(context.Background(), metrics.DefaultCatalog(), src)
	require.NoError(t, err)

	renames, ok := snap.Value("new.txt", metrics.KindNumberOfRenames)
	require.True(t, ok)
	assert.Equal(t, int64(1), renames)

	commits, ok := snap.Value("old.txt", metrics.KindNumberOfCommits)
	require.True(t, ok)
	assert.Equal(t, int64(1), commits)
}

func TestSource_SkipLineStats(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.write("a.txt", "1\n2\n3\n")
	fx.commit("alice", time.Hour)

	opts := DefaultOptions()
	opts.SkipLineStats = true

	src, err := Open(fx.dir, opts)
	require.NoError(t, err)

	t.Cleanup(func() { _ = src.Close() })

	commits, err := scm.Collect(context.Background(), src)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Zero(t, commits[0].Modifications[0].AddedLines)
}

func TestSource_CancelledContext(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.write("a.txt", "a\n")
	fx.commit("alice", time.Hour)

	src, err := Open(fx.dir, DefaultOptions())
	require.NoError(t, err)

	t.Cleanup(func() { _ = src.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = src.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestOpen_NotARepository(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "nope"), DefaultOptions())
	require.Error(t, err)
}
