package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/scmlog/pkg/scm"
)

func TestDefaultCatalog_FreshMetricsStartAtZero(t *testing.T) {
	t.Parallel()

	catalog := DefaultCatalog()

	for _, kind := range catalog.Kinds() {
		metric, err := catalog.New(kind)
		require.NoError(t, err)
		assert.Zero(t, metric.Value(), "fresh %s must report zero", kind)
	}
}

func TestNumberOfOccurrencesInCommits_InitialValueZero(t *testing.T) {
	t.Parallel()

	metric := NewNumberOfOccurrencesInCommits()

	assert.Equal(t, int64(0), metric.Value())
}

func TestNumberOfOccurrencesInCommits_IncreasesByModification(t *testing.T) {
	t.Parallel()

	metric := NewNumberOfOccurrencesInCommits()

	metric.RegisterModification(scm.NewModification("any"))

	assert.Equal(t, int64(1), metric.Value())
}

func TestNumberOfOccurrencesInCommits_CountsEveryCallRegardlessOfContent(t *testing.T) {
	t.Parallel()

	mods := []scm.Modification{
		scm.NewModification("a.py"),
		{FileID: "b.py", Kind: scm.KindDelete},
		{FileID: "c.py", Kind: scm.KindRename, OldFileID: "x.py"},
		{FileID: "a.py", AddedLines: 10, Author: "alice"},
	}

	for n := range len(mods) + 1 {
		metric := NewNumberOfOccurrencesInCommits()
		for _, mod := range mods[:n] {
			metric.RegisterModification(mod)
		}

		assert.Equal(t, int64(n), metric.Value())
		assert.Equal(t, metric.Value(), metric.Value(), "Value must be repeatable")
	}
}

func TestNumberOfRenames_CountsRenamesOnly(t *testing.T) {
	t.Parallel()

	metric := NewNumberOfRenames()
	metric.RegisterModification(scm.Modification{FileID: "a", Kind: scm.KindAdd})
	metric.RegisterModification(scm.Modification{FileID: "b", Kind: scm.KindRename, OldFileID: "a"})
	metric.RegisterModification(scm.Modification{FileID: "b", Kind: scm.KindModify})
	metric.RegisterModification(scm.Modification{FileID: "c", Kind: scm.KindRename, OldFileID: "b"})

	assert.Equal(t, int64(2), metric.Value())
}

func TestIsDeleted_FollowsLatestModification(t *testing.T) {
	t.Parallel()

	metric := NewIsDeleted()
	metric.RegisterModification(scm.Modification{FileID: "a", Kind: scm.KindAdd})
	assert.Equal(t, int64(0), metric.Value())

	metric.RegisterModification(scm.Modification{FileID: "a", Kind: scm.KindDelete})
	assert.Equal(t, int64(1), metric.Value())

	metric.RegisterModification(scm.Modification{FileID: "a", Kind: scm.KindAdd})
	assert.Equal(t, int64(0), metric.Value())
}

func TestNumberOfAuthors_CountsDistinctNonEmptyAuthors(t *testing.T) {
	t.Parallel()

	metric := NewNumberOfAuthors()
	for _, author := range []string{"alice", "bob", "alice", ""} {
		metric.RegisterModification(scm.Modification{FileID: "a", Author: author})
	}

	assert.Equal(t, int64(2), metric.Value())
}

func TestWeeksWithCommits(t *testing.T) {
	t.Parallel()

	// 2024-01-01 is a Monday.
	monday := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	sunday := time.Date(2024, 1, 7, 23, 0, 0, 0, time.UTC)
	nextMonday := time.Date(2024, 1, 8, 0, 30, 0, 0, time.UTC)
	later := time.Date(2024, 1, 29, 12, 0, 0, 0, time.UTC)

	weeks := NewWeeksWithCommits()
	span := NewRangeOfWeeksWithCommits()

	for _, when := range []time.Time{monday, sunday, nextMonday, later, {}} {
		mod := scm.Modification{FileID: "a", When: when}
		weeks.RegisterModification(mod)
		span.RegisterModification(mod)
	}

	assert.Equal(t, int64(3), weeks.Value())
	assert.Equal(t, int64(5), span.Value())
}

func TestRangeOfWeeksWithCommits_OrderInsensitive(t *testing.T) {
	t.Parallel()

	first := time.Date(2023, 6, 5, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 0, 14)

	forward := NewRangeOfWeeksWithCommits()
	forward.RegisterModification(scm.Modification{FileID: "a", When: first})
	forward.RegisterModification(scm.Modification{FileID: "a", When: last})

	backward := NewRangeOfWeeksWithCommits()
	backward.RegisterModification(scm.Modification{FileID: "a", When: last})
	backward.RegisterModification(scm.Modification{FileID: "a", When: first})

	assert.Equal(t, int64(3), forward.Value())
	assert.Equal(t, forward.Value(), backward.Value())
}

func TestWeekIndex_UsesLocalWallClock(t *testing.T) {
	t.Parallel()

	// Monday 00:30 in UTC+2 is still Sunday evening in UTC.
	zone := time.FixedZone("UTC+2", 2*60*60)
	local := time.Date(2024, 1, 8, 0, 30, 0, 0, zone)
	sunday := time.Date(2024, 1, 7, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, weekIndex(sunday)+1, weekIndex(local))
}

func TestWeekIndex_BeforeEpoch(t *testing.T) {
	t.Parallel()

	// 1969-12-29 was a Monday, 1969-12-28 a Sunday.
	monday := time.Date(1969, 12, 29, 12, 0, 0, 0, time.UTC)
	sunday := time.Date(1969, 12, 28, 12, 0, 0, 0, time.UTC)
	thursday := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, weekIndex(monday), weekIndex(thursday))
	assert.Equal(t, weekIndex(monday)-1, weekIndex(sunday))
}

func TestLineMetrics(t *testing.T) {
	t.Parallel()

	added, deleted, churn := NewAddedLines(), NewDeletedLines(), NewCodeChurn()

	for _, mod := range []scm.Modification{
		{FileID: "a", AddedLines: 10},
		{FileID: "a", AddedLines: 3, DeletedLines: 4},
		{FileID: "a", Kind: scm.KindDelete, DeletedLines: 9},
	} {
		added.RegisterModification(mod)
		deleted.RegisterModification(mod)
		churn.RegisterModification(mod)
	}

	assert.Equal(t, int64(13), added.Value())
	assert.Equal(t, int64(13), deleted.Value())
	assert.Equal(t, int64(26), churn.Value())
}

func TestMetricMeta_Accessors(t *testing.T) {
	t.Parallel()

	def, ok := DefaultCatalog().Definition(KindNumberOfCommits)
	require.True(t, ok)

	assert.Equal(t, KindNumberOfCommits, def.Name())
	assert.Equal(t, "Number of Commits", def.DisplayName())
	assert.NotEmpty(t, def.Description())
	assert.Equal(t, TypeCount, def.Type())
	assert.Equal(t, "number_of_commits", def.Name().String())
}
