package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDefinition(name Kind) Definition {
	return Definition{
		MetricMeta: MetricMeta{MetricName: name, MetricType: TypeCount},
		New:        NewNumberOfOccurrencesInCommits,
	}
}

func TestNewCatalog_PreservesOrder(t *testing.T) {
	t.Parallel()

	catalog, err := NewCatalog(testDefinition("b"), testDefinition("a"), testDefinition("c"))
	require.NoError(t, err)

	assert.Equal(t, []Kind{"b", "a", "c"}, catalog.Kinds())
	assert.Equal(t, 3, catalog.Len())
	assert.Len(t, catalog.Definitions(), 3)
}

func TestNewCatalog_RejectsDuplicates(t *testing.T) {
	t.Parallel()

	_, err := NewCatalog(testDefinition("a"), testDefinition("a"))
	require.ErrorIs(t, err, ErrDuplicateMetricKind)
}

func TestNewCatalog_RejectsInvalidDefinitions(t *testing.T) {
	t.Parallel()

	_, err := NewCatalog(Definition{MetricMeta: MetricMeta{MetricName: "x"}})
	require.ErrorIs(t, err, ErrInvalidDefinition)

	_, err = NewCatalog(Definition{New: NewIsDeleted})
	require.ErrorIs(t, err, ErrInvalidDefinition)
}

func TestMustCatalog_PanicsOnError(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		MustCatalog(testDefinition("a"), testDefinition("a"))
	})
}

func TestCatalog_New(t *testing.T) {
	t.Parallel()

	catalog := DefaultCatalog()

	first, err := catalog.New(KindNumberOfCommits)
	require.NoError(t, err)

	second, err := catalog.New(KindNumberOfCommits)
	require.NoError(t, err)

	assert.NotSame(t, first, second, "every call must build a fresh instance")

	_, err = catalog.New("lines_of_code")
	require.ErrorIs(t, err, ErrUnknownMetricKind)
}

func TestCatalog_Select(t *testing.T) {
	t.Parallel()

	catalog := DefaultCatalog()

	tests := []struct {
		name     string
		patterns []string
		want     []Kind
		wantErr  error
	}{
		{
			name:     "empty selects all",
			patterns: nil,
			want:     catalog.Kinds(),
		},
		{
			name:     "star selects all",
			patterns: []string{"*"},
			want:     catalog.Kinds(),
		},
		{
			name:     "exact names keep catalog order",
			patterns: []string{"code_churn", "number_of_commits"},
			want:     []Kind{KindNumberOfCommits, KindCodeChurn},
		},
		{
			name:     "glob deduplicates",
			patterns: []string{"number_of_*", " number_of_commits "},
			want:     []Kind{KindNumberOfCommits, KindNumberOfAuthors, KindNumberOfRenames},
		},
		{
			name:     "unknown name",
			patterns: []string{"complexity"},
			wantErr:  ErrUnknownMetricKind,
		},
		{
			name:     "glob without matches",
			patterns: []string{"rloc_*"},
			wantErr:  ErrUnknownMetricKind,
		},
		{
			name:     "empty pattern",
			patterns: []string{" "},
			wantErr:  ErrUnknownMetricKind,
		},
		{
			name:     "malformed glob",
			patterns: []string{"[number"},
			wantErr:  ErrInvalidMetricGlob,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			selected, err := catalog.Select(tt.patterns)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, selected.Kinds())
		})
	}
}
