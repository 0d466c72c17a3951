package aggregate

import (
	"maps"
	"slices"

	"github.com/Sumatoshi-tech/scmlog/pkg/metrics"
)

// Snapshot maps each file identifier to its metric values at the end of a run.
type Snapshot map[string]map[metrics.Kind]int64

// Files returns the file identifiers in lexical order.
func (s Snapshot) Files() []string {
	return slices.Sorted(maps.Keys(s))
}

// Kinds returns the union of kinds present for any file, in lexical order.
func (s Snapshot) Kinds() []metrics.Kind {
	set := make(map[metrics.Kind]struct{})

	for _, values := range s {
		for kind := range values {
			set[kind] = struct{}{}
		}
	}

	return slices.Sorted(maps.Keys(set))
}

// Value returns the value of kind for file.
func (s Snapshot) Value(file string, kind metrics.Kind) (int64, bool) {
	values, ok := s[file]
	if !ok {
		return 0, false
	}

	value, ok := values[kind]

	return value, ok
}

// merge copies every file of other into s. File sets are expected to be disjoint.
func (s Snapshot) merge(other Snapshot) {
	maps.Copy(s, other)
}
