package metrics

import "github.com/Sumatoshi-tech/scmlog/pkg/scm"

// KindNumberOfAuthors is the kind of the distinct-author metric.
const KindNumberOfAuthors Kind = "number_of_authors"

// NumberOfAuthors counts the distinct authors that modified a file.
// Modifications without an author are ignored.
type NumberOfAuthors struct {
	authors map[string]struct{}
}

// NewNumberOfAuthors creates an author counter starting at zero.
func NewNumberOfAuthors() Metric {
	return &NumberOfAuthors{authors: make(map[string]struct{})}
}

// Value returns the number of distinct authors.
func (m *NumberOfAuthors) Value() int64 { return int64(len(m.authors)) }

// RegisterModification remembers the modification's author.
func (m *NumberOfAuthors) RegisterModification(mod scm.Modification) {
	if mod.Author == "" {
		return
	}

	m.authors[mod.Author] = struct{}{}
}
