package metrics

import "github.com/Sumatoshi-tech/scmlog/pkg/scm"

// Kinds of the counting metrics.
const (
	KindNumberOfCommits Kind = "number_of_commits"
	KindNumberOfRenames Kind = "number_of_renames"
	KindIsDeleted       Kind = "is_deleted"
)

// NumberOfOccurrencesInCommits counts how many modifications were registered for a file,
// whatever their change kind.
type NumberOfOccurrencesInCommits struct {
	count int64
}

// NewNumberOfOccurrencesInCommits creates a counter starting at zero.
func NewNumberOfOccurrencesInCommits() Metric {
	return &NumberOfOccurrencesInCommits{}
}

// Value returns the number of registered modifications.
func (m *NumberOfOccurrencesInCommits) Value() int64 { return m.count }

// RegisterModification increments the counter.
func (m *NumberOfOccurrencesInCommits) RegisterModification(_ scm.Modification) {
	m.count++
}

// NumberOfRenames counts modifications that moved the file.
type NumberOfRenames struct {
	count int64
}

// NewNumberOfRenames creates a rename counter starting at zero.
func NewNumberOfRenames() Metric {
	return &NumberOfRenames{}
}

// Value returns the number of renames seen.
func (m *NumberOfRenames) Value() int64 { return m.count }

// RegisterModification increments the counter for rename modifications only.
func (m *NumberOfRenames) RegisterModification(mod scm.Modification) {
	if mod.Kind == scm.KindRename {
		m.count++
	}
}

// IsDeleted reports 1 when the most recently registered modification deleted the file.
// It depends on registration order: a file deleted and later re-added reports 0.
type IsDeleted struct {
	deleted bool
}

// NewIsDeleted creates a flag that starts at 0.
func NewIsDeleted() Metric {
	return &IsDeleted{}
}

// Value returns 1 if the last change deleted the file, 0 otherwise.
func (m *IsDeleted) Value() int64 {
	if m.deleted {
		return 1
	}

	return 0
}

// RegisterModification records whether this modification deleted the file.
func (m *IsDeleted) RegisterModification(mod scm.Modification) {
	m.deleted = mod.Kind == scm.KindDelete
}
