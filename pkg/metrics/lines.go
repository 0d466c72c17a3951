package metrics

import "github.com/Sumatoshi-tech/scmlog/pkg/scm"

// Kinds of the line-count metrics.
const (
	KindAddedLines   Kind = "added_lines"
	KindDeletedLines Kind = "deleted_lines"
	KindCodeChurn    Kind = "code_churn"
)

// lineSum accumulates a line count selected from each modification.
type lineSum struct {
	total int64
	pick  func(scm.Modification) int64
}

// Value returns the accumulated line count.
func (m *lineSum) Value() int64 { return m.total }

// RegisterModification adds the modification's line count.
func (m *lineSum) RegisterModification(mod scm.Modification) {
	m.total += m.pick(mod)
}

// NewAddedLines creates a metric summing added lines.
func NewAddedLines() Metric {
	return &lineSum{pick: func(mod scm.Modification) int64 { return mod.AddedLines }}
}

// NewDeletedLines creates a metric summing deleted lines.
func NewDeletedLines() Metric {
	return &lineSum{pick: func(mod scm.Modification) int64 { return mod.DeletedLines }}
}

// NewCodeChurn creates a metric summing added and deleted lines.
func NewCodeChurn() Metric {
	return &lineSum{pick: func(mod scm.Modification) int64 { return mod.AddedLines + mod.DeletedLines }}
}
