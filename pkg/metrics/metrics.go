// Package metrics provides the per-file metric kinds computed from source-control history.
//
// Each metric is a stateful unit that:
//   - Starts from a defined initial value (zero for counters)
//   - Consumes modifications one at a time, in the order the caller supplies them
//   - Exposes its current scalar value at any time
//
// A Metric instance belongs to exactly one file. It is never shared and never
// reset; starting over means constructing a new instance from its Factory.
package metrics

import "github.com/Sumatoshi-tech/scmlog/pkg/scm"

// Kind is the machine-readable identifier of a metric kind (snake_case, unique).
type Kind string

// String returns the kind identifier.
func (k Kind) String() string { return string(k) }

// Metric is the core interface that all metric kinds implement.
type Metric interface {
	// Value returns the current aggregate. It has no side effects.
	Value() int64

	// RegisterModification folds one modification of the owning file into the state.
	RegisterModification(mod scm.Modification)
}

// Factory constructs a fresh Metric instance.
type Factory func() Metric

// Metric categories.
const (
	TypeCount    = "count"
	TypeDistinct = "distinct"
	TypeSum      = "sum"
	TypeRange    = "range"
	TypeFlag     = "flag"
)

// MetricMeta holds the common metadata for a metric kind.
type MetricMeta struct {
	MetricName        Kind
	MetricDisplayName string
	MetricDescription string
	MetricType        string
}

// Name returns the machine-readable identifier.
func (m MetricMeta) Name() Kind { return m.MetricName }

// DisplayName returns a human-readable name for UI/reports.
func (m MetricMeta) DisplayName() string { return m.MetricDisplayName }

// Description returns detailed documentation.
func (m MetricMeta) Description() string { return m.MetricDescription }

// Type returns the metric category.
func (m MetricMeta) Type() string { return m.MetricType }

// Definition binds a metric kind's metadata to the factory that creates its instances.
type Definition struct {
	MetricMeta

	New Factory
}
