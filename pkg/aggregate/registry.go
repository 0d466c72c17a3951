// Package aggregate routes source-control modifications to per-file metric instances
// and drives complete aggregation runs over a commit history.
package aggregate

import (
	"fmt"

	"github.com/Sumatoshi-tech/scmlog/pkg/metrics"
	"github.com/Sumatoshi-tech/scmlog/pkg/scm"
)

// slotKey identifies one (file, kind) metric slot.
type slotKey struct {
	file string
	kind metrics.Kind
}

// Registry owns one Metric instance per (file, kind) pair for the lifetime of a run.
//
// Instances are created on first observation and never replaced. A Registry has a
// single writer: it is not safe for concurrent use.
type Registry struct {
	catalog *metrics.Catalog
	slots   map[slotKey]metrics.Metric
	// files keeps the kinds observed per file in first-touch order.
	files map[string][]metrics.Kind
}

// NewRegistry creates an empty registry creating instances from catalog.
func NewRegistry(catalog *metrics.Catalog) *Registry {
	return &Registry{
		catalog: catalog,
		slots:   make(map[slotKey]metrics.Metric),
		files:   make(map[string][]metrics.Kind),
	}
}

// Observe routes mod to the (fileID, kind) instance, creating it on first sighting.
// It fails with metrics.ErrUnknownMetricKind for kinds absent from the catalog and
// with scm.ErrInvalidArgument for malformed input; the table is left untouched in
// both cases.
func (r *Registry) Observe(fileID string, kind metrics.Kind, mod scm.Modification) error {
	if fileID == "" {
		return fmt.Errorf("%w: empty file id", scm.ErrInvalidArgument)
	}

	err := mod.Validate()
	if err != nil {
		return err
	}

	metric, err := r.slot(fileID, kind)
	if err != nil {
		return err
	}

	metric.RegisterModification(mod)

	return nil
}

// slot returns the instance for (fileID, kind), creating it if needed.
func (r *Registry) slot(fileID string, kind metrics.Kind) (metrics.Metric, error) {
	key := slotKey{file: fileID, kind: kind}

	if metric, ok := r.slots[key]; ok {
		return metric, nil
	}

	metric, err := r.catalog.New(kind)
	if err != nil {
		return nil, err
	}

	r.slots[key] = metric
	r.files[fileID] = append(r.files[fileID], kind)

	return metric, nil
}

// Metric returns the live instance for (fileID, kind), if one was created.
func (r *Registry) Metric(fileID string, kind metrics.Kind) (metrics.Metric, bool) {
	metric, ok := r.slots[slotKey{file: fileID, kind: kind}]

	return metric, ok
}

// Len returns the number of tracked files.
func (r *Registry) Len() int {
	return len(r.files)
}

// Snapshot returns the current values of every tracked file across the kinds observed
// for it. Files and kinds never observed are absent. The result is a copy owned by
// the caller.
func (r *Registry) Snapshot() Snapshot {
	snap := make(Snapshot, len(r.files))

	for file, kinds := range r.files {
		values := make(map[metrics.Kind]int64, len(kinds))

		for _, kind := range kinds {
			values[kind] = r.slots[slotKey{file: file, kind: kind}].Value()
		}

		snap[file] = values
	}

	return snap
}
