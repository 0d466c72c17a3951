package metrics

import (
	"errors"
	"fmt"
	pathpkg "path"
	"strings"
)

// ErrUnknownMetricKind is returned when a kind is not present in the catalog.
var ErrUnknownMetricKind = errors.New("unknown metric kind")

// ErrDuplicateMetricKind is returned when a catalog receives the same kind twice.
var ErrDuplicateMetricKind = errors.New("duplicate metric kind")

// ErrInvalidDefinition is returned for definitions without a name or factory.
var ErrInvalidDefinition = errors.New("invalid metric definition")

// ErrInvalidMetricGlob is returned when a selection pattern is malformed.
var ErrInvalidMetricGlob = errors.New("invalid metric glob")

// Catalog is the set of metric kinds known to a run, in deterministic order.
// Adding a kind means adding a Definition; routing code never changes.
type Catalog struct {
	ordered []Definition
	index   map[Kind]Definition
}

// NewCatalog creates a catalog from metric definitions. Order is preserved.
func NewCatalog(defs ...Definition) (*Catalog, error) {
	ordered := make([]Definition, 0, len(defs))
	index := make(map[Kind]Definition, len(defs))

	for _, def := range defs {
		if def.Name() == "" {
			return nil, fmt.Errorf("%w: empty name", ErrInvalidDefinition)
		}

		if def.New == nil {
			return nil, fmt.Errorf("%w: %s has no factory", ErrInvalidDefinition, def.Name())
		}

		if _, exists := index[def.Name()]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMetricKind, def.Name())
		}

		index[def.Name()] = def
		ordered = append(ordered, def)
	}

	return &Catalog{ordered: ordered, index: index}, nil
}

// MustCatalog is like NewCatalog but panics on error. Use for static catalogs.
func MustCatalog(defs ...Definition) *Catalog {
	catalog, err := NewCatalog(defs...)
	if err != nil {
		panic(err)
	}

	return catalog
}

// Len returns the number of kinds in the catalog.
func (c *Catalog) Len() int {
	return len(c.ordered)
}

// Kinds returns all kinds in stable order.
func (c *Catalog) Kinds() []Kind {
	kinds := make([]Kind, len(c.ordered))
	for i, def := range c.ordered {
		kinds[i] = def.Name()
	}

	return kinds
}

// Definitions returns all definitions in stable order.
func (c *Catalog) Definitions() []Definition {
	defs := make([]Definition, len(c.ordered))
	copy(defs, c.ordered)

	return defs
}

// Definition returns the definition for the given kind.
func (c *Catalog) Definition(kind Kind) (Definition, bool) {
	def, ok := c.index[kind]

	return def, ok
}

// New creates a fresh metric instance of the given kind.
func (c *Catalog) New(kind Kind) (Metric, error) {
	def, ok := c.index[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMetricKind, kind)
	}

	return def.New(), nil
}

// Select returns a sub-catalog holding the kinds named by patterns, in catalog order.
// Patterns are exact kind names or path.Match globs; "*" selects everything.
// An empty pattern list selects the whole catalog.
func (c *Catalog) Select(patterns []string) (*Catalog, error) {
	if len(patterns) == 0 {
		return c, nil
	}

	selected := make(map[Kind]struct{}, len(c.ordered))

	for _, raw := range patterns {
		kinds, err := c.resolvePattern(strings.TrimSpace(raw))
		if err != nil {
			return nil, err
		}

		for _, kind := range kinds {
			selected[kind] = struct{}{}
		}
	}

	defs := make([]Definition, 0, len(selected))

	for _, def := range c.ordered {
		if _, ok := selected[def.Name()]; ok {
			defs = append(defs, def)
		}
	}

	return NewCatalog(defs...)
}

func (c *Catalog) resolvePattern(pattern string) ([]Kind, error) {
	if pattern == "" {
		return nil, fmt.Errorf("%w: empty pattern", ErrUnknownMetricKind)
	}

	if !hasGlobMeta(pattern) {
		if _, ok := c.index[Kind(pattern)]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMetricKind, pattern)
		}

		return []Kind{Kind(pattern)}, nil
	}

	matched := make([]Kind, 0, len(c.ordered))

	for _, def := range c.ordered {
		isMatch, err := pathpkg.Match(pattern, string(def.Name()))
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrInvalidMetricGlob, pattern, err)
		}

		if isMatch {
			matched = append(matched, def.Name())
		}
	}

	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMetricKind, pattern)
	}

	return matched, nil
}

func hasGlobMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}
