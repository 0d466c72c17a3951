// Package report renders aggregation snapshots for people and tools.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/scmlog/internal/project"
	"github.com/Sumatoshi-tech/scmlog/pkg/aggregate"
	"github.com/Sumatoshi-tech/scmlog/pkg/metrics"
)

// ErrUnknownFormat is returned for output formats this package cannot render.
var ErrUnknownFormat = errors.New("unknown output format")

// Format names an output format.
type Format string

// Supported formats.
const (
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
	FormatTable   Format = "table"
	FormatHTML    Format = "html"
	FormatProject Format = "project"
)

// Formats returns every supported format in help-text order.
func Formats() []Format {
	return []Format{FormatTable, FormatJSON, FormatYAML, FormatProject, FormatHTML}
}

// ParseFormat validates a format name, case-insensitively.
func ParseFormat(name string) (Format, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	if slices.Contains(Formats(), format) {
		return format, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Options tune rendering.
type Options struct {
	Format Format
	// Catalog provides column order and display names. Defaults to the built-in catalog.
	Catalog *metrics.Catalog
	// SortBy ranks files in table and html output. Defaults to the first catalog kind.
	SortBy metrics.Kind
	// Top limits table and html rows; zero keeps every file in tables and
	// defaultChartFiles in charts.
	Top int
	// ProjectName names the project document.
	ProjectName string
	// Color enables ANSI colors in table output.
	Color bool
	// Compress LZ4-frames project output.
	Compress bool
}

func (o Options) withDefaults() Options {
	if o.Catalog == nil {
		o.Catalog = metrics.DefaultCatalog()
	}

	if o.SortBy == "" && o.Catalog.Len() > 0 {
		o.SortBy = o.Catalog.Kinds()[0]
	}

	if o.ProjectName == "" {
		o.ProjectName = "scmlog"
	}

	return o
}

// Write renders snap to w.
func Write(w io.Writer, snap aggregate.Snapshot, opts Options) error {
	opts = opts.withDefaults()

	_, known := opts.Catalog.Definition(opts.SortBy)
	if !known {
		return fmt.Errorf("sort by: %w: %s", metrics.ErrUnknownMetricKind, opts.SortBy)
	}

	switch opts.Format {
	case FormatJSON:
		return writeJSON(w, snap)
	case FormatYAML:
		return writeYAML(w, snap)
	case FormatTable:
		return writeTable(w, snap, opts)
	case FormatHTML:
		return writeHTML(w, snap, opts)
	case FormatProject:
		doc, err := project.Build(opts.ProjectName, snap)
		if err != nil {
			return err
		}

		return project.Write(w, doc, opts.Compress)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, opts.Format)
	}
}

func writeJSON(w io.Writer, snap aggregate.Snapshot) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	err := encoder.Encode(nonNil(snap))
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}

	return nil
}

func writeYAML(w io.Writer, snap aggregate.Snapshot) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	err := encoder.Encode(nonNil(snap))
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	err = encoder.Close()
	if err != nil {
		return fmt.Errorf("close yaml encoder: %w", err)
	}

	return nil
}

func nonNil(snap aggregate.Snapshot) aggregate.Snapshot {
	if snap == nil {
		return aggregate.Snapshot{}
	}

	return snap
}
