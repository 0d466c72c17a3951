package report

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/scmlog/pkg/aggregate"
	"github.com/Sumatoshi-tech/scmlog/pkg/metrics"
)

const missingValue = "-"

func writeTable(w io.Writer, snap aggregate.Snapshot, opts Options) error {
	heading := color.New(color.Bold, color.FgCyan)
	if opts.Color {
		heading.EnableColor()
	} else {
		heading.DisableColor()
	}

	kinds := opts.Catalog.Kinds()
	rows := Rank(snap, opts.SortBy, opts.Top)

	_, err := heading.Fprintf(w, "%s: %s files, sorted by %s\n",
		opts.ProjectName, humanize.Comma(int64(len(snap))), displayName(opts.Catalog, opts.SortBy))
	if err != nil {
		return fmt.Errorf("write heading: %w", err)
	}

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)

	header := table.Row{"#", "File"}
	for _, kind := range kinds {
		header = append(header, displayName(opts.Catalog, kind))
	}

	tbl.AppendHeader(header)

	columnConfigs := make([]table.ColumnConfig, 0, len(kinds))
	for i := range kinds {
		columnConfigs = append(columnConfigs, table.ColumnConfig{Number: i + 3, Align: text.AlignRight})
	}

	tbl.SetColumnConfigs(columnConfigs)

	for i, row := range rows {
		line := table.Row{i + 1, row.File}

		for _, kind := range kinds {
			value, ok := row.Values[kind]
			if !ok {
				line = append(line, missingValue)

				continue
			}

			line = append(line, humanize.Comma(value))
		}

		tbl.AppendRow(line)
	}

	if len(rows) < len(snap) {
		tbl.AppendFooter(table.Row{"", fmt.Sprintf("%s more files", humanize.Comma(int64(len(snap)-len(rows))))})
	}

	tbl.Render()

	return nil
}

func displayName(catalog *metrics.Catalog, kind metrics.Kind) string {
	def, ok := catalog.Definition(kind)
	if !ok || def.DisplayName() == "" {
		return string(kind)
	}

	return def.DisplayName()
}
