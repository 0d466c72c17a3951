package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/scmlog/pkg/aggregate"
)

const (
	defaultChartFiles = 20
	xAxisRotate       = 60
	chartWidth        = "1200px"
	chartHeight       = "600px"
)

func writeHTML(w io.Writer, snap aggregate.Snapshot, cfg Options) error {
	top := cfg.Top
	if top <= 0 {
		top = defaultChartFiles
	}

	rows := Rank(snap, cfg.SortBy, top)
	sortName := displayName(cfg.Catalog, cfg.SortBy)

	labels := make([]string, 0, len(rows))
	data := make([]opts.BarData, 0, len(rows))

	for _, row := range rows {
		value, ok := row.Values[cfg.SortBy]
		if !ok {
			continue
		}

		labels = append(labels, row.File)
		data = append(data, opts.BarData{Value: value})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: cfg.ProjectName,
			Width:     chartWidth,
			Height:    chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    fmt.Sprintf("%s: top files by %s", cfg.ProjectName, sortName),
			Subtitle: fmt.Sprintf("%d of %d files", len(labels), len(snap)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Rotate: xAxisRotate, Interval: "0"},
		}),
	)
	bar.SetXAxis(labels).AddSeries(sortName, data)

	page := components.NewPage()
	page.PageTitle = cfg.ProjectName
	page.AddCharts(bar)

	err := page.Render(w)
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}

	return nil
}
