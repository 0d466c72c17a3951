package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCommitsTotal       = "scmlog.run.commits.total"
	metricModificationsTotal = "scmlog.run.modifications.total"
	metricFiles              = "scmlog.run.files"
	metricDuration           = "scmlog.run.duration.seconds"
	metricErrorsTotal        = "scmlog.run.errors.total"

	attrSource = "source"
)

// durationBucketBoundaries covers 10ms to 600s, from small logs to large
// repository walks.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// RunMetrics holds OTel instruments describing aggregation runs.
type RunMetrics struct {
	commitsTotal       metric.Int64Counter
	modificationsTotal metric.Int64Counter
	files              metric.Int64Gauge
	duration           metric.Float64Histogram
	errorsTotal        metric.Int64Counter
}

// RunStats holds the outcome of one aggregation run, decoupled from engine types.
type RunStats struct {
	// Source names the commit source kind (git-log, repo, sonar).
	Source        string
	Commits       int64
	Modifications int64
	Files         int
	Duration      time.Duration
	Err           error
}

// NewRunMetrics creates run metric instruments from the given meter.
func NewRunMetrics(mt metric.Meter) (*RunMetrics, error) {
	b := newMetricBuilder(mt)

	rm := &RunMetrics{
		commitsTotal:       b.counter(metricCommitsTotal, "Total commits aggregated", "{commit}"),
		modificationsTotal: b.counter(metricModificationsTotal, "Total file modifications aggregated", "{modification}"),
		files:              b.gauge(metricFiles, "Files in the last snapshot", "{file}"),
		duration: b.histogram(metricDuration, "Aggregation run duration in seconds", "s",
			durationBucketBoundaries...),
		errorsTotal: b.counter(metricErrorsTotal, "Failed aggregation runs", "{run}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return rm, nil
}

// RecordRun records statistics for a finished run.
// Safe to call on a nil receiver (no-op).
func (rm *RunMetrics) RecordRun(ctx context.Context, stats RunStats) {
	if rm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrSource, stats.Source))

	rm.commitsTotal.Add(ctx, stats.Commits, attrs)
	rm.modificationsTotal.Add(ctx, stats.Modifications, attrs)
	rm.duration.Record(ctx, stats.Duration.Seconds(), attrs)

	if stats.Err != nil {
		rm.errorsTotal.Add(ctx, 1, attrs)

		return
	}

	rm.files.Record(ctx, int64(stats.Files), attrs)
}
