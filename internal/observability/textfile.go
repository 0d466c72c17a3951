package observability

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// ErrNoRegistry is returned when metrics are written without a gatherer.
var ErrNoRegistry = errors.New("no metrics registry")

// WriteMetricsFile dumps every metric of gatherer to path in the Prometheus text
// format, suitable for the node-exporter textfile collector. The file is replaced
// atomically.
func WriteMetricsFile(gatherer prometheus.Gatherer, path string) error {
	if gatherer == nil {
		return ErrNoRegistry
	}

	err := prometheus.WriteToTextfile(path, gatherer)
	if err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}

	return nil
}
