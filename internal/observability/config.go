// Package observability provides OpenTelemetry-based tracing, metrics, and
// structured logging for scmlog.
package observability

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

const (
	// defaultServiceName is the default OTel service name.
	defaultServiceName = "scmlog"

	// defaultShutdownTimeout bounds the flush on shutdown.
	defaultShutdownTimeout = 5 * time.Second
)

// ErrUnknownLogLevel is returned by ParseLogLevel for unrecognised names.
var ErrUnknownLogLevel = errors.New("unknown log level")

// Config holds all observability configuration.
type Config struct {
	// ServiceName is the OTel resource service name.
	ServiceName string

	// ServiceVersion is the semantic version of the running binary.
	ServiceVersion string

	// OTLPEndpoint is the OTLP gRPC collector address (e.g. "localhost:4317").
	// Empty disables export.
	OTLPEndpoint string

	// OTLPInsecure disables TLS for the OTLP gRPC connection.
	OTLPInsecure bool

	// LogLevel controls the minimum slog severity.
	LogLevel slog.Level

	// LogJSON enables JSON-formatted log output.
	LogJSON bool

	// LogOutput receives log records. Defaults to os.Stderr.
	LogOutput io.Writer

	// ShutdownTimeout is the maximum time to wait for flush on shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults for zero-config startup.
func DefaultConfig() Config {
	return Config{
		ServiceName:     defaultServiceName,
		LogLevel:        slog.LevelInfo,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// ParseLogLevel maps debug, info, warn and error to slog levels.
func ParseLogLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLogLevel, name)
	}
}
