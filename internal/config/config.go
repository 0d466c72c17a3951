// Package config provides configuration loading and validation for scmlog.
package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Config is the top-level configuration struct for scmlog.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Metrics       []string            `mapstructure:"metrics"`
	Pipeline      PipelineConfig      `mapstructure:"pipeline"`
	Source        SourceConfig        `mapstructure:"source"`
	Sonar         SonarConfig         `mapstructure:"sonar"`
	Output        OutputConfig        `mapstructure:"output"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

// PipelineConfig holds aggregation resource knobs.
type PipelineConfig struct {
	// Workers is the number of aggregation shards. Zero selects GOMAXPROCS.
	Workers int `mapstructure:"workers"`
}

// SourceConfig controls which history is read and which files are kept.
type SourceConfig struct {
	SkipPrefixes  []string `mapstructure:"skip_prefixes"`
	SkipVendored  bool     `mapstructure:"skip_vendored"`
	Languages     []string `mapstructure:"languages"`
	FirstParent   bool     `mapstructure:"first_parent"`
	Since         string   `mapstructure:"since"`
	DetectRenames bool     `mapstructure:"detect_renames"`
	SkipLineStats bool     `mapstructure:"skip_line_stats"`
}

// SonarConfig holds paginated feed settings.
type SonarConfig struct {
	URL        string        `mapstructure:"url"`
	Project    string        `mapstructure:"project"`
	Token      string        `mapstructure:"token"`
	PageSize   int           `mapstructure:"page_size"`
	MaxRetries int           `mapstructure:"max_retries"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// OutputConfig holds report settings.
type OutputConfig struct {
	Format      string `mapstructure:"format"`
	SortBy      string `mapstructure:"sort_by"`
	Top         int    `mapstructure:"top"`
	ProjectName string `mapstructure:"project_name"`
	Compress    bool   `mapstructure:"compress"`
}

// ObservabilityConfig holds logging and telemetry settings.
type ObservabilityConfig struct {
	ServiceName  string `mapstructure:"service_name"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool   `mapstructure:"otlp_insecure"`
	LogLevel     string `mapstructure:"log_level"`
	LogJSON      bool   `mapstructure:"log_json"`
	MetricsFile  string `mapstructure:"metrics_file"`
}

// maxSonarPageSize is the largest page the feed serves.
const maxSonarPageSize = 500

// sinceLayouts are the accepted source.since formats.
var sinceLayouts = []string{time.RFC3339, time.DateTime, time.DateOnly}

// LogLevels lists accepted observability.log_level values.
func LogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidWorkers indicates the workers value is negative.
	ErrInvalidWorkers = errors.New("pipeline.workers must be non-negative")
	// ErrInvalidPageSize indicates the sonar page size is out of range.
	ErrInvalidPageSize = errors.New("sonar.page_size must be between 1 and 500")
	// ErrInvalidMaxRetries indicates the sonar retry count is negative.
	ErrInvalidMaxRetries = errors.New("sonar.max_retries must be non-negative")
	// ErrInvalidTimeout indicates the sonar timeout is negative.
	ErrInvalidTimeout = errors.New("sonar.timeout must be non-negative")
	// ErrInvalidTop indicates the output row limit is negative.
	ErrInvalidTop = errors.New("output.top must be non-negative")
	// ErrInvalidLogLevel indicates an unknown log level.
	ErrInvalidLogLevel = errors.New("observability.log_level must be one of debug, info, warn, error")
	// ErrInvalidSince indicates source.since is not a date.
	ErrInvalidSince = errors.New("source.since must be a date (2006-01-02) or RFC3339 timestamp")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if c.Pipeline.Workers < 0 {
		return ErrInvalidWorkers
	}

	sourceErr := c.validateSource()
	if sourceErr != nil {
		return sourceErr
	}

	sonarErr := c.validateSonar()
	if sonarErr != nil {
		return sonarErr
	}

	if c.Output.Top < 0 {
		return ErrInvalidTop
	}

	if !slices.Contains(LogLevels(), strings.ToLower(c.Observability.LogLevel)) {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Observability.LogLevel)
	}

	return nil
}

func (c *Config) validateSource() error {
	_, err := c.Source.SinceTime()

	return err
}

func (c *Config) validateSonar() error {
	if c.Sonar.PageSize < 1 || c.Sonar.PageSize > maxSonarPageSize {
		return ErrInvalidPageSize
	}

	if c.Sonar.MaxRetries < 0 {
		return ErrInvalidMaxRetries
	}

	if c.Sonar.Timeout < 0 {
		return ErrInvalidTimeout
	}

	return nil
}

// SinceTime parses Since. An empty value yields nil.
func (s SourceConfig) SinceTime() (*time.Time, error) {
	value := strings.TrimSpace(s.Since)
	if value == "" {
		return nil, nil //nolint:nilnil // no lower bound.
	}

	for _, layout := range sinceLayouts {
		parsed, err := time.Parse(layout, value)
		if err == nil {
			return &parsed, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrInvalidSince, s.Since)
}
