package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/scmlog/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".scmlog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_EmptyFile_UsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Empty(t, cfg.Metrics)
	assert.Equal(t, config.DefaultPipelineWorkers, cfg.Pipeline.Workers)
	assert.Equal(t, config.DefaultSourceDetectRenames, cfg.Source.DetectRenames)
	assert.Equal(t, config.DefaultSonarPageSize, cfg.Sonar.PageSize)
	assert.Equal(t, config.DefaultSonarMaxRetries, cfg.Sonar.MaxRetries)
	assert.Equal(t, config.DefaultSonarTimeout, cfg.Sonar.Timeout)
	assert.Equal(t, config.DefaultOutputFormat, cfg.Output.Format)
	assert.Equal(t, config.DefaultOutputSortBy, cfg.Output.SortBy)
	assert.Equal(t, config.DefaultOutputTop, cfg.Output.Top)
	assert.Equal(t, config.DefaultServiceName, cfg.Observability.ServiceName)
	assert.Equal(t, config.DefaultLogLevel, cfg.Observability.LogLevel)
}

func TestLoadConfig_ValidFile_Unmarshals(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `metrics:
  - number_of_*
  - code_churn
pipeline:
  workers: 8
source:
  skip_prefixes: [vendor/, third_party/]
  skip_vendored: true
  languages: [Go, Python]
  first_parent: true
  since: "2023-01-01"
sonar:
  url: https://sonar.example.com
  project: demo
  token: secret
  page_size: 250
  max_retries: 5
  timeout: 10s
output:
  format: json
  sort_by: code_churn
  top: 50
  project_name: demo
observability:
  otlp_endpoint: localhost:4317
  otlp_insecure: true
  log_level: debug
  log_json: true
  metrics_file: /tmp/scmlog.prom
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	expectedWorkers := 8
	expectedPageSize := 250
	expectedRetries := 5
	expectedTop := 50

	assert.Equal(t, []string{"number_of_*", "code_churn"}, cfg.Metrics)
	assert.Equal(t, expectedWorkers, cfg.Pipeline.Workers)
	assert.Equal(t, []string{"vendor/", "third_party/"}, cfg.Source.SkipPrefixes)
	assert.True(t, cfg.Source.SkipVendored)
	assert.Equal(t, []string{"Go", "Python"}, cfg.Source.Languages)
	assert.True(t, cfg.Source.FirstParent)
	assert.Equal(t, "2023-01-01", cfg.Source.Since)
	assert.Equal(t, "https://sonar.example.com", cfg.Sonar.URL)
	assert.Equal(t, "demo", cfg.Sonar.Project)
	assert.Equal(t, "secret", cfg.Sonar.Token)
	assert.Equal(t, expectedPageSize, cfg.Sonar.PageSize)
	assert.Equal(t, expectedRetries, cfg.Sonar.MaxRetries)
	assert.Equal(t, 10*time.Second, cfg.Sonar.Timeout)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, "code_churn", cfg.Output.SortBy)
	assert.Equal(t, expectedTop, cfg.Output.Top)
	assert.Equal(t, "demo", cfg.Output.ProjectName)
	assert.Equal(t, "localhost:4317", cfg.Observability.OTLPEndpoint)
	assert.True(t, cfg.Observability.OTLPInsecure)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.True(t, cfg.Observability.LogJSON)
	assert.Equal(t, "/tmp/scmlog.prom", cfg.Observability.MetricsFile)
}

func TestLoadConfig_MalformedYAML_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, "pipeline:\n  workers: [invalid yaml\n"))
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadConfig_InvalidValue_ReturnsError(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, "sonar:\n  page_size: 1000\n"))
	require.ErrorIs(t, err, config.ErrInvalidPageSize)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "validate config")
}

func TestLoadConfig_PartialConfig_MergesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, "output:\n  top: 5\n"))
	require.NoError(t, err)

	expectedTop := 5

	assert.Equal(t, expectedTop, cfg.Output.Top)
	assert.Equal(t, config.DefaultOutputFormat, cfg.Output.Format)
	assert.Equal(t, config.DefaultSonarPageSize, cfg.Sonar.PageSize)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	t.Setenv("SCMLOG_PIPELINE_WORKERS", "32")
	t.Setenv("SCMLOG_SONAR_TOKEN", "from-env")

	cfg, err := config.LoadConfig(writeConfig(t, "sonar:\n  token: from-file\n"))
	require.NoError(t, err)

	expectedWorkers := 32

	assert.Equal(t, expectedWorkers, cfg.Pipeline.Workers)
	assert.Equal(t, "from-env", cfg.Sonar.Token)
}

func TestLoadDotEnv(t *testing.T) {
	const key = "SCMLOG_TEST_DOTENV_VALUE"

	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-dotenv\n"), 0o600))

	require.NoError(t, config.LoadDotEnv(path))
	assert.Equal(t, "from-dotenv", os.Getenv(key))

	require.NoError(t, config.LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}

func TestLoadDotEnv_ExistingVariableWins(t *testing.T) {
	const key = "SCMLOG_TEST_DOTENV_PRESET"

	t.Setenv(key, "preset")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-dotenv\n"), 0o600))

	require.NoError(t, config.LoadDotEnv(path))
	assert.Equal(t, "preset", os.Getenv(key))
}
