package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// configName is the config file name without extension.
const configName = ".scmlog"

// configType is the config file format.
const configType = "yaml"

// envPrefix is the environment variable prefix for scmlog settings.
const envPrefix = "SCMLOG"

// envKeySeparator is the nested key separator in environment variable names.
const envKeySeparator = "_"

// DotEnvFile is the dotenv file read from the working directory before
// environment variables are resolved.
const DotEnvFile = ".env"

// LoadConfig loads configuration from file, env vars, and defaults.
// If configPath is non-empty, it is used as the explicit config file path.
// Otherwise, the config file is searched in CWD and $HOME.
// Missing config file is not an error; defaults are used.
func LoadConfig(configPath string) (*Config, error) {
	envErr := LoadDotEnv(DotEnvFile)
	if envErr != nil {
		return nil, envErr
	}

	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFound) {
			return nil, fmt.Errorf("read config: %w", readErr)
		}
	}

	var cfg Config

	unmarshalErr := viperCfg.Unmarshal(&cfg)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal config: %w", unmarshalErr)
	}

	validateErr := cfg.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return &cfg, nil
}

// LoadDotEnv exports the variables in path into the process environment.
// Variables already set win. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("load %s: %w", path, err)
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("metrics", []string{})

	viperCfg.SetDefault("pipeline.workers", DefaultPipelineWorkers)

	viperCfg.SetDefault("source.skip_prefixes", []string{})
	viperCfg.SetDefault("source.skip_vendored", DefaultSourceSkipVendored)
	viperCfg.SetDefault("source.languages", []string{})
	viperCfg.SetDefault("source.first_parent", DefaultSourceFirstParent)
	viperCfg.SetDefault("source.since", "")
	viperCfg.SetDefault("source.detect_renames", DefaultSourceDetectRenames)
	viperCfg.SetDefault("source.skip_line_stats", DefaultSourceSkipLineStats)

	viperCfg.SetDefault("sonar.url", "")
	viperCfg.SetDefault("sonar.project", "")
	viperCfg.SetDefault("sonar.token", "")
	viperCfg.SetDefault("sonar.page_size", DefaultSonarPageSize)
	viperCfg.SetDefault("sonar.max_retries", DefaultSonarMaxRetries)
	viperCfg.SetDefault("sonar.timeout", DefaultSonarTimeout)

	viperCfg.SetDefault("output.format", DefaultOutputFormat)
	viperCfg.SetDefault("output.sort_by", DefaultOutputSortBy)
	viperCfg.SetDefault("output.top", DefaultOutputTop)
	viperCfg.SetDefault("output.project_name", "")
	viperCfg.SetDefault("output.compress", false)

	viperCfg.SetDefault("observability.service_name", DefaultServiceName)
	viperCfg.SetDefault("observability.otlp_endpoint", "")
	viperCfg.SetDefault("observability.otlp_insecure", false)
	viperCfg.SetDefault("observability.log_level", DefaultLogLevel)
	viperCfg.SetDefault("observability.log_json", false)
	viperCfg.SetDefault("observability.metrics_file", "")
}
