package config

import "time"

// Pipeline default values.
const (
	DefaultPipelineWorkers = 0
)

// Source defaults.
const (
	DefaultSourceSkipVendored  = false
	DefaultSourceFirstParent   = false
	DefaultSourceDetectRenames = true
	DefaultSourceSkipLineStats = false
)

// Sonar feed defaults.
const (
	DefaultSonarPageSize   = 100
	DefaultSonarMaxRetries = 3
	DefaultSonarTimeout    = 30 * time.Second
)

// Output defaults.
const (
	DefaultOutputFormat = "table"
	DefaultOutputSortBy = "number_of_commits"
	DefaultOutputTop    = 25
)

// Observability defaults.
const (
	DefaultServiceName = "scmlog"
	DefaultLogLevel    = "info"
)
