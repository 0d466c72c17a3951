package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/scmlog/internal/config"
	"github.com/Sumatoshi-tech/scmlog/internal/observability"
	"github.com/Sumatoshi-tech/scmlog/internal/project"
	"github.com/Sumatoshi-tech/scmlog/internal/report"
	"github.com/Sumatoshi-tech/scmlog/internal/source/gitlog"
	"github.com/Sumatoshi-tech/scmlog/internal/source/gitrepo"
	"github.com/Sumatoshi-tech/scmlog/internal/source/sonar"
	"github.com/Sumatoshi-tech/scmlog/pkg/aggregate"
	"github.com/Sumatoshi-tech/scmlog/pkg/metrics"
	"github.com/Sumatoshi-tech/scmlog/pkg/scm"
	"github.com/Sumatoshi-tech/scmlog/pkg/version"
)

// Source kinds, also used as the metrics source label.
const (
	sourceGitLog = "git-log"
	sourceRepo   = "repo"
	sourceSonar  = "sonar"
)

const lz4Suffix = ".lz4"

var (
	// ErrNoSource is returned when no history source is given.
	ErrNoSource = errors.New("no source given: use one of --git-log, --repo or --sonar-url")
	// ErrMultipleSources is returned when more than one history source is given.
	ErrMultipleSources = errors.New("only one of --git-log, --repo and --sonar-url may be given")
)

// AggregateCommand holds flags and dependencies of the aggregate command.
type AggregateCommand struct {
	globals *GlobalOptions

	configPath string

	gitLog       string
	repo         string
	sonarURL     string
	sonarProject string

	format      string
	output      string
	metrics     []string
	workers     int
	sortBy      string
	top         int
	projectName string

	firstParent  bool
	since        string
	skip         []string
	skipVendored bool
	languages    []string
	metricsFile  string
}

// NewAggregateCommand creates the aggregate command.
func NewAggregateCommand(globals *GlobalOptions) *cobra.Command {
	if globals == nil {
		globals = &GlobalOptions{}
	}

	ac := &AggregateCommand{globals: globals}

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Aggregate per-file metrics from a commit history",
		Long: `Aggregate per-file metrics from exactly one commit history source:
a git log text file (--git-log, "-" for stdin), a local repository (--repo)
or a paginated commit feed (--sonar-url).

Produce the log with, for example:
  git log --reverse --numstat --date=iso > history.log`,
		Args: cobra.NoArgs,
		RunE: ac.run,
	}

	formats := make([]string, 0, len(report.Formats()))
	for _, format := range report.Formats() {
		formats = append(formats, string(format))
	}

	cmd.Flags().StringVar(&ac.configPath, "config", "", "Config file (default: .scmlog.yaml in CWD or $HOME)")

	cmd.Flags().StringVar(&ac.gitLog, "git-log", "", "Git log text file to read (\"-\" for stdin, .lz4 accepted)")
	cmd.Flags().StringVar(&ac.repo, "repo", "", "Git repository to walk")
	cmd.Flags().StringVar(&ac.sonarURL, "sonar-url", "", "Base URL of a paginated commit feed")
	cmd.Flags().StringVar(&ac.sonarProject, "sonar-project", "", "Project key sent to the commit feed")

	cmd.Flags().StringVar(&ac.format, "format", config.DefaultOutputFormat,
		"Output format: "+strings.Join(formats, ", "))
	cmd.Flags().StringVarP(&ac.output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringSliceVarP(&ac.metrics, "metrics", "m", nil,
		"Metric names or glob patterns (example: number_of_*,code_churn; default: all)")
	cmd.Flags().IntVar(&ac.workers, "workers", config.DefaultPipelineWorkers, "Number of aggregation shards (0 = use CPU count)")
	cmd.Flags().StringVar(&ac.sortBy, "sort-by", config.DefaultOutputSortBy, "Metric used to rank files in table and html output")
	cmd.Flags().IntVar(&ac.top, "top", config.DefaultOutputTop, "Rows in table and html output (0 = all)")
	cmd.Flags().StringVar(&ac.projectName, "project-name", "", "Project name in reports (default: source name)")

	cmd.Flags().BoolVar(&ac.firstParent, "first-parent", false, "Follow only the first parent of merge commits (--repo)")
	cmd.Flags().StringVar(&ac.since, "since", "", "Only aggregate commits made after this date (2006-01-02 or RFC3339)")
	cmd.Flags().StringSliceVar(&ac.skip, "skip", nil, "Skip files under these path prefixes (example: vendor/,docs/)")
	cmd.Flags().BoolVar(&ac.skipVendored, "skip-vendored", false, "Skip vendored and third-party files")
	cmd.Flags().StringSliceVar(&ac.languages, "languages", nil, "Keep only files in these languages (example: Go,Python)")
	cmd.Flags().StringVar(&ac.metricsFile, "metrics-file", "", "Write run metrics in Prometheus text format to this file")

	return cmd
}

func (ac *AggregateCommand) run(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadConfig(ac.configPath)
	if err != nil {
		return err
	}

	ac.applyFlags(cmd, cfg)

	validateErr := cfg.Validate()
	if validateErr != nil {
		return fmt.Errorf("validate flags: %w", validateErr)
	}

	format, err := report.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	catalog, err := metrics.DefaultCatalog().Select(cfg.Metrics)
	if err != nil {
		return err
	}

	sortBy, err := ac.resolveSortBy(cmd, catalog, cfg.Output.SortBy)
	if err != nil {
		return err
	}

	providers, err := ac.initObservability(cmd, cfg)
	if err != nil {
		return err
	}

	defer func() {
		shutdownErr := providers.Shutdown(context.WithoutCancel(cmd.Context()))
		if shutdownErr != nil {
			providers.Logger.Warn("telemetry shutdown failed", "error", shutdownErr)
		}
	}()

	ctx := cmd.Context()
	logger := providers.Logger

	src, sourceKind, closeSource, err := ac.openSource(cmd, cfg, logger)
	if err != nil {
		return err
	}

	defer func() {
		closeErr := closeSource()
		if closeErr != nil {
			logger.Warn("close source failed", "error", closeErr)
		}
	}()

	src, err = wrapSource(src, sourceKind, cfg.Source)
	if err != nil {
		return err
	}

	workers := cfg.Pipeline.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	logger.DebugContext(ctx, "aggregation started",
		"source", sourceKind, "metrics", len(catalog.Kinds()), "workers", workers)

	runner := aggregate.NewRunner(catalog, aggregate.WithTracer(providers.Tracer))
	snap, stats, runErr := runner.RunPartitioned(ctx, src, workers)

	recordErr := ac.recordRun(ctx, providers, cfg, sourceKind, stats, runErr)
	if recordErr != nil {
		logger.WarnContext(ctx, "run metrics not written", "error", recordErr)
	}

	if runErr != nil {
		logFailure(ctx, logger, runErr)

		return runErr
	}

	logger.InfoContext(ctx, "aggregation finished",
		"commits", humanize.Comma(stats.Commits),
		"modifications", humanize.Comma(stats.Modifications),
		"files", humanize.Comma(int64(stats.Files)),
		"duration", stats.Duration.Round(time.Millisecond))

	projectName := cfg.Output.ProjectName
	if projectName == "" {
		projectName = ac.defaultProjectName(cfg)
	}

	return ac.writeReport(cmd, snap, report.Options{
		Format:      format,
		Catalog:     catalog,
		SortBy:      sortBy,
		Top:         cfg.Output.Top,
		ProjectName: projectName,
		Color:       ac.output == "" && !color.NoColor,
		Compress:    cfg.Output.Compress || strings.HasSuffix(ac.output, lz4Suffix),
	})
}

// applyFlags overlays explicitly set flags on the loaded configuration.
func (ac *AggregateCommand) applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()

	if flags.Changed("sonar-url") {
		cfg.Sonar.URL = ac.sonarURL
	}

	if flags.Changed("sonar-project") {
		cfg.Sonar.Project = ac.sonarProject
	}

	if flags.Changed("format") {
		cfg.Output.Format = ac.format
	}

	if flags.Changed("metrics") {
		cfg.Metrics = ac.metrics
	}

	if flags.Changed("workers") {
		cfg.Pipeline.Workers = ac.workers
	}

	if flags.Changed("sort-by") {
		cfg.Output.SortBy = ac.sortBy
	}

	if flags.Changed("top") {
		cfg.Output.Top = ac.top
	}

	if flags.Changed("project-name") {
		cfg.Output.ProjectName = ac.projectName
	}

	if flags.Changed("first-parent") {
		cfg.Source.FirstParent = ac.firstParent
	}

	if flags.Changed("since") {
		cfg.Source.Since = ac.since
	}

	if flags.Changed("skip") {
		cfg.Source.SkipPrefixes = ac.skip
	}

	if flags.Changed("skip-vendored") {
		cfg.Source.SkipVendored = ac.skipVendored
	}

	if flags.Changed("languages") {
		cfg.Source.Languages = ac.languages
	}

	if flags.Changed("metrics-file") {
		cfg.Observability.MetricsFile = ac.metricsFile
	}

	if ac.globals.LogJSON {
		cfg.Observability.LogJSON = true
	}
}

// resolveSortBy checks the ranking metric against the selected catalog. The
// configured default falls back to the first selected metric when it was
// filtered out; an explicit --sort-by must be selected.
func (ac *AggregateCommand) resolveSortBy(cmd *cobra.Command, catalog *metrics.Catalog, name string) (metrics.Kind, error) {
	kind := metrics.Kind(name)

	_, selected := catalog.Definition(kind)
	if selected {
		return kind, nil
	}

	if cmd.Flags().Changed("sort-by") {
		return "", fmt.Errorf("--sort-by: %w: %s", metrics.ErrUnknownMetricKind, name)
	}

	return "", nil
}

func (ac *AggregateCommand) initObservability(cmd *cobra.Command, cfg *config.Config) (observability.Providers, error) {
	level, err := observability.ParseLogLevel(cfg.Observability.LogLevel)
	if err != nil {
		return observability.Providers{}, err
	}

	switch {
	case ac.globals.Quiet:
		level = slog.LevelError
	case ac.globals.Verbose:
		level = slog.LevelDebug
	}

	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceName = cfg.Observability.ServiceName
	obsCfg.ServiceVersion = version.Version
	obsCfg.OTLPEndpoint = cfg.Observability.OTLPEndpoint
	obsCfg.OTLPInsecure = cfg.Observability.OTLPInsecure
	obsCfg.LogLevel = level
	obsCfg.LogJSON = cfg.Observability.LogJSON
	obsCfg.LogOutput = cmd.ErrOrStderr()

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return observability.Providers{}, fmt.Errorf("init observability: %w", err)
	}

	return providers, nil
}

func (ac *AggregateCommand) selectedSources(cfg *config.Config) []string {
	var kinds []string

	if ac.gitLog != "" {
		kinds = append(kinds, sourceGitLog)
	}

	if ac.repo != "" {
		kinds = append(kinds, sourceRepo)
	}

	if ac.sonarURL != "" {
		kinds = append(kinds, sourceSonar)
	}

	if len(kinds) == 0 && cfg.Sonar.URL != "" {
		kinds = append(kinds, sourceSonar)
	}

	return kinds
}

func (ac *AggregateCommand) openSource(
	cmd *cobra.Command, cfg *config.Config, logger *slog.Logger,
) (scm.Source, string, func() error, error) {
	kinds := ac.selectedSources(cfg)

	switch len(kinds) {
	case 0:
		return nil, "", nil, ErrNoSource
	case 1:
	default:
		return nil, "", nil, fmt.Errorf("%w: got %s", ErrMultipleSources, strings.Join(kinds, ", "))
	}

	noClose := func() error { return nil }

	switch kinds[0] {
	case sourceGitLog:
		if ac.gitLog == "-" {
			return gitlog.NewReader(cmd.InOrStdin()), sourceGitLog, noClose, nil
		}

		reader, err := gitlog.Open(ac.gitLog)
		if err != nil {
			return nil, "", nil, err
		}

		return reader, sourceGitLog, reader.Close, nil
	case sourceRepo:
		since, err := cfg.Source.SinceTime()
		if err != nil {
			return nil, "", nil, err
		}

		opts := gitrepo.DefaultOptions()
		opts.FirstParent = cfg.Source.FirstParent
		opts.Since = since
		opts.DetectRenames = cfg.Source.DetectRenames
		opts.SkipLineStats = cfg.Source.SkipLineStats
		opts.Logger = logger

		repoSource, err := gitrepo.Open(ac.repo, opts)
		if err != nil {
			return nil, "", nil, err
		}

		return repoSource, sourceRepo, repoSource.Close, nil
	default:
		sonarCfg := sonar.DefaultConfig()
		sonarCfg.BaseURL = cfg.Sonar.URL
		sonarCfg.Project = cfg.Sonar.Project
		sonarCfg.Token = cfg.Sonar.Token
		sonarCfg.PageSize = cfg.Sonar.PageSize
		sonarCfg.MaxRetries = cfg.Sonar.MaxRetries
		sonarCfg.Timeout = cfg.Sonar.Timeout
		sonarCfg.Logger = logger

		client, err := sonar.NewClient(sonarCfg)
		if err != nil {
			return nil, "", nil, err
		}

		return sonar.NewSource(client), sourceSonar, noClose, nil
	}
}

// wrapSource applies path and date filters. The repository walk handles the
// date filter itself.
func wrapSource(src scm.Source, kind string, cfg config.SourceConfig) (scm.Source, error) {
	if kind != sourceRepo {
		since, err := cfg.SinceTime()
		if err != nil {
			return nil, err
		}

		if since != nil {
			src = scm.NewSinceSource(src, *since)
		}
	}

	filter := scm.PathFilter{
		SkipPrefixes: slices.DeleteFunc(slices.Clone(cfg.SkipPrefixes), func(p string) bool { return p == "" }),
		SkipVendored: cfg.SkipVendored,
		Languages:    cfg.Languages,
	}

	return scm.NewFilterSource(src, filter), nil
}

func (ac *AggregateCommand) recordRun(
	ctx context.Context,
	providers observability.Providers,
	cfg *config.Config,
	sourceKind string,
	stats aggregate.Stats,
	runErr error,
) error {
	runMetrics, err := observability.NewRunMetrics(providers.Meter)
	if err != nil {
		return err
	}

	runMetrics.RecordRun(ctx, observability.RunStats{
		Source:        sourceKind,
		Commits:       stats.Commits,
		Modifications: stats.Modifications,
		Files:         stats.Files,
		Duration:      stats.Duration,
		Err:           runErr,
	})

	if cfg.Observability.MetricsFile == "" {
		return nil
	}

	return observability.WriteMetricsFile(providers.Registry, cfg.Observability.MetricsFile)
}

func (ac *AggregateCommand) defaultProjectName(cfg *config.Config) string {
	switch {
	case ac.repo != "":
		return baseName(ac.repo)
	case ac.gitLog != "" && ac.gitLog != "-":
		return strings.TrimSuffix(baseName(ac.gitLog), lz4Suffix)
	case cfg.Sonar.Project != "":
		return cfg.Sonar.Project
	default:
		return ""
	}
}

func (ac *AggregateCommand) writeReport(cmd *cobra.Command, snap aggregate.Snapshot, opts report.Options) error {
	if ac.output == "" {
		return report.Write(cmd.OutOrStdout(), snap, opts)
	}

	if opts.Format == report.FormatProject {
		doc, err := project.Build(opts.ProjectName, snap)
		if err != nil {
			return err
		}

		return project.WriteFile(ac.output, doc, opts.Compress)
	}

	file, err := os.Create(ac.output)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	writeErr := report.Write(file, snap, opts)
	closeErr := file.Close()

	if writeErr != nil {
		return writeErr
	}

	if closeErr != nil {
		return fmt.Errorf("close output: %w", closeErr)
	}

	return nil
}

// logFailure reports where the run stopped.
func logFailure(ctx context.Context, logger *slog.Logger, err error) {
	var observeErr *aggregate.ObserveError
	if errors.As(err, &observeErr) {
		logger.ErrorContext(ctx, "aggregation failed",
			"commit", observeErr.Commit,
			"file", observeErr.FileID,
			"metric", observeErr.Kind,
			"error", observeErr.Err)

		return
	}

	var parseErr *gitlog.ParseError
	if errors.As(err, &parseErr) {
		logger.ErrorContext(ctx, "aggregation failed", "line", parseErr.Line, "error", err)

		return
	}

	logger.ErrorContext(ctx, "aggregation failed", "error", err)
}

func baseName(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Base(path)
	}

	return filepath.Base(abs)
}
