package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"pagemirror/internal/config"
	"pagemirror/internal/database"
	"pagemirror/internal/fetch"
	"pagemirror/internal/log"
	"pagemirror/internal/pipeline"
	"pagemirror/internal/report"
)

// NewMirrorCmd creates the mirror command.
func NewMirrorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mirror [url]...",
		Short: "Mirror one or more web pages for offline use",
		Long: `Mirror downloads each page, rewrites its same-origin image, stylesheet,
and script references to local paths, and saves the page together with
those resources into the output directory.

The rewritten page is saved as <host-path>.html and its resources go
into a <host-path>_files subdirectory next to it. Resources hosted on
other origins are left untouched.`,
		Example: `  pagemirror mirror https://example.com/blog/post
  pagemirror mirror -o ./mirrors https://example.com/ https://example.org/
  pagemirror mirror --json --report-file report.json https://example.com/`,
		Args: cobra.MinimumNArgs(1),
		RunE: runMirrorCmd,
	}

	cmd.Flags().StringP("output-dir", "o", ".", "Directory to save the mirrored page and its resources")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Timeout for each HTTP request")
	cmd.Flags().IntP("concurrency", "n", config.DefaultConcurrency, "Number of simultaneous resource downloads per page")
	cmd.Flags().IntP("batch", "b", config.DefaultBatchSize, "Number of pages mirrored concurrently when multiple URLs are given")
	cmd.Flags().StringP("config", "c", "", "Path to configuration file (default: .pagemirror in current or home directory)")
	cmd.Flags().BoolP("json", "j", false, "Output report in JSON format")
	cmd.Flags().BoolP("markdown", "m", false, "Output report in Markdown format")
	cmd.Flags().StringP("report-file", "r", "", "Write the report to a file instead of stdout")
	cmd.Flags().StringP("user-agent", "u", config.DefaultUserAgent, "User-Agent header for HTTP requests")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize, "Maximum response body size in bytes")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")

	return cmd
}

// runMirrorCmd is the entry point for the mirror command.
func runMirrorCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Cancel on interrupt so partial downloads stop quickly
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("interrupt received, cancelling mirror")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runMirror(ctx, cmd, cfg, logger)
}

// buildConfig creates a Config from command line flags and the optional
// configuration file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Targets = args
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	if cfg.OutputDir, err = cmd.Flags().GetString("output-dir"); err != nil {
		return nil, fmt.Errorf("failed to get output-dir flag: %w", err)
	}
	if cfg.Timeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return nil, fmt.Errorf("failed to get timeout flag: %w", err)
	}
	if cfg.Concurrency, err = cmd.Flags().GetInt("concurrency"); err != nil {
		return nil, fmt.Errorf("failed to get concurrency flag: %w", err)
	}
	if cfg.BatchSize, err = cmd.Flags().GetInt("batch"); err != nil {
		return nil, fmt.Errorf("failed to get batch flag: %w", err)
	}
	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, fmt.Errorf("failed to get json flag: %w", err)
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, fmt.Errorf("failed to get markdown flag: %w", err)
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("report-file"); err != nil {
		return nil, fmt.Errorf("failed to get report-file flag: %w", err)
	}
	if cfg.UserAgent, err = cmd.Flags().GetString("user-agent"); err != nil {
		return nil, fmt.Errorf("failed to get user-agent flag: %w", err)
	}
	if cfg.MaxBodySize, err = cmd.Flags().GetInt64("max-body-size"); err != nil {
		return nil, fmt.Errorf("failed to get max-body-size flag: %w", err)
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, fmt.Errorf("failed to get no-history flag: %w", err)
	}
	if !noHistory {
		cfg.SaveToDB = true
		cfg.DBDir = config.XDGDataDir()
	}

	if err := loadSiteConfigs(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadSiteConfigs populates cfg.SiteConfigs from the configuration file.
// A missing file is an error only when the user named it explicitly.
func loadSiteConfigs(cfg *config.Config) error {
	path := config.FindConfigFile(cfg.ConfigFilePath)
	if path == "" {
		if cfg.ConfigFilePath != "" {
			return fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
		}
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
		return nil
	}

	file, err := config.LoadConfigFile(path)
	if err != nil {
		return fmt.Errorf("failed to load configuration file %s: %w", path, err)
	}
	cfg.SiteConfigs = file
	return nil
}

// getVerboseFlag returns the value of the persistent verbose flag.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return false
	}
	return verbose
}

// runMirror mirrors all configured targets and outputs a report per page.
func runMirror(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	hosts, err := targetHosts(cfg.Targets)
	if err != nil {
		return err
	}

	var db *database.HistoryDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DBDir, database.Options{
			CreateIfNotExists: true,
			EnableWAL:         true,
		})
		if err != nil {
			// History is a convenience, not a requirement for mirroring
			logger.Warn("history database unavailable, continuing without history",
				"dir", cfg.DBDir,
				"error", err,
			)
			db = nil
		} else {
			defer func() {
				if err := db.Close(); err != nil {
					logger.Warn("failed to close history database", "error", err)
				}
			}()
		}
	}

	runs, err := mirrorTargets(ctx, cfg, hosts, db, logger)
	if err != nil {
		return err
	}

	var failed int
	for _, run := range runs {
		if run == nil {
			continue
		}
		if run.Report.Error != "" {
			failed++
			// A failed run aborts before the pipeline's history step; record
			// it here so failures show up in the history too.
			if db != nil {
				if _, err := db.SaveRun(ctx, run.Report); err != nil {
					logger.Warn("failed to record run history", "url", run.Report.PageURL, "error", err)
				}
			}
		}
		if err := outputReport(cmd, cfg, run); err != nil {
			return err
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d page(s) failed to mirror", failed, len(runs))
	}
	return nil
}

// targetHosts parses every target URL up front and returns the host of
// each one, in target order. Every target must be an absolute http or
// https URL.
func targetHosts(targets []string) ([]string, error) {
	hosts := make([]string, len(targets))
	for i, target := range targets {
		u, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("invalid target URL %q: %w", target, err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return nil, fmt.Errorf("invalid target URL %q: an absolute http or https URL is required", target)
		}
		hosts[i] = u.Host
	}
	return hosts, nil
}

// mirrorTargets executes the mirror pipeline for each target.
// A single target runs directly; multiple targets run through the batch
// processor with the configured batch size.
func mirrorTargets(ctx context.Context, cfg *config.Config, hosts []string, db *database.HistoryDB, logger *slog.Logger) ([]*pipeline.Run, error) {
	if len(cfg.Targets) == 1 {
		factory := newPipelineFactory(cfg, hosts[0], db, logger)
		bp := pipeline.NewBatchProcessor(factory,
			pipeline.WithConcurrency(1),
			pipeline.WithBatchLogger(logger),
		)
		return bp.ProcessBatch(ctx, cfg.Targets)
	}

	// All pages in a batch share one pipeline factory, so host-specific
	// site configuration only applies when hosts agree. Mixed-host batches
	// fall back to the defaults section of the config file.
	factoryHost := hosts[0]
	for _, h := range hosts[1:] {
		if h != factoryHost {
			factoryHost = ""
			break
		}
	}
	if factoryHost == "" && len(cfg.SiteConfigs.Sites) > 0 {
		logger.Warn("targets span multiple hosts, host-specific site configuration is not applied")
	}

	factory := newPipelineFactory(cfg, factoryHost, db, logger)
	bp := pipeline.NewBatchProcessor(factory,
		pipeline.WithConcurrency(cfg.BatchSize),
		pipeline.WithBatchLogger(logger),
	)
	return bp.ProcessBatch(ctx, cfg.Targets)
}

// newPipelineFactory returns a factory producing the mirror pipeline for
// one page: fetch, transform, save resources, save page, and optionally
// record the run in the history database.
func newPipelineFactory(cfg *config.Config, host string, db *database.HistoryDB, logger *slog.Logger) func() *pipeline.Pipeline {
	client := newFetchClient(cfg, host)

	return func() *pipeline.Pipeline {
		p := pipeline.New(pipeline.WithLogger(logger))
		p.AddStep(pipeline.NewFetchPageStep(client, logger))
		p.AddStep(pipeline.NewTransformStep(logger))
		p.AddStep(pipeline.NewSaveResourcesStep(client, cfg.OutputDir, cfg.Concurrency, logger))
		p.AddStep(pipeline.NewSavePageStep(cfg.OutputDir, logger))
		if db != nil {
			p.AddStep(pipeline.NewSaveHistoryStep(db, logger))
		}
		return p
	}
}

// newFetchClient builds the HTTP client for a target host, applying any
// host-specific configuration from the configuration file.
func newFetchClient(cfg *config.Config, host string) *fetch.Client {
	opts := []fetch.Option{
		fetch.WithTimeout(cfg.Timeout),
		fetch.WithUserAgent(cfg.UserAgent),
		fetch.WithMaxBodySize(cfg.MaxBodySize),
	}

	if cfg.SiteConfigs != nil {
		site := cfg.SiteConfigs.GetSiteConfig(host)
		if site.UserAgent != "" {
			opts = append(opts, fetch.WithUserAgent(site.UserAgent))
		}
		if site.Cookie != "" {
			opts = append(opts, fetch.WithCookie(site.Cookie))
		}
		if len(site.Headers) > 0 {
			opts = append(opts, fetch.WithHeaders(site.Headers))
		}
	}

	return fetch.NewClient(opts...)
}

// outputReport writes one run's report in the configured format to stdout
// or to the configured report file.
func outputReport(cmd *cobra.Command, cfg *config.Config, run *pipeline.Run) error {
	out, closer, err := reportDestination(cmd, cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer()
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(out, report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(out)
	default:
		writer = report.NewSimpleWriter(out, report.WithVerbose(cfg.Verbose))
	}

	if _, err := writer.Write(run.Report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// reportDestination returns the writer the report goes to. When a report
// file is configured the file is opened in append mode so every page of a
// multi-target run lands in the same file.
func reportDestination(cmd *cobra.Command, cfg *config.Config) (io.Writer, func(), error) {
	if cfg.ReportFile == "" {
		return cmd.OutOrStdout(), nil, nil
	}

	if dir := filepath.Dir(cfg.ReportFile); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open report file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
