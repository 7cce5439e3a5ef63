package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"pagemirror/internal/database"
	"pagemirror/internal/fetch"
	"pagemirror/internal/rewrite"
)

// FetchPageStep downloads the target page and records its transport
// metadata in the report.
type FetchPageStep struct {
	// client performs the HTTP request.
	client *fetch.Client

	// logger for structured logging.
	logger *slog.Logger
}

// NewFetchPageStep creates a new page fetch step.
func NewFetchPageStep(client *fetch.Client, logger *slog.Logger) *FetchPageStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &FetchPageStep{client: client, logger: logger}
}

// Name returns the step name.
func (s *FetchPageStep) Name() string {
	return "fetch_page"
}

// Do executes the page fetch step.
func (s *FetchPageStep) Do(ctx context.Context, run *Run) error {
	page, err := s.client.FetchPage(ctx, run.Report.PageURL)
	if err != nil {
		return err
	}

	run.Page = page
	run.Report.StatusCode = page.StatusCode
	run.Report.PageHash = page.Hash

	if u, err := url.Parse(page.URL); err == nil {
		run.Report.Host = u.Host
	}

	s.logger.Debug("page fetched",
		"url", page.URL,
		"status", page.StatusCode,
		"bytes", len(page.Raw),
	)

	return nil
}

// TransformStep rewrites the page's same-origin references to local paths
// and collects the resources to download.
type TransformStep struct {
	// logger for structured logging.
	logger *slog.Logger
}

// NewTransformStep creates a new transform step.
func NewTransformStep(logger *slog.Logger) *TransformStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &TransformStep{logger: logger}
}

// Name returns the step name.
func (s *TransformStep) Name() string {
	return "transform"
}

// Do executes the transform step.
func (s *TransformStep) Do(_ context.Context, run *Run) error {
	transformer, err := rewrite.NewTransformer(run.Report.PageURL)
	if err != nil {
		return err
	}

	result, err := transformer.Transform(run.Page.Text)
	if err != nil {
		return err
	}

	run.Transform = result
	run.Report.PageFile = transformer.PageFile()
	run.Report.AssetDir = result.AssetDir

	s.logger.Debug("page transformed",
		"url", run.Report.PageURL,
		"resources", len(result.Resources),
	)

	return nil
}

// SaveResourcesStep downloads the discovered resources and persists them
// into the asset directory.
//
// Design decision: Downloads run under errgroup with a concurrency limit
// rather than a hand-rolled worker pool. The group context cancels all
// in-flight downloads as soon as one fails, which gives the fail-fast
// behavior a mirror run needs: a partial asset directory may remain on
// disk, but every file in it is complete (writes are temp-file + rename).
type SaveResourcesStep struct {
	// client performs the HTTP requests.
	client *fetch.Client

	// outputDir is the destination directory of the mirror.
	outputDir string

	// concurrency caps simultaneous downloads. 1 means sequential,
	// preserving document order.
	concurrency int

	// logger for structured logging.
	logger *slog.Logger
}

// NewSaveResourcesStep creates a new resource persistence step.
func NewSaveResourcesStep(client *fetch.Client, outputDir string, concurrency int, logger *slog.Logger) *SaveResourcesStep {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SaveResourcesStep{
		client:      client,
		outputDir:   outputDir,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Name returns the step name.
func (s *SaveResourcesStep) Name() string {
	return "save_resources"
}

// Do executes the resource persistence step.
// The asset directory is only created when the page references at least
// one same-origin resource.
func (s *SaveResourcesStep) Do(ctx context.Context, run *Run) error {
	resources := run.Transform.Resources
	if len(resources) == 0 {
		run.Report.Resources = nil
		return nil
	}

	assetDir := filepath.Join(s.outputDir, run.Transform.AssetDir)
	if err := os.MkdirAll(assetDir, 0750); err != nil {
		return &WriteError{Path: assetDir, Err: err}
	}

	var totalBytes int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range resources {
		g.Go(func() error {
			res := &resources[i]

			data, err := s.client.FetchBytes(gctx, res.SourceURL)
			if err != nil {
				return err
			}

			n, err := writeFileAtomic(assetDir, res.LocalName, data)
			if err != nil {
				return err
			}

			res.Size = n
			atomic.AddInt64(&totalBytes, n)

			s.logger.Debug("resource saved",
				"url", res.SourceURL,
				"name", res.LocalName,
				"bytes", n,
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	run.Report.Resources = resources
	run.Report.BytesWritten += totalBytes
	return nil
}

// SavePageStep persists the rewritten HTML document into the output
// directory.
type SavePageStep struct {
	// outputDir is the destination directory of the mirror.
	outputDir string

	// logger for structured logging.
	logger *slog.Logger
}

// NewSavePageStep creates a new page persistence step.
func NewSavePageStep(outputDir string, logger *slog.Logger) *SavePageStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &SavePageStep{outputDir: outputDir, logger: logger}
}

// Name returns the step name.
func (s *SavePageStep) Name() string {
	return "save_page"
}

// Do executes the page persistence step.
func (s *SavePageStep) Do(_ context.Context, run *Run) error {
	if err := os.MkdirAll(s.outputDir, 0750); err != nil {
		return &WriteError{Path: s.outputDir, Err: err}
	}

	n, err := writeFileAtomic(s.outputDir, run.Report.PageFile, []byte(run.Transform.HTML))
	if err != nil {
		return err
	}

	run.Report.OutputDir = s.outputDir
	run.Report.BytesWritten += n

	s.logger.Debug("page saved",
		"file", run.Report.PageFile,
		"bytes", n,
	)
	return nil
}

// SaveHistoryStep records the completed run in the history database.
type SaveHistoryStep struct {
	// db is the history database, opened by the caller.
	db *database.HistoryDB

	// logger for structured logging.
	logger *slog.Logger
}

// NewSaveHistoryStep creates a new history persistence step.
func NewSaveHistoryStep(db *database.HistoryDB, logger *slog.Logger) *SaveHistoryStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &SaveHistoryStep{db: db, logger: logger}
}

// Name returns the step name.
func (s *SaveHistoryStep) Name() string {
	return "save_history"
}

// Do executes the history persistence step.
func (s *SaveHistoryStep) Do(ctx context.Context, run *Run) error {
	runID, err := s.db.SaveRun(ctx, run.Report)
	if err != nil {
		return fmt.Errorf("save run history: %w", err)
	}

	s.logger.Debug("run recorded",
		"run_id", runID,
		"url", run.Report.PageURL,
	)
	return nil
}

// writeFileAtomic writes data to dir/name via a temporary file and rename.
// A reader never observes a half-written file: either the old content (or
// absence) or the complete new content. Returns the number of bytes written.
func writeFileAtomic(dir, name string, data []byte) (int64, error) {
	dst := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, "."+name+".tmp-*")
	if err != nil {
		return 0, &WriteError{Path: dst, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return 0, &WriteError{Path: dst, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return 0, &WriteError{Path: dst, Err: err}
	}

	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)
		return 0, &WriteError{Path: dst, Err: err}
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return 0, &WriteError{Path: dst, Err: err}
	}

	return int64(len(data)), nil
}
