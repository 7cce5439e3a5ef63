package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pagemirror/internal/database"
	"pagemirror/internal/fetch"
	"pagemirror/internal/rewrite"
)

// mirrorTestServer serves a page with one image, one stylesheet, and one
// script, plus the referenced resources.
func mirrorTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/blog/post", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><head>
<link rel="stylesheet" href="/assets/site.css">
<script src="/assets/app.js"></script>
</head><body>
<img src="/images/logo.png">
<img src="https://cdn.other.example/banner.jpg">
</body></html>`))
	})
	mux.HandleFunc("/assets/site.css", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("body{margin:0}"))
	})
	mux.HandleFunc("/assets/app.js", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("console.log('hi')"))
	})
	mux.HandleFunc("/images/logo.png", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("PNGDATA"))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// quietLogger returns a logger that discards output.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newMirrorPipeline wires the standard fetch/transform/save steps.
func newMirrorPipeline(client *fetch.Client, outputDir string, concurrency int) *Pipeline {
	logger := quietLogger()
	p := New(WithLogger(logger))
	p.AddSteps(
		NewFetchPageStep(client, logger),
		NewTransformStep(logger),
		NewSaveResourcesStep(client, outputDir, concurrency, logger),
		NewSavePageStep(outputDir, logger),
	)
	return p
}

func TestPipeline_Execute(t *testing.T) {
	t.Parallel()

	t.Run("mirrors page and resources to disk", func(t *testing.T) {
		t.Parallel()

		srv := mirrorTestServer(t)
		outputDir := t.TempDir()
		pageURL := srv.URL + "/blog/post"

		client := fetch.NewClient()
		p := newMirrorPipeline(client, outputDir, 4)

		run := NewRun(pageURL)
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}

		u, err := url.Parse(pageURL)
		if err != nil {
			t.Fatalf("parse page URL: %v", err)
		}

		pagePath := filepath.Join(outputDir, rewrite.PageFileName(u))
		html, err := os.ReadFile(pagePath)
		if err != nil {
			t.Fatalf("read mirrored page: %v", err)
		}

		assetDir := rewrite.AssetDirName(u)
		for _, res := range run.Report.Resources {
			if !strings.Contains(string(html), assetDir+"/"+res.LocalName) {
				t.Errorf("rewritten page missing local reference %q", assetDir+"/"+res.LocalName)
			}

			data, err := os.ReadFile(filepath.Join(outputDir, assetDir, res.LocalName))
			if err != nil {
				t.Errorf("resource %q not on disk: %v", res.LocalName, err)
				continue
			}
			if int64(len(data)) != res.Size {
				t.Errorf("resource %q size = %d, report says %d", res.LocalName, len(data), res.Size)
			}
		}

		// The remote image must pass through untouched
		if !strings.Contains(string(html), "https://cdn.other.example/banner.jpg") {
			t.Error("remote image reference was rewritten")
		}

		if got := run.Report.ResourceCount(); got != 3 {
			t.Errorf("ResourceCount() = %d, want 3 (remote image excluded)", got)
		}
		if run.Report.StatusCode != http.StatusOK {
			t.Errorf("StatusCode = %d, want 200", run.Report.StatusCode)
		}
		if run.Report.PageHash == "" {
			t.Error("PageHash is empty")
		}
		if run.Report.BytesWritten == 0 {
			t.Error("BytesWritten is zero")
		}
	})

	t.Run("sequential run produces identical layout", func(t *testing.T) {
		t.Parallel()

		srv := mirrorTestServer(t)
		outputDir := t.TempDir()
		pageURL := srv.URL + "/blog/post"

		client := fetch.NewClient()
		p := newMirrorPipeline(client, outputDir, 1)

		run := NewRun(pageURL)
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
		if got := run.Report.ResourceCount(); got != 3 {
			t.Errorf("ResourceCount() = %d, want 3", got)
		}
	})

	t.Run("page without resources creates no asset dir", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/plain", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html><body><p>nothing here</p></body></html>"))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		outputDir := t.TempDir()
		pageURL := srv.URL + "/plain"

		client := fetch.NewClient()
		p := newMirrorPipeline(client, outputDir, 4)

		run := NewRun(pageURL)
		if err := p.Execute(context.Background(), run); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}

		u, _ := url.Parse(pageURL)
		if _, err := os.Stat(filepath.Join(outputDir, rewrite.AssetDirName(u))); !os.IsNotExist(err) {
			t.Error("asset directory created for a page with no resources")
		}
		if _, err := os.Stat(filepath.Join(outputDir, rewrite.PageFileName(u))); err != nil {
			t.Errorf("page file missing: %v", err)
		}
	})

	t.Run("failing resource aborts the run", func(t *testing.T) {
		t.Parallel()

		mux := http.NewServeMux()
		mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte(`<html><body><img src="/missing.png"></body></html>`))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		outputDir := t.TempDir()
		pageURL := srv.URL + "/page"

		client := fetch.NewClient()
		p := newMirrorPipeline(client, outputDir, 4)

		run := NewRun(pageURL)
		err := p.Execute(context.Background(), run)
		if err == nil {
			t.Fatal("Execute() expected error for missing resource")
		}

		var fetchErr *fetch.Error
		if !errors.As(err, &fetchErr) {
			t.Fatalf("error type = %T, want *fetch.Error", err)
		}
		if run.Report.Error == "" {
			t.Error("expected error recorded in report")
		}

		// The page file must not exist because the run aborted before the
		// page persistence step
		u, _ := url.Parse(pageURL)
		if _, err := os.Stat(filepath.Join(outputDir, rewrite.PageFileName(u))); !os.IsNotExist(err) {
			t.Error("page file written despite aborted run")
		}
	})

	t.Run("unreachable page aborts on first step", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		client := fetch.NewClient()
		p := newMirrorPipeline(client, t.TempDir(), 4)

		run := NewRun(srv.URL + "/page")
		if err := p.Execute(context.Background(), run); err == nil {
			t.Fatal("Execute() expected error for unreachable server")
		}
		if run.Report.Error == "" {
			t.Error("expected error recorded in report")
		}
	})

	t.Run("cancelled context stops the pipeline", func(t *testing.T) {
		t.Parallel()

		srv := mirrorTestServer(t)
		client := fetch.NewClient()
		p := newMirrorPipeline(client, t.TempDir(), 4)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		run := NewRun(srv.URL + "/blog/post")
		if err := p.Execute(ctx, run); !errors.Is(err, context.Canceled) {
			t.Errorf("Execute() error = %v, want context.Canceled", err)
		}
	})
}

func TestPipeline_StepNames(t *testing.T) {
	t.Parallel()

	client := fetch.NewClient()
	p := newMirrorPipeline(client, t.TempDir(), 4)

	want := []string{"fetch_page", "transform", "save_resources", "save_page"}
	got := p.StepNames()
	if len(got) != len(want) {
		t.Fatalf("StepNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("StepNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if p.StepCount() != 4 {
		t.Errorf("StepCount() = %d, want 4", p.StepCount())
	}
}

func TestSaveHistoryStep(t *testing.T) {
	t.Parallel()

	srv := mirrorTestServer(t)
	outputDir := t.TempDir()

	hdb, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer hdb.Close()

	logger := quietLogger()
	client := fetch.NewClient()
	p := newMirrorPipeline(client, outputDir, 4)
	p.AddStep(NewSaveHistoryStep(hdb, logger))

	pageURL := srv.URL + "/blog/post"
	run := NewRun(pageURL)
	if err := p.Execute(context.Background(), run); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	saved, err := hdb.LatestRun(context.Background(), pageURL)
	if err != nil {
		t.Fatalf("LatestRun() error = %v", err)
	}
	if saved == nil {
		t.Fatal("LatestRun() = nil, want recorded run")
	}
	if saved.ResourceCount() != 3 {
		t.Errorf("recorded ResourceCount() = %d, want 3", saved.ResourceCount())
	}
}

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()

	t.Run("writes file with content", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		n, err := writeFileAtomic(dir, "out.txt", []byte("hello"))
		if err != nil {
			t.Fatalf("writeFileAtomic() error = %v", err)
		}
		if n != 5 {
			t.Errorf("bytes written = %d, want 5", n)
		}

		data, err := os.ReadFile(filepath.Join(dir, "out.txt"))
		if err != nil {
			t.Fatalf("read back: %v", err)
		}
		if string(data) != "hello" {
			t.Errorf("content = %q, want %q", data, "hello")
		}
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		if _, err := writeFileAtomic(dir, "out.txt", []byte("first")); err != nil {
			t.Fatalf("writeFileAtomic() error = %v", err)
		}
		if _, err := writeFileAtomic(dir, "out.txt", []byte("second")); err != nil {
			t.Fatalf("writeFileAtomic() error = %v", err)
		}

		data, _ := os.ReadFile(filepath.Join(dir, "out.txt"))
		if string(data) != "second" {
			t.Errorf("content = %q, want last write to win", data)
		}
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		if _, err := writeFileAtomic(dir, "out.txt", []byte("data")); err != nil {
			t.Fatalf("writeFileAtomic() error = %v", err)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("ReadDir() error = %v", err)
		}
		if len(entries) != 1 {
			t.Errorf("dir has %d entries, want 1", len(entries))
		}
	})

	t.Run("fails with WriteError on missing directory", func(t *testing.T) {
		t.Parallel()

		_, err := writeFileAtomic(filepath.Join(t.TempDir(), "nope"), "out.txt", []byte("data"))
		if err == nil {
			t.Fatal("writeFileAtomic() expected error")
		}

		var writeErr *WriteError
		if !errors.As(err, &writeErr) {
			t.Fatalf("error type = %T, want *WriteError", err)
		}
	})
}

func TestBatchProcessor_ProcessBatch(t *testing.T) {
	t.Parallel()

	t.Run("mirrors all targets and keeps order", func(t *testing.T) {
		t.Parallel()

		srv := mirrorTestServer(t)
		outputDir := t.TempDir()
		client := fetch.NewClient()

		factory := func() *Pipeline {
			return newMirrorPipeline(client, outputDir, 2)
		}

		bp := NewBatchProcessor(factory,
			WithConcurrency(2),
			WithBatchLogger(quietLogger()),
		)

		targets := []string{
			srv.URL + "/blog/post",
			srv.URL + "/blog/post",
		}

		runs, err := bp.ProcessBatch(context.Background(), targets)
		if err != nil {
			t.Fatalf("ProcessBatch() error = %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("len(runs) = %d, want 2", len(runs))
		}
		for i, run := range runs {
			if run == nil {
				t.Fatalf("runs[%d] = nil", i)
			}
			if run.Report.PageURL != targets[i] {
				t.Errorf("runs[%d].PageURL = %q, want %q (order preserved)", i, run.Report.PageURL, targets[i])
			}
			if !run.Report.Succeeded() {
				t.Errorf("runs[%d] failed: %s", i, run.Report.Error)
			}
		}
	})

	t.Run("failed target does not stop others", func(t *testing.T) {
		t.Parallel()

		srv := mirrorTestServer(t)
		outputDir := t.TempDir()
		client := fetch.NewClient()

		factory := func() *Pipeline {
			return newMirrorPipeline(client, outputDir, 2)
		}

		bp := NewBatchProcessor(factory, WithBatchLogger(quietLogger()))

		targets := []string{
			srv.URL + "/does-not-exist",
			srv.URL + "/blog/post",
		}

		runs, err := bp.ProcessBatch(context.Background(), targets)
		if err != nil {
			t.Fatalf("ProcessBatch() error = %v", err)
		}
		if runs[0].Report.Succeeded() {
			t.Error("expected first run to fail")
		}
		if !runs[1].Report.Succeeded() {
			t.Errorf("expected second run to succeed, got error: %s", runs[1].Report.Error)
		}
	})
}
