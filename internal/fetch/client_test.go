package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/text/encoding/japanese"
)

func TestClient_FetchBytes(t *testing.T) {
	t.Parallel()

	t.Run("returns body bytes on success", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("payload"))
		}))
		defer srv.Close()

		client := NewClient()
		got, err := client.FetchBytes(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("FetchBytes() error = %v", err)
		}
		if string(got) != "payload" {
			t.Errorf("FetchBytes() = %q, want %q", got, "payload")
		}
	})

	t.Run("sends configured request headers", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("User-Agent"); got != "pagemirror-test" {
				t.Errorf("User-Agent = %q, want %q", got, "pagemirror-test")
			}
			if got := r.Header.Get("X-Custom"); got != "yes" {
				t.Errorf("X-Custom = %q, want %q", got, "yes")
			}
			if got := r.Header.Get("Cookie"); got != "session=abc" {
				t.Errorf("Cookie = %q, want %q", got, "session=abc")
			}
		}))
		defer srv.Close()

		client := NewClient(
			WithUserAgent("pagemirror-test"),
			WithHeaders(map[string]string{"X-Custom": "yes"}),
			WithCookie("session=abc"),
		)
		if _, err := client.FetchBytes(context.Background(), srv.URL); err != nil {
			t.Fatalf("FetchBytes() error = %v", err)
		}
	})

	t.Run("fails on non-success status", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer srv.Close()

		client := NewClient()
		_, err := client.FetchBytes(context.Background(), srv.URL)
		if err == nil {
			t.Fatal("FetchBytes() expected error, got nil")
		}

		var fetchErr *Error
		if !errors.As(err, &fetchErr) {
			t.Fatalf("FetchBytes() error type = %T, want *Error", err)
		}
		if fetchErr.StatusCode != http.StatusNotFound {
			t.Errorf("StatusCode = %d, want %d", fetchErr.StatusCode, http.StatusNotFound)
		}
	})

	t.Run("fails on unreachable server", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		srv.Close()

		client := NewClient()
		_, err := client.FetchBytes(context.Background(), srv.URL)
		if err == nil {
			t.Fatal("FetchBytes() expected error, got nil")
		}

		var fetchErr *Error
		if !errors.As(err, &fetchErr) {
			t.Fatalf("FetchBytes() error type = %T, want *Error", err)
		}
		if fetchErr.Unwrap() == nil {
			t.Error("Unwrap() = nil, want underlying transport error")
		}
	})

	t.Run("caps body at max size", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(strings.Repeat("a", 100)))
		}))
		defer srv.Close()

		client := NewClient(WithMaxBodySize(10))
		got, err := client.FetchBytes(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("FetchBytes() error = %v", err)
		}
		if len(got) != 10 {
			t.Errorf("len(body) = %d, want 10", len(got))
		}
	})
}

func TestClient_FetchText(t *testing.T) {
	t.Parallel()

	t.Run("returns UTF-8 document unchanged", func(t *testing.T) {
		t.Parallel()

		const doc = "<html><body>héllo</body></html>"
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(doc))
		}))
		defer srv.Close()

		client := NewClient()
		got, err := client.FetchText(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("FetchText() error = %v", err)
		}
		if got != doc {
			t.Errorf("FetchText() = %q, want %q", got, doc)
		}
	})

	t.Run("decodes declared non-UTF-8 charset", func(t *testing.T) {
		t.Parallel()

		encoded, err := japanese.ShiftJIS.NewEncoder().Bytes([]byte("こんにちは"))
		if err != nil {
			t.Fatalf("encode fixture: %v", err)
		}

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=shift_jis")
			w.Write(encoded)
		}))
		defer srv.Close()

		client := NewClient()
		got, err := client.FetchText(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("FetchText() error = %v", err)
		}
		if got != "こんにちは" {
			t.Errorf("FetchText() = %q, want %q", got, "こんにちは")
		}
	})
}

func TestClient_FetchPage(t *testing.T) {
	t.Parallel()

	t.Run("populates page metadata", func(t *testing.T) {
		t.Parallel()

		const doc = "<html><body>ok</body></html>"
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Write([]byte(doc))
		}))
		defer srv.Close()

		client := NewClient()
		page, err := client.FetchPage(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("FetchPage() error = %v", err)
		}

		if page.URL != srv.URL {
			t.Errorf("URL = %q, want %q", page.URL, srv.URL)
		}
		if page.StatusCode != http.StatusOK {
			t.Errorf("StatusCode = %d, want %d", page.StatusCode, http.StatusOK)
		}
		if page.Text != doc {
			t.Errorf("Text = %q, want %q", page.Text, doc)
		}
		if string(page.Raw) != doc {
			t.Errorf("Raw = %q, want %q", page.Raw, doc)
		}
		if page.Hash == "" {
			t.Error("Hash is empty, want sha256 hex digest")
		}
		if got := page.GetHeader("Content-Type"); got != "text/html; charset=utf-8" {
			t.Errorf("GetHeader(Content-Type) = %q, want %q", got, "text/html; charset=utf-8")
		}
	})
}
