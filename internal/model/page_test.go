package model

import (
	"testing"
)

func TestPage_ComputeHash(t *testing.T) {
	t.Parallel()

	t.Run("computes hash of raw content", func(t *testing.T) {
		t.Parallel()

		page := &Page{Raw: []byte("<html></html>")}
		page.ComputeHash()

		if page.Hash == "" {
			t.Error("ComputeHash() left Hash empty")
		}
		if len(page.Hash) != 64 {
			t.Errorf("Hash length = %d, want 64 hex characters", len(page.Hash))
		}
	})

	t.Run("identical content yields identical hash", func(t *testing.T) {
		t.Parallel()

		a := &Page{Raw: []byte("same")}
		b := &Page{Raw: []byte("same")}
		a.ComputeHash()
		b.ComputeHash()

		if a.Hash != b.Hash {
			t.Errorf("hashes differ for identical content: %q vs %q", a.Hash, b.Hash)
		}
	})

	t.Run("different content yields different hash", func(t *testing.T) {
		t.Parallel()

		a := &Page{Raw: []byte("one")}
		b := &Page{Raw: []byte("two")}
		a.ComputeHash()
		b.ComputeHash()

		if a.Hash == b.Hash {
			t.Error("hashes match for different content")
		}
	})

	t.Run("empty content yields empty hash", func(t *testing.T) {
		t.Parallel()

		page := &Page{}
		page.ComputeHash()

		if page.Hash != "" {
			t.Errorf("Hash = %q, want empty for empty content", page.Hash)
		}
	})
}

func TestPage_GetHeader(t *testing.T) {
	t.Parallel()

	page := &Page{
		Headers: map[string][]string{
			"Content-Type": {"text/html; charset=utf-8", "ignored"},
		},
	}

	t.Run("returns first value", func(t *testing.T) {
		t.Parallel()

		if got := page.GetHeader("Content-Type"); got != "text/html; charset=utf-8" {
			t.Errorf("GetHeader() = %q, want first value", got)
		}
	})

	t.Run("missing header returns empty", func(t *testing.T) {
		t.Parallel()

		if got := page.GetHeader("X-Missing"); got != "" {
			t.Errorf("GetHeader() = %q, want empty", got)
		}
	})
}
