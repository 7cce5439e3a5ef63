package model

import (
	"crypto/sha256"
	"encoding/hex"
)

// Page represents a fetched web page before transformation.
// It holds the decoded document text together with transport metadata.
//
// Design decision: We keep both the decoded Text and the raw bytes because:
// 1. Text is what the transformer parses (already UTF-8)
// 2. Raw bytes are what the hash and byte counters are computed from
// 3. Separating them keeps charset handling in one place (internal/fetch)
type Page struct {
	// URL is the absolute URL the page was fetched from.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// Headers contains all HTTP response headers.
	Headers map[string][]string `json:"headers,omitempty"`

	// ContentType is the MIME type from the Content-Type header.
	ContentType string `json:"content_type"`

	// Text is the document body decoded to UTF-8.
	Text string `json:"-"`

	// Raw contains the response body bytes as received.
	Raw []byte `json:"-"`

	// Hash is the SHA-256 hash of the raw content.
	Hash string `json:"hash,omitempty"`
}

// ComputeHash calculates and sets the SHA-256 hash of the page's raw content.
// Call this after setting the Raw field.
func (p *Page) ComputeHash() {
	if len(p.Raw) == 0 {
		p.Hash = ""
		return
	}

	hash := sha256.Sum256(p.Raw)
	p.Hash = hex.EncodeToString(hash[:])
}

// GetHeader returns the first value of the specified header.
// Returns empty string if the header is not present.
func (p *Page) GetHeader(name string) string {
	if values, ok := p.Headers[name]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}

// Resource is a unit of work for the resource fetcher: one same-origin
// reference discovered by the transformer, to be downloaded and persisted.
// Resources are consumed exactly once per run and are not kept beyond it
// (the history database stores a summary, not the work queue).
type Resource struct {
	// SourceURL is the absolute URL to fetch the resource from.
	SourceURL string `json:"source_url"`

	// LocalName is the filename the resource is stored under inside the
	// asset directory. Derived deterministically from SourceURL; two
	// distinct URLs may sanitize to the same name, in which case the
	// later one wins on disk.
	LocalName string `json:"local_name"`

	// Tag is the HTML element the reference was found on (img, link, script).
	Tag string `json:"tag"`

	// Attr is the attribute that carried the reference (src or href).
	Attr string `json:"attr"`

	// Size is the number of bytes written, filled in by the fetcher.
	Size int64 `json:"size,omitempty"`
}

// TransformResult pairs the rewritten HTML document with the resources
// discovered during the pass. The resource order matches document order
// within each element kind; callers may rely on it.
type TransformResult struct {
	// HTML is the serialized document after attribute rewriting.
	HTML string

	// AssetDir is the relative directory name the rewritten references
	// point into (always joined with forward slashes in the markup).
	AssetDir string

	// Resources lists the discovered same-origin resources in the order
	// they were rewritten. Duplicates are allowed; no deduplication is
	// performed.
	Resources []Resource
}
