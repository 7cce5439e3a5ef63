package rewrite

import (
	"fmt"
	"net/url"
	"strings"
)

// Classifier resolves raw link references against a page URL and classifies
// them as local (same origin) or remote.
//
// Design decision: The classifier is constructed once per page rather than
// taking the page URL on every call because every reference on a page shares
// the same base, and parsing the base once keeps the per-reference path
// allocation-free on the happy path.
type Classifier struct {
	// pageURL is the parsed URL of the page being mirrored.
	pageURL *url.URL
}

// NewClassifier creates a Classifier for the given page URL.
// The page URL must be absolute (scheme and host present); everything the
// classifier decides is relative to it.
func NewClassifier(pageURL string) (*Classifier, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %q: %w", pageURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("page URL %q is not absolute", pageURL)
	}
	return &Classifier{pageURL: u}, nil
}

// PageURL returns the parsed page URL the classifier resolves against.
func (c *Classifier) PageURL() *url.URL {
	return c.pageURL
}

// Resolve turns a raw reference into an absolute URL using standard
// URL-joining semantics: references that already carry a host are returned
// as-is (resolution is idempotent), relative paths resolve against the
// page's current path, rooted paths ("/...") against the page's root, and
// protocol-relative references ("//host/...") inherit the page's scheme.
//
// Malformed references resolve best-effort: if the reference cannot be
// parsed at all, Resolve returns nil and IsLocal will exclude it.
func (c *Classifier) Resolve(raw string) *url.URL {
	ref, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil
	}
	return c.pageURL.ResolveReference(ref)
}

// IsLocal reports whether the resolved reference points at the page's own
// origin. The host comparison is an exact string match as emitted by the
// URL parser: case-sensitive, no normalization of default ports or trailing
// dots. Subdomains are treated as remote.
func (c *Classifier) IsLocal(resolved *url.URL) bool {
	if resolved == nil || resolved.Host == "" {
		return false
	}
	return resolved.Host == c.pageURL.Host
}
