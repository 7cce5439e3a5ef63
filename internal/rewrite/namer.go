package rewrite

import (
	"net/url"
	"path"
	"strings"
)

// DefaultExtension is appended to resource names whose URL path carries no
// recognizable file extension. Pages and extensionless resources are both
// assumed to be HTML, matching what servers overwhelmingly return for them.
const DefaultExtension = "html"

// assetDirSuffix is appended to the page name to form the resource
// subdirectory, following the browser "Save Page As" convention.
const assetDirSuffix = "_files"

// ResourceName derives the on-disk filename for a resolved resource URL.
//
// The name is the sanitized concatenation of host and path (scheme and
// query dropped, every non-alphanumeric byte replaced by a hyphen) plus the
// path's extension, or DefaultExtension when the path has none.
//
//	https://example.com/images/a.png  -> example-com-images-a.png
//	https://example.com/assets/app.js -> example-com-assets-app.js
//	https://example.com/              -> example-com.html
//
// Naming is deterministic: the same URL always produces the same name.
// No uniqueness across distinct URLs is guaranteed; colliding names are
// last-writer-wins on disk.
func ResourceName(u *url.URL) string {
	ext := strings.TrimPrefix(path.Ext(u.Path), ".")
	stem := strings.TrimSuffix(u.Path, path.Ext(u.Path))
	if ext == "" {
		ext = DefaultExtension
	}
	return sanitize(u.Host+stem) + "." + ext
}

// PageName derives the base name for the mirrored page itself from its URL:
// the sanitized host and path, without any extension.
//
//	https://example.com/blog/post -> example-com-blog-post
//	https://example.com/          -> example-com
func PageName(u *url.URL) string {
	return sanitize(u.Host + strings.TrimSuffix(u.Path, "/"))
}

// PageFileName returns the filename of the rewritten HTML document.
func PageFileName(u *url.URL) string {
	return PageName(u) + "." + DefaultExtension
}

// AssetDirName returns the name of the resource subdirectory for the page.
func AssetDirName(u *url.URL) string {
	return PageName(u) + assetDirSuffix
}

// sanitize replaces every byte outside [0-9A-Za-z] with a hyphen and trims
// trailing hyphens so that root paths still yield a clean, non-empty name.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return strings.TrimRight(b.String(), "-")
}
