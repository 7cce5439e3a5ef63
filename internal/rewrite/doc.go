// Package rewrite implements the resource discovery and rewriting pipeline
// that turns a fetched page into a self-contained local mirror.
//
// # Components
//
//   - Classifier: resolves raw references against the page URL and decides
//     whether they point at the page's own origin
//   - Namer: derives deterministic on-disk filenames from resolved URLs
//   - Transformer: walks the parsed document, rewrites same-origin
//     references in place, and collects the resources to download
//
// # Locality
//
// A reference is local when its resolved host is exactly the page URL's
// host. The comparison is a plain string match: no case folding, no default
// port stripping, no trailing-dot normalization. Subdomains are therefore
// remote. This is deliberately strict so that a mirror never silently pulls
// content from a host the user did not name.
//
// # Naming
//
// Filenames are derived from the resolved host and path with every
// non-alphanumeric byte replaced by a hyphen, keeping a recognizable path
// extension and defaulting to "html" otherwise. The scheme and query are
// not part of the name. Naming is deterministic but not collision-free:
// two distinct URLs can sanitize to the same name, and the later resource
// then overwrites the earlier one on disk. That is an accepted limitation,
// not something the namer tries to repair.
//
// Design decision: We use goquery as the editable document tree rather than
// walking x/net/html nodes by hand because the transformer's needs map
// one-to-one onto its API: find elements by tag in document order, read and
// set attributes, serialize back to markup.
package rewrite
