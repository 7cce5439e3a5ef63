package model

import "time"

// MirrorReport is the result of mirroring a single page.
// It contains everything the report writers and the history database need.
//
// Design decision: We use one flat struct rather than separate summary and
// detail types because a mirror run produces a small, bounded amount of
// data; there is nothing to elide the way a large scan report would.
type MirrorReport struct {
	// PageURL is the page that was mirrored.
	PageURL string `json:"page_url"`

	// Host is the page URL's host, recorded separately for history queries.
	Host string `json:"host"`

	// DateMirrored is when the run was performed.
	DateMirrored time.Time `json:"date_mirrored"`

	// OutputDir is the destination directory the mirror was written into.
	OutputDir string `json:"output_dir"`

	// PageFile is the path of the rewritten HTML document, relative to
	// OutputDir (e.g. "example-com-blog-post.html").
	PageFile string `json:"page_file"`

	// AssetDir is the resource subdirectory name, relative to OutputDir
	// (e.g. "example-com-blog-post_files").
	AssetDir string `json:"asset_dir"`

	// StatusCode is the HTTP status of the page fetch.
	StatusCode int `json:"status_code"`

	// PageHash is the SHA-256 hash of the raw page content.
	PageHash string `json:"page_hash,omitempty"`

	// Resources lists every persisted resource in rewrite order.
	Resources []Resource `json:"resources,omitempty"`

	// BytesWritten is the total number of bytes persisted, page included.
	BytesWritten int64 `json:"bytes_written"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed_ns"`

	// Error contains the failure message if the run aborted.
	// A run with a non-empty Error produced no usable mirror.
	Error string `json:"error,omitempty"`
}

// NewMirrorReport creates a report for the given page URL with the
// mirror date set to now.
func NewMirrorReport(pageURL string) *MirrorReport {
	return &MirrorReport{
		PageURL:      pageURL,
		DateMirrored: time.Now(),
	}
}

// ResourceCount returns the number of persisted resources.
func (r *MirrorReport) ResourceCount() int {
	return len(r.Resources)
}

// Succeeded reports whether the run completed without error.
func (r *MirrorReport) Succeeded() bool {
	return r.Error == ""
}

// AddResource appends a resource to the report.
func (r *MirrorReport) AddResource(res Resource) {
	r.Resources = append(r.Resources, res)
}
