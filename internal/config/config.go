package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen for typical clearnet page sizes and ordinary
// broadband latency.
const (
	// DefaultTimeout is set to 30 seconds. Pages and their resources are
	// single HTTP round trips to ordinary web servers, so a generous
	// Tor-style timeout is unnecessary; 30 seconds covers slow origins
	// without letting a stalled request hang the whole mirror.
	DefaultTimeout = 30 * time.Second

	// DefaultConcurrency of 4 simultaneous resource downloads balances
	// throughput with politeness toward the origin server. Every resource
	// comes from the same host, so high fan-out mostly triggers rate
	// limiting rather than speedups.
	DefaultConcurrency = 4

	// DefaultBatchSize of 2 concurrent page mirrors keeps multi-target runs
	// moving without multiplying the per-page resource concurrency into an
	// unfriendly connection count.
	DefaultBatchSize = 2

	// AppName is the application name used for XDG directory paths.
	AppName = "pagemirror"

	// DefaultUserAgent identifies pagemirror in HTTP requests.
	// Using a descriptive User-Agent is good practice and allows operators
	// to identify mirror traffic in their logs.
	DefaultUserAgent = "pagemirror/1.0 (+https://github.com/nao1215/pagemirror)"

	// DefaultMaxBodySize limits the maximum response body size to read.
	// 10MB is sufficient for HTML pages and typical page resources while
	// preventing memory exhaustion from unexpectedly large responses.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB
)

// Config holds all configuration options for pagemirror.
// This struct is designed to be populated from CLI flags and passed through
// the application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., FetchConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
// If the configuration grows significantly, consider refactoring into sub-structs.
type Config struct {
	// Targets is the list of page URLs to mirror.
	// Must contain at least one absolute http or https URL.
	Targets []string

	// OutputDir is the directory the mirrored page and its resource
	// subdirectory are written into. Defaults to the current directory.
	OutputDir string

	// Timeout is the connection timeout for each HTTP request.
	// This applies to individual requests, not the overall mirror duration.
	Timeout time.Duration

	// Concurrency is the number of simultaneous resource downloads per page.
	// A value of 1 downloads resources sequentially in document order.
	Concurrency int

	// BatchSize is the number of concurrent page mirrors when processing
	// multiple targets. Each page still respects Concurrency internally.
	BatchSize int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .pagemirror in the current directory
	// and then in the user's home directory.
	ConfigFilePath string

	// SiteConfigs holds host-specific configurations loaded from the config
	// file. This is populated by LoadConfigFile and used when fetching.
	SiteConfigs *File

	// JSONReport enables JSON report output instead of human-readable format.
	// When true, outputs detailed JSON with all collected data.
	// When false, outputs human-readable simple report (default).
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of human-readable
	// format. When true, outputs GitHub Flavored Markdown with tables.
	// When false, outputs human-readable simple report (default).
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	// Directories are created automatically if they don't exist.
	ReportFile string

	// UserAgent is the User-Agent header sent with HTTP requests.
	// A descriptive User-Agent helps server operators identify mirror traffic.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Responses larger than this are truncated to prevent memory exhaustion.
	// Set to 0 to use the default (10MB).
	MaxBodySize int64

	// DBDir is the directory path for storing the SQLite database.
	// When set, mirror results are saved to the database as run history.
	// When empty, mirror results are not persisted.
	// Defaults to XDG data directory (~/.local/share/pagemirror on Linux).
	DBDir string

	// SaveToDB indicates whether to save mirror results to the database.
	// This is automatically set to true when DBDir is configured.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., timeout, concurrency).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		OutputDir:   ".",
		Timeout:     DefaultTimeout,
		Concurrency: DefaultConcurrency,
		BatchSize:   DefaultBatchSize,
		UserAgent:   DefaultUserAgent,
		MaxBodySize: DefaultMaxBodySize,
	}
}

// XDGDataDir returns the XDG data directory for pagemirror.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.local/share/pagemirror
// On macOS: ~/Library/Application Support/pagemirror
// On Windows: %LOCALAPPDATA%\pagemirror
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for pagemirror.
// This follows the XDG Base Directory Specification.
// On Linux: ~/.config/pagemirror
// On macOS: ~/Library/Application Support/pagemirror
// On Windows: %APPDATA%\pagemirror
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// This is called once after CLI parsing, before any mirroring begins.
//
// We chose to return the first error found rather than collecting all errors
// because fixing one error often makes others irrelevant.
func (c *Config) Validate() error {
	// We must have at least one page to mirror
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	// Timeout must be positive; zero timeout would cause immediate failures
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	// Concurrency must be positive; 1 means sequential downloads
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	// BatchSize must be positive; zero would mean no mirroring
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	// MaxBodySize must be non-negative; 0 means use the default
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}
