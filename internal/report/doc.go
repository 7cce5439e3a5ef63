// Package report provides output formatting for mirror run results.
// It supports human-readable text (default), JSON for tool integration,
// and GitHub Flavored Markdown for documentation.
package report
