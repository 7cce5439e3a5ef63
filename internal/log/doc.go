// Package log provides secure logging utilities for pagemirror.
// It wraps log/slog handlers to redact credentials before they reach the
// log output: cookie and authorization values loaded from site configs,
// and userinfo embedded in logged URLs.
package log
