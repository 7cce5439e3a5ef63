// Package config provides configuration structures and utilities for
// pagemirror. It defines the main configuration options for page mirroring,
// resource download settings, and report generation preferences.
package config
