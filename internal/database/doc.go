// Package database provides SQLite-based persistence for pagemirror.
// It stores a history of mirror runs so users can see what was mirrored
// when, and whether a page changed between runs (via the page hash).
package database
