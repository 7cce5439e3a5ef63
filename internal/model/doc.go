// Package model defines the data structures shared across pagemirror:
// fetched pages, discovered resources, transform results, and the mirror
// run report. It contains no behavior beyond small accessors so that the
// pipeline, database, and report packages can depend on it without cycles.
package model
