// Package main provides the entry point for the pagemirror CLI.
//
// Pagemirror downloads a web page, rewrites its same-origin image,
// stylesheet, and script references to local paths, and saves the page
// together with those resources so it can be opened offline.
//
// Usage:
//
//	pagemirror mirror <url>
//	pagemirror history
//
// See --help for all available options.
package main

// main is the entry point for pagemirror.
func main() {
	Execute()
}
