// Package pipeline orchestrates the mirroring of a single page as a
// sequence of steps: fetch the page, rewrite its same-origin references,
// persist the resources, persist the page, and record the run. A batch
// processor runs multiple page pipelines concurrently.
package pipeline
