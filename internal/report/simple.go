package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"pagemirror/internal/model"
)

// timeRounding is the precision elapsed durations are rounded to for display.
const timeRounding = time.Millisecond

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables the per-resource breakdown in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with the per-resource breakdown.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.MirrorReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	if w.verbose {
		w.writeResources(&sb, report)
	}
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.MirrorReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        PAGEMIRROR REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Page URL:    %s\n", report.PageURL))
	sb.WriteString(fmt.Sprintf("Mirror Date: %s\n", report.DateMirrored.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Output Dir:  %s\n", report.OutputDir))

	if report.Error != "" {
		sb.WriteString(fmt.Sprintf("Status:      ERROR - %s\n", report.Error))
	} else {
		sb.WriteString("Status:      Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the mirror summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.MirrorReport) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if report.PageFile != "" {
		sb.WriteString(fmt.Sprintf("  Page file:     %s\n", filepath.Join(report.OutputDir, report.PageFile)))
	}
	if report.AssetDir != "" && report.ResourceCount() > 0 {
		sb.WriteString(fmt.Sprintf("  Asset dir:     %s\n", filepath.Join(report.OutputDir, report.AssetDir)))
	}
	sb.WriteString(fmt.Sprintf("  Resources:     %d\n", report.ResourceCount()))
	sb.WriteString(fmt.Sprintf("  Bytes written: %d\n", report.BytesWritten))
	if report.Elapsed > 0 {
		sb.WriteString(fmt.Sprintf("  Elapsed:       %s\n", report.Elapsed.Round(timeRounding)))
	}
	sb.WriteString("\n")
}

// writeResources writes the per-resource breakdown.
func (w *SimpleWriter) writeResources(sb *strings.Builder, report *model.MirrorReport) {
	if report.ResourceCount() == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RESOURCES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, res := range report.Resources {
		sb.WriteString(fmt.Sprintf("  [%s] %s\n", res.Tag, res.SourceURL))
		sb.WriteString(fmt.Sprintf("       -> %s (%d bytes)\n", res.LocalName, res.Size))
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by pagemirror\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
