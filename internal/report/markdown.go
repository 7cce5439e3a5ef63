package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"

	"pagemirror/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.MirrorReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeResources(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.MirrorReport) {
	md.H1("Pagemirror Report")
	md.PlainText("")

	// Basic info table
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Page URL", "`" + report.PageURL + "`"},
			{"Mirror Date", report.DateMirrored.Format("2006-01-02 15:04:05 MST")},
			{"Output Dir", "`" + report.OutputDir + "`"},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.MirrorReport) string {
	if report.Error != "" {
		return "❌ Error - " + report.Error
	}
	return "✅ Complete"
}

// writeSummary writes the mirror summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.MirrorReport) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Page file", "`" + report.PageFile + "`"},
			{"Asset dir", "`" + report.AssetDir + "`"},
			{"Resources", strconv.Itoa(report.ResourceCount())},
			{"Bytes written", strconv.FormatInt(report.BytesWritten, 10)},
			{"HTTP status", strconv.Itoa(report.StatusCode)},
		},
	})
	md.PlainText("")

	if report.Error != "" {
		md.Cautionf("Mirror run failed: %s", report.Error)
		md.PlainText("")
	}
}

// writeResources writes the resource breakdown table.
func (w *MarkdownWriter) writeResources(md *markdown.Markdown, report *model.MirrorReport) {
	md.H2("Resources")
	md.PlainText("")

	if report.ResourceCount() == 0 {
		md.PlainText("No same-origin resources were found on the page.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Resources))
	for i, res := range report.Resources {
		rows[i] = []string{
			res.Tag,
			truncateString(res.SourceURL, 60),
			"`" + res.LocalName + "`",
			strconv.FormatInt(res.Size, 10),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Tag", "Source URL", "Local Name", "Bytes"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [pagemirror](https://github.com/nao1215/pagemirror)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
