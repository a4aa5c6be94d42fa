package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
)

// TimeFormat is the timestamp layout used in every rendered report.
const TimeFormat = time.RFC3339

var resultHeaders = []string{"Feature", "Test", "Status", "Message", "Timestamp"}

// RenderMarkdown renders a run report: title, per-status summary, then a
// results table in execution order. An empty sequence yields a report that
// states no tests ran, with a header row and no data rows.
func RenderMarkdown(title string, results []TestResult) []byte {
	var buf bytes.Buffer
	counts := CountResults(results)

	fmt.Fprintf(&buf, "# %s\n\n", title)
	buf.WriteString("## Summary\n\n")
	fmt.Fprintf(&buf, "- Total: %d\n", counts.Total())
	for _, s := range Statuses {
		fmt.Fprintf(&buf, "- %s: %d\n", s, counts.Of(s))
	}
	buf.WriteString("\n## Results\n\n")
	if len(results) == 0 {
		buf.WriteString("No tests were run.\n\n")
	}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			cell(r.Feature),
			cell(r.Test),
			string(r.Status),
			cell(r.Message),
			r.Time.Format(TimeFormat),
		})
	}
	writeMarkdownTable(&buf, resultHeaders, rows)
	return buf.Bytes()
}

// writeMarkdownTable renders a GitHub-flavored markdown table.
func writeMarkdownTable(w io.Writer, headers []string, rows [][]string) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(headers)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.AppendBulk(rows)
	table.Render()
}

// cell makes free text safe for a single markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.TrimSpace(s)
}

// Document is the JSON form of a run report.
type Document struct {
	Title   string       `json:"title"`
	Total   int          `json:"total"`
	Counts  Counts       `json:"counts"`
	Results []TestResult `json:"results"`
}

// RenderJSON renders the JSON companion of a run report.
func RenderJSON(title string, results []TestResult) ([]byte, error) {
	if results == nil {
		results = []TestResult{}
	}
	counts := CountResults(results)
	doc := Document{
		Title:   title,
		Total:   counts.Total(),
		Counts:  counts,
		Results: results,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteRunReport overwrites the markdown report at path and writes the JSON
// companion next to it (same base name, .json extension).
func WriteRunReport(path, title string, results []TestResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}
	if err := os.WriteFile(path, RenderMarkdown(title, results), 0644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	data, err := RenderJSON(title, results)
	if err != nil {
		return err
	}
	if err := os.WriteFile(JSONPath(path), data, 0644); err != nil {
		return fmt.Errorf("write json report: %w", err)
	}
	return nil
}

// JSONPath returns the JSON companion path for a markdown report path.
func JSONPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".json"
}
