package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MaxDetailLines caps the captured output echoed per runner in a summary.
const MaxDetailLines = 40

// RunnerOutcome is the orchestrator's view of one runner child process.
type RunnerOutcome struct {
	Runner     string        `json:"runner"`
	Passed     bool          `json:"passed"`
	TimedOut   bool          `json:"timed_out,omitempty"`
	ExitCode   int           `json:"exit_code"`
	Duration   time.Duration `json:"-"`
	DurationMS int64         `json:"duration_ms"`
	Stdout     string        `json:"stdout,omitempty"`
	Stderr     string        `json:"stderr,omitempty"`
	FirstError string        `json:"first_error,omitempty"`
	ReportPath string        `json:"report_path,omitempty"`
}

// Result returns "Passed" or "Failed".
func (o RunnerOutcome) Result() string {
	if o.Passed {
		return "Passed"
	}
	return "Failed"
}

// Summary aggregates one outcome per runner of a sweep.
type Summary struct {
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Outcomes   []RunnerOutcome `json:"outcomes"`
}

// Total returns the number of runners in the sweep.
func (s *Summary) Total() int {
	return len(s.Outcomes)
}

// Passed returns the number of runners that passed.
func (s *Summary) Passed() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Passed {
			n++
		}
	}
	return n
}

// Failed returns the number of runners that failed.
func (s *Summary) Failed() int {
	return s.Total() - s.Passed()
}

// Duration returns the wall-clock duration of the sweep.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// RenderSummary renders the combined summary. Report links are made relative
// to baseDir when possible so the summary can be moved with its reports.
func RenderSummary(s *Summary, baseDir string) []byte {
	var buf bytes.Buffer

	buf.WriteString("# UI Smoke Test Summary\n\n")
	fmt.Fprintf(&buf, "- Started: %s\n", s.StartedAt.Format(TimeFormat))
	fmt.Fprintf(&buf, "- Duration: %s\n", s.Duration().Round(time.Millisecond))
	fmt.Fprintf(&buf, "- Total runners: %d\n", s.Total())
	fmt.Fprintf(&buf, "- Passed: %d\n", s.Passed())
	fmt.Fprintf(&buf, "- Failed: %d\n", s.Failed())

	buf.WriteString("\n## Runners\n\n")
	rows := make([][]string, 0, len(s.Outcomes))
	for _, o := range s.Outcomes {
		rows = append(rows, []string{
			cell(o.Runner),
			o.Result(),
			o.Duration.Round(time.Millisecond).String(),
			cell(o.FirstError),
		})
	}
	writeMarkdownTable(&buf, []string{"Runner", "Result", "Duration", "Error"}, rows)

	buf.WriteString("\n## Details\n")
	for _, o := range s.Outcomes {
		fmt.Fprintf(&buf, "\n### %s\n\n", o.Runner)
		fmt.Fprintf(&buf, "- Result: %s\n", o.Result())
		fmt.Fprintf(&buf, "- Exit code: %d\n", o.ExitCode)
		if o.TimedOut {
			buf.WriteString("- Timed out: yes\n")
		}
		if o.ReportPath != "" {
			link := relativeTo(baseDir, o.ReportPath)
			fmt.Fprintf(&buf, "- Report: [%s](%s)\n", filepath.Base(o.ReportPath), filepath.ToSlash(link))
		}
		if o.FirstError != "" {
			fmt.Fprintf(&buf, "- Error: %s\n", cell(o.FirstError))
		}

		lines := FilterOutput(o.Stdout, MaxDetailLines)
		lines = append(lines, FilterOutput(o.Stderr, MaxDetailLines)...)
		if len(lines) > 0 {
			buf.WriteString("\n```text\n")
			for _, l := range lines {
				buf.WriteString(l)
				buf.WriteByte('\n')
			}
			buf.WriteString("```\n")
		}
	}
	return buf.Bytes()
}

// WriteSummary overwrites the combined summary at path.
func WriteSummary(path string, s *Summary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create summary directory: %w", err)
	}
	if err := os.WriteFile(path, RenderSummary(s, filepath.Dir(path)), 0644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// outputMarkers select the captured lines worth echoing in a summary.
var outputMarkers = []string{
	"✓", "✗", "PASS", "FAIL", "ERROR", "Error", "error", "WARN",
	string(StatusSuccess), string(StatusFailed), string(StatusSkipped), string(StatusUnknown),
}

// FilterOutput keeps the non-empty lines of captured output that carry a
// result or error marker, at most limit of them.
func FilterOutput(output string, limit int) []string {
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r ")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if !hasMarker(line) {
			continue
		}
		if len(lines) == limit {
			lines = append(lines, "...")
			break
		}
		lines = append(lines, line)
	}
	return lines
}

func hasMarker(line string) bool {
	for _, m := range outputMarkers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}

// FirstLine returns the first non-blank line of s, trimmed.
func FirstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			return t
		}
	}
	return ""
}

func relativeTo(base, target string) string {
	if base == "" {
		return target
	}
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return target
	}
	return rel
}
