package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func fixedNow() func() time.Time {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func tableLines(doc string) []string {
	var lines []string
	for _, l := range strings.Split(doc, "\n") {
		if strings.HasPrefix(l, "|") {
			lines = append(lines, l)
		}
	}
	return lines
}

func TestRenderMarkdown_EmptyResults(t *testing.T) {
	doc := string(RenderMarkdown("Users Test Results", nil))

	assert.Contains(t, doc, "# Users Test Results")
	assert.Contains(t, doc, "- Total: 0")
	for _, s := range Statuses {
		assert.Contains(t, doc, "- "+string(s)+": 0")
	}
	assert.Contains(t, doc, "No tests were run.")

	lines := tableLines(doc)
	require.Len(t, lines, 2, "header and separator only")
	for _, h := range resultHeaders {
		assert.Contains(t, lines[0], h)
	}
	assert.Contains(t, lines[1], "---")
}

func TestRenderMarkdown_PreservesExecutionOrder(t *testing.T) {
	rep := NewReporter("Roles Test Results", fixedNow())
	rep.Record("Roles", "Login", StatusSuccess, "ok")
	rep.Record("Roles", "List roles", StatusFailed, "no marker")
	rep.Record("Roles", "Create role", StatusSkipped, "no fixture data")

	doc := string(RenderMarkdown(rep.Title(), rep.Results()))
	lines := tableLines(doc)
	require.Len(t, lines, 5)
	assert.Contains(t, lines[2], "Login")
	assert.Contains(t, lines[3], "List roles")
	assert.Contains(t, lines[4], "Create role")

	assert.Contains(t, doc, "- Total: 3")
	assert.Contains(t, doc, "- Success: 1")
	assert.Contains(t, doc, "- Failed: 1")
	assert.Contains(t, doc, "- Skipped: 1")
	assert.NotContains(t, doc, "No tests were run.")
	assert.Contains(t, lines[2], "2026-03-01T09:00:01Z")
}

func TestRenderMarkdown_EscapesCells(t *testing.T) {
	results := []TestResult{{
		Feature: "Guests",
		Test:    "Create guest",
		Status:  StatusFailed,
		Message: "line one\nline | two",
	}}
	lines := tableLines(string(RenderMarkdown("Guests", results)))
	require.Len(t, lines, 3)
	assert.Contains(t, lines[2], `line one line \| two`)
}

func TestReporter_ResultsIsACopy(t *testing.T) {
	rep := NewReporter("x", fixedNow())
	rep.Record("F", "T", StatusSuccess, "")
	got := rep.Results()
	got[0].Status = StatusFailed

	assert.Equal(t, StatusSuccess, rep.Results()[0].Status)
	assert.Equal(t, 1, rep.Counts().Success)
	assert.Equal(t, 1, rep.Len())
}

func TestCounts(t *testing.T) {
	var c Counts
	for _, s := range []Status{StatusSuccess, StatusSuccess, StatusError, StatusUnknown, StatusSkipped, StatusFailed} {
		c.Add(s)
	}
	assert.Equal(t, 6, c.Total())
	assert.Equal(t, 2, c.Of(StatusSuccess))
	assert.Equal(t, "2 success, 1 failed, 1 skipped, 1 error, 1 unknown", c.String())
	assert.True(t, StatusUnknown.Valid())
	assert.False(t, Status("Maybe").Valid())
}

func TestRenderJSON_EmptyHasEmptyArray(t *testing.T) {
	data, err := RenderJSON("Login", nil)
	require.NoError(t, err)

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, float64(0), doc["total"])
	assert.Equal(t, []interface{}{}, doc["results"])
}

func TestWriteRunReport_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "users-test-results.md")

	first := []TestResult{{Feature: "Users", Test: "Login", Status: StatusFailed, Message: "first"}}
	require.NoError(t, WriteRunReport(path, "Users", first))
	second := []TestResult{{Feature: "Users", Test: "Login", Status: StatusSuccess, Message: "second"}}
	require.NoError(t, WriteRunReport(path, "Users", second))

	md, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(md), "second")
	assert.NotContains(t, string(md), "first")

	js, err := os.ReadFile(filepath.Join(filepath.Dir(path), "users-test-results.json"))
	require.NoError(t, err)
	var doc Document
	require.NoError(t, json.Unmarshal(js, &doc))
	require.Len(t, doc.Results, 1)
	assert.Equal(t, StatusSuccess, doc.Results[0].Status)
}

func sampleSummary(dir string) *Summary {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return &Summary{
		StartedAt:  start,
		FinishedAt: start.Add(90 * time.Second),
		Outcomes: []RunnerOutcome{
			{
				Runner:     "login",
				Passed:     true,
				Duration:   20 * time.Second,
				Stdout:     "starting\n✓ Login: Success\n",
				ReportPath: filepath.Join(dir, "login-test-results.md"),
			},
			{
				Runner:     "users",
				Passed:     false,
				ExitCode:   2,
				Duration:   70 * time.Second,
				Stderr:     "Error: cannot launch browser\n",
				FirstError: "Error: cannot launch browser",
				ReportPath: filepath.Join(dir, "users-test-results.md"),
			},
		},
	}
}

func TestRenderSummary(t *testing.T) {
	dir := "/tmp/results"
	doc := string(RenderSummary(sampleSummary(dir), dir))

	assert.Contains(t, doc, "- Total runners: 2")
	assert.Contains(t, doc, "- Passed: 1")
	assert.Contains(t, doc, "- Failed: 1")
	assert.Contains(t, doc, "- Duration: 1m30s")
	assert.Contains(t, doc, "### login")
	assert.Contains(t, doc, "### users")
	assert.Contains(t, doc, "[users-test-results.md](users-test-results.md)")
	assert.Contains(t, doc, "✓ Login: Success")
	assert.NotContains(t, doc, "starting")
	assert.Contains(t, doc, "Error: cannot launch browser")

	lines := tableLines(doc)
	require.Len(t, lines, 4)
	assert.Contains(t, lines[2], "Passed")
	assert.Contains(t, lines[3], "Failed")
}

func TestWriteSummaryWorkbook(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "summary.xlsx")
	require.NoError(t, WriteSummaryWorkbook(path, sampleSummary(dir)))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(workbookSheet)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 3)
	assert.Equal(t, workbookHeaders, rows[0])
	assert.Equal(t, "login", rows[1][0])
	assert.Equal(t, "Passed", rows[1][1])
	assert.Equal(t, "users", rows[2][0])
	assert.Equal(t, "Failed", rows[2][1])
}

func TestFilterOutput(t *testing.T) {
	out := "noise\n✓ step one\n\nFAIL step two\nmore noise\n"
	assert.Equal(t, []string{"✓ step one", "FAIL step two"}, FilterOutput(out, 10))

	var many strings.Builder
	for i := 0; i < 5; i++ {
		many.WriteString("ERROR x\n")
	}
	got := FilterOutput(many.String(), 3)
	assert.Equal(t, []string{"ERROR x", "ERROR x", "ERROR x", "..."}, got)
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "boom", FirstLine("\n  \n boom \nnext"))
	assert.Equal(t, "", FirstLine("   "))
}
