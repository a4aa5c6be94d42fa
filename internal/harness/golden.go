package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/uismoke/internal/report"
)

// AssertReportGolden compares the JSON run report of an outcome against
// testdata/golden/{name}.golden. Run with a deterministic clock so the
// timestamps are stable.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertReportGolden(t *testing.T, name string, out *Outcome) {
	t.Helper()

	data, err := report.RenderJSON(out.Reporter.Title(), out.Reporter.Results())
	if err != nil {
		t.Fatalf("render report: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
}
