package orchestrator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/uismoke/internal/history"
	"github.com/roach88/uismoke/internal/report"
	"github.com/roach88/uismoke/internal/supervisor"
	"github.com/roach88/uismoke/internal/testutil"
)

var sweepStart = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestOrchestrator(sup supervisor.Supervisor, opts ...Option) *Orchestrator {
	clock := testutil.NewDeterministicClock(sweepStart)
	base := []Option{WithClock(clock.Now), WithLogger(quietLogger())}
	return New(sup, "/usr/local/bin/uismoke", append(base, opts...)...)
}

func TestSweep_FailureDoesNotAbortSiblings(t *testing.T) {
	dir := t.TempDir()
	summaryPath := filepath.Join(dir, "test-summary.md")

	sup := testutil.NewFakeSupervisor(map[string]testutil.FakeRun{
		"login": {Stdout: "✓ Login / Login: Success - authenticated as admin\n"},
		"users": {
			Exit:   supervisor.Exit{Code: 1},
			Stdout: "✗ Users / Create Ada: Failed - missing element: submit control\n",
			Stderr: "\nError: missing element: submit control (none of [\"button\"] found)\n    at step Create\n",
		},
		"roles": {Stdout: "✓ Roles / List view: Success - listing present\n"},
	})
	orch := newTestOrchestrator(sup, WithSummaryPath(summaryPath))

	sum, err := orch.Sweep(context.Background(), []string{"login", "users", "roles"})
	require.NoError(t, err)

	require.Equal(t, 3, sum.Total())
	assert.Equal(t, 2, sum.Passed())
	assert.True(t, sum.Outcomes[0].Passed)
	assert.False(t, sum.Outcomes[1].Passed)
	assert.True(t, sum.Outcomes[2].Passed)
	assert.Equal(t, `Error: missing element: submit control (none of ["button"] found)`, sum.Outcomes[1].FirstError)
	assert.Equal(t, 1, sum.Outcomes[1].ExitCode)

	data, err := os.ReadFile(summaryPath)
	require.NoError(t, err)
	doc := string(data)
	assert.Contains(t, doc, "- Total runners: 3")
	assert.Contains(t, doc, "- Failed: 1")
	assert.Contains(t, doc, "### users")
	assert.Contains(t, doc, "✗ Users / Create Ada: Failed")
}

func TestSweep_RunsStrictlyInOrder(t *testing.T) {
	sup := testutil.NewFakeSupervisor(nil)
	orch := newTestOrchestrator(sup)

	runners := []string{"login", "users", "roles", "guests", "rsvp", "subevents"}
	_, err := orch.Sweep(context.Background(), runners)
	require.NoError(t, err)

	spawned := sup.Spawned()
	require.Len(t, spawned, len(runners))
	for i, spec := range spawned {
		assert.Equal(t, runners[i], spec.Name)
		assert.Equal(t, "/usr/local/bin/uismoke", spec.Path)
		assert.Equal(t, []string{"run", runners[i]}, spec.Args)
	}
	assert.Equal(t, 1, sup.MaxConcurrent(), "runners must never overlap")
}

func TestSweep_TimeoutIsRecordedAndSweepContinues(t *testing.T) {
	sup := testutil.NewFakeSupervisor(map[string]testutil.FakeRun{
		"guests": {Hang: true, Stdout: "✓ Guests / Login: Success\n"},
	})
	orch := newTestOrchestrator(sup)

	sum, err := orch.Sweep(context.Background(), []string{"guests", "rsvp"})
	require.NoError(t, err)

	require.Len(t, sum.Outcomes, 2)
	hung := sum.Outcomes[0]
	assert.False(t, hung.Passed)
	assert.True(t, hung.TimedOut)
	assert.Equal(t, -1, hung.ExitCode)
	assert.Equal(t, "timed out after 5m0s", hung.FirstError)
	assert.Equal(t, "✓ Guests / Login: Success\n", hung.Stdout, "partial output kept")
	assert.True(t, sum.Outcomes[1].Passed)

	assert.Equal(t, []time.Duration{DefaultRunnerTimeout, DefaultRunnerTimeout}, sup.Waits())
}

func TestSweep_CustomTimeout(t *testing.T) {
	sup := testutil.NewFakeSupervisor(nil)
	orch := newTestOrchestrator(sup, WithTimeout(30*time.Second), WithTimeout(0))

	_, err := orch.Sweep(context.Background(), []string{"login"})
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{30 * time.Second}, sup.Waits())
}

func TestSweep_SpawnErrorIsAFailedRunner(t *testing.T) {
	sup := testutil.NewFakeSupervisor(map[string]testutil.FakeRun{
		"roles": {SpawnErr: errors.New(`runner "roles": start: permission denied`)},
	})
	orch := newTestOrchestrator(sup)

	sum, err := orch.Sweep(context.Background(), []string{"roles", "guests"})
	require.NoError(t, err)

	assert.False(t, sum.Outcomes[0].Passed)
	assert.Equal(t, -1, sum.Outcomes[0].ExitCode)
	assert.Equal(t, `runner "roles": start: permission denied`, sum.Outcomes[0].FirstError)
	assert.True(t, sum.Outcomes[1].Passed)
}

func TestSweep_FirstErrorFallbacks(t *testing.T) {
	sup := testutil.NewFakeSupervisor(map[string]testutil.FakeRun{
		"rsvp":      {Exit: supervisor.Exit{Code: 2}},
		"subevents": {Exit: supervisor.Exit{Code: -1, Err: errors.New("wait: broken pipe")}},
	})
	orch := newTestOrchestrator(sup)

	sum, err := orch.Sweep(context.Background(), []string{"rsvp", "subevents"})
	require.NoError(t, err)

	assert.Equal(t, "exit status 2", sum.Outcomes[0].FirstError)
	assert.Equal(t, "wait: broken pipe", sum.Outcomes[1].FirstError)
}

func TestSweep_DurationsFromClock(t *testing.T) {
	sup := testutil.NewFakeSupervisor(nil)
	orch := newTestOrchestrator(sup)

	sum, err := orch.Sweep(context.Background(), []string{"login", "users"})
	require.NoError(t, err)

	// Calls: sweep start, login start/end, users start/end, sweep end.
	assert.Equal(t, sweepStart, sum.StartedAt)
	assert.Equal(t, sweepStart.Add(5*time.Second), sum.FinishedAt)
	assert.Equal(t, time.Second, sum.Outcomes[0].Duration)
	assert.Equal(t, int64(1000), sum.Outcomes[0].DurationMS)
}

func TestSweep_LinksReportsThatExist(t *testing.T) {
	dir := t.TempDir()
	reportFor := func(runner string) string {
		return filepath.Join(dir, runner+"-test-results.md")
	}

	sup := testutil.NewFakeSupervisor(map[string]testutil.FakeRun{
		"guests": {OnSpawn: func(spec supervisor.Spec) {
			_ = os.WriteFile(reportFor(spec.Name), []byte("# Guests Test Results\n"), 0644)
		}},
		"rsvp": {Exit: supervisor.Exit{Code: 2}, Stderr: "cannot launch browser\n"},
	})
	orch := newTestOrchestrator(sup, WithReportPath(reportFor), WithSummaryPath(filepath.Join(dir, "test-summary.md")))

	sum, err := orch.Sweep(context.Background(), []string{"guests", "rsvp"})
	require.NoError(t, err)

	assert.Equal(t, reportFor("guests"), sum.Outcomes[0].ReportPath)
	assert.Empty(t, sum.Outcomes[1].ReportPath, "runner crashed before writing a report")

	data, err := os.ReadFile(filepath.Join(dir, "test-summary.md"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[guests-test-results.md](guests-test-results.md)")
}

func TestSweep_PassesEnvAndCustomArgs(t *testing.T) {
	sup := testutil.NewFakeSupervisor(nil)
	orch := newTestOrchestrator(sup,
		WithArgs(func(r string) []string { return []string{"run", r, "--verbose"} }),
		WithEnv("UISMOKE_BASE_URL=http://app.test"),
		WithDir("/srv/app"),
	)

	_, err := orch.Sweep(context.Background(), []string{"login"})
	require.NoError(t, err)

	spec := sup.Spawned()[0]
	assert.Equal(t, []string{"run", "login", "--verbose"}, spec.Args)
	assert.Equal(t, []string{"UISMOKE_BASE_URL=http://app.test"}, spec.Env)
	assert.Equal(t, "/srv/app", spec.Dir)
}

func TestSweep_CancelledContextMarksRemainingRunners(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	sup := testutil.NewFakeSupervisor(map[string]testutil.FakeRun{
		"login": {OnSpawn: func(supervisor.Spec) { cancel() }},
	})
	orch := newTestOrchestrator(sup)

	sum, err := orch.Sweep(ctx, []string{"login", "users", "roles"})
	require.NoError(t, err)

	require.Equal(t, 3, sum.Total())
	assert.True(t, sum.Outcomes[0].Passed)
	assert.True(t, strings.HasPrefix(sum.Outcomes[1].FirstError, "not started: "))
	assert.False(t, sum.Outcomes[2].Passed)
	assert.Len(t, sup.Spawned(), 1)
}

func TestSweep_OnOutcomeInOrder(t *testing.T) {
	var seen []string
	sup := testutil.NewFakeSupervisor(map[string]testutil.FakeRun{"users": {Exit: supervisor.Exit{Code: 1}}})
	orch := newTestOrchestrator(sup, OnOutcome(func(o report.RunnerOutcome) {
		seen = append(seen, o.Runner+":"+o.Result())
	}))

	_, err := orch.Sweep(context.Background(), []string{"login", "users"})
	require.NoError(t, err)
	assert.Equal(t, []string{"login:Passed", "users:Failed"}, seen)
}

func TestSweep_WorkbookAndHistory(t *testing.T) {
	dir := t.TempDir()
	store, err := history.Open(filepath.Join(dir, "history.db"), history.WithIDs(testutil.SequentialIDs("sweep")))
	require.NoError(t, err)
	defer store.Close()

	sup := testutil.NewFakeSupervisor(map[string]testutil.FakeRun{"roles": {Exit: supervisor.Exit{Code: 1}}})
	orch := newTestOrchestrator(sup,
		WithSummaryPath(filepath.Join(dir, "test-summary.md")),
		WithWorkbook(filepath.Join(dir, "test-summary.xlsx")),
		WithRecorder(store),
	)

	_, err = orch.Sweep(context.Background(), []string{"login", "roles"})
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "test-summary.xlsx"))
	assert.NoError(t, err)

	sweeps, err := store.RecentSweeps(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, sweeps, 1)
	assert.Equal(t, 2, sweeps[0].Total)
	assert.Equal(t, 1, sweeps[0].Failed)
	assert.Equal(t, filepath.Join(dir, "test-summary.md"), sweeps[0].SummaryPath)
}

type failingRecorder struct{}

func (failingRecorder) RecordSweep(context.Context, *report.Summary, string) (string, error) {
	return "", errors.New("database is locked")
}

func TestSweep_HistoryFailureIsNotFatal(t *testing.T) {
	orch := newTestOrchestrator(testutil.NewFakeSupervisor(nil), WithRecorder(failingRecorder{}))

	sum, err := orch.Sweep(context.Background(), []string{"login"})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Passed())
}

func TestSweep_SummaryWriteFailureIsReturned(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	orch := newTestOrchestrator(testutil.NewFakeSupervisor(nil), WithSummaryPath(filepath.Join(blocker, "summary.md")))

	sum, err := orch.Sweep(context.Background(), []string{"login"})
	require.Error(t, err)
	require.NotNil(t, sum)
	assert.Equal(t, 1, sum.Total())
}
