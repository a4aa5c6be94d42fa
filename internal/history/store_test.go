package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/uismoke/internal/report"
	"github.com/roach88/uismoke/internal/testutil"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"), WithIDs(testutil.SequentialIDs("sweep")))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func summaryAt(start time.Time, outcomes ...report.RunnerOutcome) *report.Summary {
	return &report.Summary{StartedAt: start, FinishedAt: start.Add(time.Minute), Outcomes: outcomes}
}

var base = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestOpen_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestOpen_SetsPragmasAndVersion(t *testing.T) {
	s := openTestStore(t)

	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "open %d", i)
		require.NoError(t, s.Close())
	}
}

func TestRecordSweep_RoundTripsOutcomesInOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	sum := summaryAt(base,
		report.RunnerOutcome{Runner: "login", Passed: true, Duration: 1500 * time.Millisecond, ReportPath: "test-results/login-test-results.md"},
		report.RunnerOutcome{Runner: "users", ExitCode: 1, Duration: 2 * time.Second, FirstError: "missing element: submit control"},
		report.RunnerOutcome{Runner: "roles", TimedOut: true, ExitCode: -1, Duration: 5 * time.Minute},
	)

	id, err := s.RecordSweep(ctx, sum, "test-results/test-summary.md")
	require.NoError(t, err)
	assert.Equal(t, "sweep-0001", id)

	outcomes, err := s.SweepOutcomes(ctx, id)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.Equal(t, "login", outcomes[0].Runner)
	assert.True(t, outcomes[0].Passed)
	assert.Equal(t, 1500*time.Millisecond, outcomes[0].Duration)
	assert.Equal(t, "test-results/login-test-results.md", outcomes[0].ReportPath)

	assert.Equal(t, "users", outcomes[1].Runner)
	assert.Equal(t, 1, outcomes[1].ExitCode)
	assert.Equal(t, "missing element: submit control", outcomes[1].FirstError)

	assert.True(t, outcomes[2].TimedOut)
	assert.Equal(t, -1, outcomes[2].ExitCode)
}

func TestRecentSweeps_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		sum := summaryAt(base.Add(time.Duration(i)*time.Hour),
			report.RunnerOutcome{Runner: "login", Passed: i != 1})
		_, err := s.RecordSweep(ctx, sum, "")
		require.NoError(t, err)
	}

	sweeps, err := s.RecentSweeps(ctx, 2)
	require.NoError(t, err)
	require.Len(t, sweeps, 2)

	assert.Equal(t, "sweep-0003", sweeps[0].ID)
	assert.Equal(t, base.Add(2*time.Hour), sweeps[0].StartedAt)
	assert.Equal(t, base.Add(2*time.Hour+time.Minute), sweeps[0].FinishedAt)
	assert.Equal(t, "sweep-0002", sweeps[1].ID)
	assert.Equal(t, 1, sweeps[1].Failed)
	assert.Equal(t, 0, sweeps[1].Passed)
}

func TestRecentSweeps_EmptyIsNotNil(t *testing.T) {
	s := openTestStore(t)

	sweeps, err := s.RecentSweeps(context.Background(), 0)
	require.NoError(t, err)
	assert.NotNil(t, sweeps)
	assert.Empty(t, sweeps)
}

func TestSweepOutcomes_UnknownSweep(t *testing.T) {
	s := openTestStore(t)

	outcomes, err := s.SweepOutcomes(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, outcomes)
}

func TestRunnerStreak(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	results := []bool{true, false, false}
	for i, passed := range results {
		sum := summaryAt(base.Add(time.Duration(i)*time.Hour),
			report.RunnerOutcome{Runner: "guests", Passed: passed},
			report.RunnerOutcome{Runner: "rsvp", Passed: true})
		_, err := s.RecordSweep(ctx, sum, "")
		require.NoError(t, err)
	}

	streak, err := s.RunnerStreak(ctx, "guests")
	require.NoError(t, err)
	assert.Equal(t, 2, streak)

	streak, err = s.RunnerStreak(ctx, "rsvp")
	require.NoError(t, err)
	assert.Equal(t, 0, streak)
}
