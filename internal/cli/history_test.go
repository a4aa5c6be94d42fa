package cli

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/uismoke/internal/history"
	"github.com/roach88/uismoke/internal/report"
	"github.com/roach88/uismoke/internal/testutil"
)

func seedHistory(t *testing.T, ws *workspace) {
	t.Helper()
	store, err := history.Open(ws.path("history.db"), history.WithIDs(testutil.SequentialIDs("sweep")))
	require.NoError(t, err)
	defer store.Close()

	start := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		_, err := store.RecordSweep(context.Background(), &report.Summary{
			StartedAt:  start.Add(time.Duration(i) * time.Hour),
			FinishedAt: start.Add(time.Duration(i)*time.Hour + 90*time.Second),
			Outcomes: []report.RunnerOutcome{
				{Runner: "login", Passed: true, Duration: time.Second},
				{Runner: "guests", ExitCode: 1, FirstError: "missing element: list marker"},
			},
		}, "")
		require.NoError(t, err)
	}
}

func TestHistory_ListsNewestFirst(t *testing.T) {
	ws := newWorkspace(t)
	seedHistory(t, ws)

	out, _, err := execute(&RootOptions{}, "history", "--config", ws.configPath, "--limit", "2")
	require.NoError(t, err)

	assert.Contains(t, out, "sweep-0003")
	assert.Contains(t, out, "sweep-0002")
	assert.NotContains(t, out, "sweep-0001")
	assert.Contains(t, out, "1m30s")
}

func TestHistory_SweepDetail(t *testing.T) {
	ws := newWorkspace(t)
	seedHistory(t, ws)

	out, _, err := execute(&RootOptions{}, "--format", "json", "history", "--config", ws.configPath, "--sweep", "sweep-0001")
	require.NoError(t, err)

	var resp struct {
		Data []OutcomeRow `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "guests", resp.Data[1].Runner)
	assert.Equal(t, "missing element: list marker", resp.Data[1].FirstError)
	assert.Equal(t, 0, resp.Data[0].FailingStreak)
	assert.Equal(t, 3, resp.Data[1].FailingStreak)
}

func TestHistory_SweepDetailShowsFailingStreak(t *testing.T) {
	ws := newWorkspace(t)
	seedHistory(t, ws)

	out, _, err := execute(&RootOptions{}, "history", "--config", ws.configPath, "--sweep", "sweep-0003")
	require.NoError(t, err)

	assert.Contains(t, out, "Failing for")
	assert.Contains(t, out, "3 sweeps")
}

func TestStreakLabel(t *testing.T) {
	assert.Equal(t, "-", streakLabel(0))
	assert.Equal(t, "1 sweep", streakLabel(1))
	assert.Equal(t, "4 sweeps", streakLabel(4))
}

func TestHistory_UnknownSweep(t *testing.T) {
	ws := newWorkspace(t)

	_, _, err := execute(&RootOptions{}, "history", "--config", ws.configPath, "--sweep", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}

func TestHistory_Empty(t *testing.T) {
	ws := newWorkspace(t)

	out, _, err := execute(&RootOptions{}, "history", "--config", ws.configPath)
	require.NoError(t, err)
	assert.Contains(t, out, "No sweeps recorded yet.")
}
