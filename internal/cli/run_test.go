package cli

import (
	"encoding/json"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_WritesReportAndStreamsProgress(t *testing.T) {
	ws := newWorkspace(t)
	scenario := ws.writeScenario(t, "guests.yaml", guestScenarioYAML)
	site := guestSite()

	out, _, err := execute(&RootOptions{Launcher: site},
		"run", "guests", "--config", ws.configPath, "--scenario", scenario, "--no-screenshots")
	require.NoError(t, err)

	assert.Contains(t, out, "✓ Guests / Login: Success - authenticated as admin, landed on http://app.test/dashboard")
	assert.Contains(t, out, "✓ Guests / Create Jane Doe: Success - redirected to http://app.test/guests/list (1 of 2 fields filled)")
	assert.Contains(t, out, "- Guests / Timeline: Skipped")
	assert.Contains(t, out, "4 success, 0 failed, 1 skipped, 0 error, 0 unknown")

	report, err := os.ReadFile(ws.path("test-results", "guests-test-results.md"))
	require.NoError(t, err)
	assert.Contains(t, string(report), "# Guests Test Results")
	_, err = os.Stat(ws.path("test-results", "guests-test-results.json"))
	assert.NoError(t, err)

	_, err = os.Stat(ws.path("test-data", "guests.csv"))
	assert.NoError(t, err, "missing fixture file is synthesized")

	opened, closed := site.PagesOpened()
	assert.Equal(t, opened, closed)
	assert.Equal(t, 1, site.Closes(), "browser released")
}

func TestRun_JSONOutput(t *testing.T) {
	ws := newWorkspace(t)
	scenario := ws.writeScenario(t, "guests.yaml", guestScenarioYAML)

	out, stderr, err := execute(&RootOptions{Launcher: guestSite()},
		"--format", "json", "run", "guests", "--config", ws.configPath, "--scenario", scenario, "--no-screenshots")
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), "stdout must be pure JSON: %s", out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "guests", resp.Data.Scenario)
	assert.Equal(t, "Finished", string(resp.Data.State))
	assert.Equal(t, 4, resp.Data.Counts.Success)
	assert.Len(t, resp.Data.Results, 5)
	assert.Contains(t, stderr, "✓ Guests / Login", "progress moves to stderr")
}

func TestRun_FailedChecksAreNotProcessErrors(t *testing.T) {
	ws := newWorkspace(t)
	scenario := ws.writeScenario(t, "guests.yaml", guestScenarioYAML)
	site := guestSite()
	site.Page("/guests/list").Remove("table tbody tr")

	out, _, err := execute(&RootOptions{Launcher: site},
		"run", "guests", "--config", ws.configPath, "--scenario", scenario, "--no-screenshots")
	require.NoError(t, err)
	assert.Contains(t, out, "✗ Guests / List view: Failed - missing element: list marker")
}

func TestRun_StrictExitsOneOnFailure(t *testing.T) {
	ws := newWorkspace(t)
	scenario := ws.writeScenario(t, "guests.yaml", guestScenarioYAML)
	site := guestSite()
	site.Page("/guests/list").Remove("table tbody tr")

	_, _, err := execute(&RootOptions{Launcher: site},
		"run", "guests", "--config", ws.configPath, "--scenario", scenario, "--no-screenshots", "--strict")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "guests: 1 failed")
}

func TestRun_BrowserLaunchFailureIsCommandError(t *testing.T) {
	ws := newWorkspace(t)
	scenario := ws.writeScenario(t, "guests.yaml", guestScenarioYAML)
	site := guestSite()
	site.LaunchErr = errors.New("chromium not found")

	out, _, err := execute(&RootOptions{Launcher: site},
		"run", "guests", "--config", ws.configPath, "--scenario", scenario, "--no-screenshots")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [E201]")

	report, readErr := os.ReadFile(ws.path("test-results", "guests-test-results.md"))
	require.NoError(t, readErr, "report written even when the browser never started")
	assert.Contains(t, string(report), "cannot launch browser")
}

func TestRun_UnknownDomain(t *testing.T) {
	ws := newWorkspace(t)

	out, _, err := execute(&RootOptions{Launcher: guestSite()}, "run", "tickets", "--config", ws.configPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, `unknown domain "tickets"`)
	assert.Contains(t, out, "login, users, roles, guests, rsvp, subevents")
}

func TestRun_InvalidScenarioFile(t *testing.T) {
	ws := newWorkspace(t)
	scenario := ws.writeScenario(t, "bad.yaml", "name: guests\nreport_file: x.md\nchekcs: []\n")

	_, _, err := execute(&RootOptions{Launcher: guestSite()},
		"run", "guests", "--config", ws.configPath, "--scenario", scenario)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeInvalidScenario)
}

func TestRun_BadConfig(t *testing.T) {
	ws := newWorkspace(t)
	require.NoError(t, os.WriteFile(ws.configPath, []byte("timeout: never\n"), 0644))

	_, _, err := execute(&RootOptions{Launcher: guestSite()}, "run", "guests", "--config", ws.configPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeConfig)
}
