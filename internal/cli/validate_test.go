package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidScenario(t *testing.T) {
	ws := newWorkspace(t)
	path := ws.writeScenario(t, "guests.yaml", guestScenarioYAML)

	out, _, err := execute(&RootOptions{}, "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ All scenarios valid")
}

func TestValidate_ReportsEveryBadFile(t *testing.T) {
	ws := newWorkspace(t)
	good := ws.writeScenario(t, "guests.yaml", guestScenarioYAML)
	typo := ws.writeScenario(t, "typo.yaml", "name: roles\nreport_file: r.md\nchekcs: []\n")
	noLogin := ws.writeScenario(t, "nologin.yaml", "name: roles\nreport_file: r.md\n")

	out, _, err := execute(&RootOptions{}, "--format", "json", "validate", good, typo, noLogin)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	assert.Equal(t, 3, resp.Data.Files)
	require.Len(t, resp.Data.Problems, 2)
	assert.Equal(t, typo, resp.Data.Problems[0].File)
	assert.Contains(t, resp.Data.Problems[0].Message, "chekcs")
	assert.Equal(t, "login.path", resp.Data.Problems[1].Field)
	assert.Equal(t, ErrCodeInvalidScenario, resp.Error.Code)
}

func TestValidate_MissingFile(t *testing.T) {
	out, _, err := execute(&RootOptions{}, "validate", "/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, out, "failed to read scenario file")
}
