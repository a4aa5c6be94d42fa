package cli

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixtures_CreatesMissingFiles(t *testing.T) {
	ws := newWorkspace(t)

	out, _, err := execute(&RootOptions{}, "fixtures", "--config", ws.configPath)
	require.NoError(t, err)

	for _, name := range []string{"login", "users", "roles", "guests", "rsvp", "subevents"} {
		_, err := os.Stat(ws.path("test-data", name+".csv"))
		assert.NoError(t, err, name)
	}
	assert.Contains(t, out, "created")
}

func TestFixtures_KeepsExistingUnlessForced(t *testing.T) {
	ws := newWorkspace(t)
	require.NoError(t, os.MkdirAll(ws.path("test-data"), 0755))
	custom := "name,email\nAda Lovelace,ada@example.com\n"
	require.NoError(t, os.WriteFile(ws.path("test-data", "guests.csv"), []byte(custom), 0644))

	out, _, err := execute(&RootOptions{}, "--format", "json", "fixtures", "guests", "--config", ws.configPath)
	require.NoError(t, err)

	var resp struct {
		Data []FixtureFile `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "exists", resp.Data[0].Action)
	assert.Equal(t, 1, resp.Data[0].Records)

	data, err := os.ReadFile(ws.path("test-data", "guests.csv"))
	require.NoError(t, err)
	assert.Equal(t, custom, string(data))

	_, _, err = execute(&RootOptions{}, "fixtures", "guests", "--force", "--config", ws.configPath)
	require.NoError(t, err)
	data, err = os.ReadFile(ws.path("test-data", "guests.csv"))
	require.NoError(t, err)
	assert.NotEqual(t, custom, string(data))
}

func TestFixtures_UnknownDomain(t *testing.T) {
	ws := newWorkspace(t)

	_, _, err := execute(&RootOptions{}, "fixtures", "tickets", "--config", ws.configPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
