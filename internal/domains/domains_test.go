package domains

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/uismoke/internal/fixture"
	"github.com/roach88/uismoke/internal/harness"
)

func TestRegistryOrder(t *testing.T) {
	assert.Equal(t, []string{"login", "users", "roles", "guests", "rsvp", "subevents"}, Names())
	assert.Len(t, All(), 6)
}

func TestLookup(t *testing.T) {
	d, ok := Lookup(" RSVP ")
	require.True(t, ok)
	assert.Equal(t, "rsvp", d.Name)

	_, ok = Lookup("events")
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	ds, err := Resolve([]string{"guests", "login"})
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.Equal(t, "guests", ds[0].Name)

	_, err = Resolve([]string{"users", "tickets"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown domain "tickets"`)
}

func TestEveryScenarioIsValid(t *testing.T) {
	for _, d := range All() {
		t.Run(d.Name, func(t *testing.T) {
			sc := d.Scenario()
			require.NoError(t, harness.Validate(sc))
			assert.Equal(t, d.Name, sc.Name)
			assert.Equal(t, d.Name+"-test-results.md", sc.ReportFile)
			assert.Equal(t, d.Name+".csv", sc.FixtureFile)
		})
	}
}

func TestScenariosAreIndependentCopies(t *testing.T) {
	a := Users()
	a.Login.UsernameSelectors[0] = "mutated"

	b := Users()
	assert.Equal(t, `input[name="username"]`, b.Login.UsernameSelectors[0])
}

func TestEveryFixtureIsSynthesizedAndLoaded(t *testing.T) {
	dir := t.TempDir()
	loader := fixture.NewLoader(slog.New(slog.NewTextHandler(io.Discard, nil)))

	for _, d := range All() {
		t.Run(d.Name, func(t *testing.T) {
			schema := d.Schema()
			path := filepath.Join(dir, d.Scenario().FixtureFile)

			records := loader.Load(path, schema)

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.NotEmpty(t, data)
			require.NotEmpty(t, records)
			for _, col := range schema.Columns {
				assert.Contains(t, records[0].Fields(), col.Name)
			}
		})
	}
}

func TestUserFixtures_CombinedNameColumn(t *testing.T) {
	rows := [][]string{
		{"user", "name", "Role"},
		{"ada", "Ada King Lovelace", ""},
	}

	records := fixture.Parse(rows, UserFixtures())

	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "ada", rec.Get("username"))
	assert.Equal(t, "Ada", rec.Get("firstName"))
	assert.Equal(t, "King Lovelace", rec.Get("lastName"))
	assert.Equal(t, "ada.king.lovelace@example.com", rec.Get("email"))
	assert.Equal(t, "staff", rec.Get("role"))
	assert.Len(t, rec.Get("password"), 12)
}

func TestGuestFixtures_Defaults(t *testing.T) {
	rows := [][]string{
		{"first_name", "last_name", "Phone Number"},
		{"Grace", "Hopper", ""},
	}

	records := fixture.Parse(rows, GuestFixtures())

	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "Grace Hopper", rec.Get("name"))
	assert.Equal(t, "grace.hopper@example.com", rec.Get("email"))
	assert.Equal(t, "555-0100", rec.Get("phone"))
	assert.Equal(t, "attending", rec.Get("status"))
	assert.Equal(t, "1", rec.Get("eventId"))
}

func TestRoleFixtures_PermissionsStayJoined(t *testing.T) {
	records := fixture.Parse([][]string{
		{"Role Name", "perms"},
		{"Auditor", "reports.read,events.read"},
	}, RoleFixtures())

	require.Len(t, records, 1)
	assert.Equal(t, "Auditor", records[0].Get("name"))
	assert.Equal(t, "reports.read,events.read", records[0].Get("permissions"))
}

func TestLoginFixtures_ExpectDefaultsToSuccess(t *testing.T) {
	records := fixture.Parse([][]string{
		{"email", "password"},
		{"admin", "Admin@123"},
	}, LoginFixtures())

	require.Len(t, records, 1)
	assert.Equal(t, "admin", records[0].Get("username"))
	assert.Equal(t, "success", records[0].Get("expect"))
}
