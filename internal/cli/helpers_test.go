package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/roach88/uismoke/internal/testutil"
)

// workspace is a temp directory with a config pointing every output into it.
type workspace struct {
	dir        string
	configPath string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	for _, key := range []string{"UISMOKE_BASE_URL", "UISMOKE_HEADLESS", "UISMOKE_BROWSER_BIN", "PORT"} {
		t.Setenv(key, "")
	}

	dir := t.TempDir()
	cfg := `base_url: http://app.test
fixtures_dir: ` + filepath.Join(dir, "test-data") + `
reports_dir: ` + filepath.Join(dir, "test-results") + `
screenshots_dir: ` + filepath.Join(dir, "test-results", "screenshots") + `
history_db: ` + filepath.Join(dir, "history.db") + `
timeout: 100ms
runner_timeout: 1m
`
	path := filepath.Join(dir, "uismoke.yaml")
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))
	return &workspace{dir: dir, configPath: path}
}

func (w *workspace) path(parts ...string) string {
	return filepath.Join(append([]string{w.dir}, parts...)...)
}

func (w *workspace) writeScenario(t *testing.T, name, content string) string {
	t.Helper()
	path := w.path(name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// execute runs the root command with args and returns stdout and stderr.
func execute(opts *RootOptions, args ...string) (string, string, error) {
	cmd := NewRootCommandWith(opts)
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func subcommand(t *testing.T, root *cobra.Command, name string) *cobra.Command {
	t.Helper()
	sub, _, err := root.Find([]string{name})
	require.NoError(t, err)
	return sub
}

// guestSite is a minimal guest manager: login, dashboard, list and a
// create form that only has a name input.
func guestSite() *testutil.FakeSite {
	site := testutil.NewFakeSite()

	site.Page("/login").
		Add(`input[name="username"]`, &testutil.FakeElement{Name: "username"}).
		Add(`input[name="password"]`, &testutil.FakeElement{Name: "password"}).
		Add("button", &testutil.FakeElement{Text: "Login", Submits: true})
	site.Page("/login").Submit = func(values map[string]string) string {
		if values["username"] == "admin" && values["password"] == "Admin@123" {
			return "/dashboard"
		}
		return ""
	}
	site.Page("/dashboard").Add("nav", &testutil.FakeElement{Text: "Menu"})
	site.Page("/guests/list").Add("table tbody tr", &testutil.FakeElement{})
	site.Page("/guests/create").
		Add(`input[name="name"]`, &testutil.FakeElement{Name: "name"}).
		Add("button", &testutil.FakeElement{Text: "Save", Submits: true})
	site.Page("/guests/create").Submit = func(map[string]string) string { return "/guests/list" }
	return site
}

const guestScenarioYAML = `name: guests
feature: Guests
report_file: guests-test-results.md
fixture_file: guests.csv
login:
  path: /login
  username_selectors: ['input[name="username"]']
  password_selectors: ['input[name="password"]']
  submit: {text_contains: [Login]}
  shell_selectors: [nav]
list:
  path: /guests/list
  populated_selectors: [table tbody tr]
create:
  path: /guests/create
  fields:
    - {field: name, selectors: ['input[name="name"]']}
    - {field: email, selectors: ['input[name="email"]']}
  submit: {text_contains: [Save]}
  list_url_markers: [/guests/list]
  label_fields: [name]
checks:
  - {name: Timeline, selectors: [.timeline]}
`
