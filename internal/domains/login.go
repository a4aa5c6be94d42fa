package domains

import (
	"github.com/roach88/uismoke/internal/fixture"
	"github.com/roach88/uismoke/internal/harness"
)

// Login signs in with the configured account, then once per fixture
// account, and checks the shell exposes a logout control.
func Login() *harness.Scenario {
	return &harness.Scenario{
		Name:        "login",
		Feature:     "Login",
		Description: "Authentication, per-role accounts and logout control",
		ReportFile:  "login-test-results.md",
		FixtureFile: "login.csv",
		Login:       loginStep(),
		Accounts:    &harness.AccountsStep{Name: "Login accounts"},
		Checks: []harness.Check{
			{
				Name:      "Dashboard shell",
				Path:      "/dashboard",
				Selectors: shellSelectors,
				Mandatory: true,
			},
			{
				Name:      "Logout control",
				Selectors: []string{`a[href="/logout"]`, "button.logout", `[data-testid="logout"]`, ".user-menu .logout"},
				Mandatory: true,
			},
		},
	}
}

// LoginFixtures describes login.csv. The expect column marks accounts the
// application must reject.
func LoginFixtures() fixture.Schema {
	return fixture.Schema{
		Name: "login",
		Columns: []fixture.Column{
			{Name: "username", Aliases: []string{"user", "login", "email"}},
			{Name: "password", Aliases: []string{"pass", "pwd"}},
			{Name: "role", Default: fixture.Literal("admin")},
			{Name: "expect", Aliases: []string{"expected", "outcome"}, Default: fixture.Literal("success")},
		},
		Samples: [][]string{
			{"admin", "Admin@123", "admin", "success"},
			{"invalid.user", "wrong-password", "none", "failure"},
		},
	}
}
