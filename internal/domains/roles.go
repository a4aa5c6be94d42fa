package domains

import (
	"github.com/roach88/uismoke/internal/fixture"
	"github.com/roach88/uismoke/internal/harness"
)

// Roles covers the role list, role creation, editing and the permission
// toggles of the role form.
func Roles() *harness.Scenario {
	return &harness.Scenario{
		Name:        "roles",
		Feature:     "Roles",
		Description: "Role list, creation, editing and permission toggles",
		ReportFile:  "roles-test-results.md",
		FixtureFile: "roles.csv",
		Login:       loginStep(),
		List:        listStep("roles"),
		Create: createStep("roles",
			input("name", `input[name="roleName"]`),
			input("description"),
			input("permissions"),
		),
		Edit: editStep("roles", harness.FieldBinding{
			Field:     "description",
			Selectors: []string{`textarea[name="description"]`, `input[name="description"]`},
			Value:     "Edited by smoke test",
		}),
		Checks: []harness.Check{
			{
				Name: "Permission toggles",
				Path: "/roles/create",
				Selectors: []string{
					`input[type="checkbox"][name*="permission"]`,
					".permissions-list",
					`[data-testid="permissions"]`,
				},
				Mandatory: true,
			},
		},
	}
}

// RoleFixtures describes roles.csv. Permissions are comma-joined.
func RoleFixtures() fixture.Schema {
	return fixture.Schema{
		Name: "roles",
		Columns: []fixture.Column{
			{Name: "name", Aliases: []string{"role", "roleName", "title"}},
			{Name: "description", Aliases: []string{"desc"}},
			{Name: "permissions", Aliases: []string{"perms", "permission"}, Default: fixture.Literal("events.read")},
		},
		Samples: [][]string{
			{"Event Coordinator", "Manages events and guest lists", "events.read,events.write,guests.read,guests.write"},
			{"Viewer", "Read-only access", "events.read,guests.read"},
		},
	}
}
