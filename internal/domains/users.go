package domains

import (
	"github.com/roach88/uismoke/internal/fixture"
	"github.com/roach88/uismoke/internal/harness"
)

// Users covers the user list, user creation and editing a non-admin user.
func Users() *harness.Scenario {
	return &harness.Scenario{
		Name:        "users",
		Feature:     "Users",
		Description: "User list, creation and editing",
		ReportFile:  "users-test-results.md",
		FixtureFile: "users.csv",
		Login:       loginStep(),
		List:        listStep("users"),
		Create: createStep("users",
			input("username"),
			input("password", `input[type="password"]`),
			input("email", `input[type="email"]`),
			input("firstName", `input[name="first_name"]`),
			input("lastName", `input[name="last_name"]`),
			input("role", `select[name="roleId"]`),
		),
		Edit: editStep("users", harness.FieldBinding{
			Field:     "lastName",
			Selectors: []string{`input[name="lastName"]`, `input[name="last_name"]`},
			Value:     "Edited",
		}),
	}
}

// UserFixtures describes users.csv. A combined "name" column fills first
// and last name; blank emails and passwords are generated.
func UserFixtures() fixture.Schema {
	return fixture.Schema{
		Name: "users",
		Columns: []fixture.Column{
			{Name: "username", Aliases: []string{"user", "login"}},
			{Name: "password", Aliases: []string{"pass"}, Default: fixture.Generated(samplePassword)},
			{Name: "email", Aliases: []string{"mail", "e-mail"}, Default: fixture.EmailFrom("name", "username")},
			{Name: "firstName", Aliases: []string{"first", "given name"}, Default: fixture.NamePart("name", 0)},
			{Name: "lastName", Aliases: []string{"last", "surname", "family name"}, Default: fixture.NamePart("name", 1)},
			{Name: "role", Default: fixture.Literal("staff")},
		},
		Samples: [][]string{
			{"jane.doe", samplePassword(), "jane.doe@example.com", "Jane", "Doe", "staff"},
			{"john.smith", samplePassword(), "john.smith@example.com", "John", "Smith", "manager"},
		},
	}
}
