package domains

import (
	"github.com/roach88/uismoke/internal/fixture"
	"github.com/roach88/uismoke/internal/harness"
)

// Guests covers the guest list, guest creation, editing and the bulk
// upload form.
func Guests() *harness.Scenario {
	return &harness.Scenario{
		Name:        "guests",
		Feature:     "Guests",
		Description: "Guest list, creation, editing and bulk upload",
		ReportFile:  "guests-test-results.md",
		FixtureFile: "guests.csv",
		Login:       loginStep(),
		List:        listStep("guests"),
		Create: createStep("guests",
			input("name", `input[name="fullName"]`),
			input("firstName", `input[name="first_name"]`),
			input("lastName", `input[name="last_name"]`),
			input("email", `input[type="email"]`),
			input("phone", `input[type="tel"]`),
			input("eventId", `select[name="event"]`),
			input("status"),
		),
		Edit: editStep("guests", harness.FieldBinding{
			Field:     "phone",
			Selectors: []string{`input[name="phone"]`, `input[type="tel"]`},
			Value:     "555-0199",
		}),
		Checks: []harness.Check{
			{
				Name:      "Bulk upload",
				Path:      "/guests/upload",
				Selectors: []string{`input[type="file"]`, "form.bulk-upload", `[data-testid="bulk-upload"]`},
			},
		},
	}
}

// GuestFixtures describes guests.csv.
func GuestFixtures() fixture.Schema {
	return fixture.Schema{
		Name: "guests",
		Columns: []fixture.Column{
			{Name: "name", Aliases: []string{"fullName", "guest", "guestName"}, Default: fixture.Join("firstName", "lastName")},
			{Name: "firstName", Aliases: []string{"first", "given name"}, Default: fixture.NamePart("name", 0)},
			{Name: "lastName", Aliases: []string{"last", "surname"}, Default: fixture.NamePart("name", 1)},
			{Name: "email", Aliases: []string{"mail", "e-mail"}, Default: fixture.EmailFrom("name")},
			{Name: "phone", Aliases: []string{"phone number", "mobile", "tel"}, Default: fixture.Literal("555-0100")},
			{Name: "eventId", Aliases: []string{"event"}, Default: fixture.Literal("1")},
			{Name: "status", Aliases: []string{"rsvp"}, Default: fixture.Literal("attending")},
		},
		Samples: [][]string{
			{"Jane Doe", "Jane", "Doe", "jane.doe@example.com", "555-0101", "1", "attending"},
			{"John Smith", "", "", "", "", "1", "pending"},
		},
	}
}
