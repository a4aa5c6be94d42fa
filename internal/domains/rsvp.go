package domains

import (
	"github.com/roach88/uismoke/internal/fixture"
	"github.com/roach88/uismoke/internal/harness"
)

// RSVP covers the response list, recording a response and the allocation
// and timeline views.
func RSVP() *harness.Scenario {
	return &harness.Scenario{
		Name:        "rsvp",
		Feature:     "RSVP",
		Description: "RSVP list, responses, allocation and timeline views",
		ReportFile:  "rsvp-test-results.md",
		FixtureFile: "rsvp.csv",
		Login:       loginStep(),
		List:        listStep("rsvp"),
		Create: createStep("rsvp",
			input("guestName", `input[name="name"]`),
			input("email", `input[type="email"]`),
			input("eventId", `select[name="event"]`),
			input("status", `select[name="response"]`),
			input("plusOnes", `input[name="plus_ones"]`),
		),
		Edit: editStep("rsvp", harness.FieldBinding{
			Field:     "plusOnes",
			Selectors: []string{`input[name="plusOnes"]`, `input[name="plus_ones"]`},
			Value:     "1",
		}),
		Checks: []harness.Check{
			{
				Name:      "Allocation view",
				Path:      "/rsvp/allocation",
				Selectors: []string{".allocation", `[data-testid="allocation"]`, "table.allocation"},
			},
			{
				Name:      "Timeline view",
				Path:      "/rsvp/timeline",
				Selectors: []string{".timeline", `[data-testid="timeline"]`},
			},
		},
	}
}

// RSVPFixtures describes rsvp.csv.
func RSVPFixtures() fixture.Schema {
	return fixture.Schema{
		Name: "rsvp",
		Columns: []fixture.Column{
			{Name: "guestName", Aliases: []string{"name", "guest", "fullName"}},
			{Name: "email", Aliases: []string{"mail", "e-mail"}, Default: fixture.EmailFrom("guestName")},
			{Name: "eventId", Aliases: []string{"event"}, Default: fixture.Literal("1")},
			{Name: "status", Aliases: []string{"response", "rsvp"}, Default: fixture.Literal("attending")},
			{Name: "plusOnes", Aliases: []string{"plus ones", "additional guests"}, Default: fixture.Literal("0")},
		},
		Samples: [][]string{
			{"Jane Doe", "jane.doe@example.com", "1", "attending", "1"},
			{"John Smith", "", "1", "declined", "0"},
		},
	}
}
