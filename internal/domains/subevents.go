package domains

import (
	"github.com/roach88/uismoke/internal/fixture"
	"github.com/roach88/uismoke/internal/harness"
)

// Subevents covers the sub-event list, creation and editing.
func Subevents() *harness.Scenario {
	return &harness.Scenario{
		Name:        "subevents",
		Feature:     "Subevents",
		Description: "Sub-event list, creation and editing",
		ReportFile:  "subevents-test-results.md",
		FixtureFile: "subevents.csv",
		Login:       loginStep(),
		List:        listStep("subevents"),
		Create: createStep("subevents",
			input("name", `input[name="title"]`),
			input("eventId", `select[name="event"]`, `select[name="parentEvent"]`),
			input("date", `input[type="date"]`, `input[type="datetime-local"]`),
			input("location", `input[name="venue"]`),
			input("description"),
		),
		Edit: editStep("subevents", harness.FieldBinding{
			Field:     "location",
			Selectors: []string{`input[name="location"]`, `input[name="venue"]`},
			Value:     "Garden Terrace",
		}),
	}
}

// SubeventFixtures describes subevents.csv.
func SubeventFixtures() fixture.Schema {
	return fixture.Schema{
		Name: "subevents",
		Columns: []fixture.Column{
			{Name: "name", Aliases: []string{"title", "subevent"}},
			{Name: "eventId", Aliases: []string{"event", "parent event"}, Default: fixture.Literal("1")},
			{Name: "date", Aliases: []string{"startDate", "when"}},
			{Name: "location", Aliases: []string{"venue", "place"}, Default: fixture.Literal("Main Hall")},
			{Name: "description", Aliases: []string{"desc", "details"}},
		},
		Samples: [][]string{
			{"Welcome Reception", "1", "2025-06-01", "Main Hall", "Drinks and introductions"},
			{"Gala Dinner", "1", "2025-06-02", "Ballroom", "Seated dinner"},
		},
	}
}
