// Package domains defines the built-in scenario runners: login, users,
// roles, guests, rsvp and subevents. Each supplies a scenario and the
// schema of its fixture file.
package domains

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/uismoke/internal/fixture"
	"github.com/roach88/uismoke/internal/harness"
)

// Domain is one scenario runner.
type Domain struct {
	Name     string
	Scenario func() *harness.Scenario
	Schema   func() fixture.Schema
}

var registry = []Domain{
	{Name: "login", Scenario: Login, Schema: LoginFixtures},
	{Name: "users", Scenario: Users, Schema: UserFixtures},
	{Name: "roles", Scenario: Roles, Schema: RoleFixtures},
	{Name: "guests", Scenario: Guests, Schema: GuestFixtures},
	{Name: "rsvp", Scenario: RSVP, Schema: RSVPFixtures},
	{Name: "subevents", Scenario: Subevents, Schema: SubeventFixtures},
}

// All returns every domain in the default sweep order.
func All() []Domain {
	return append([]Domain(nil), registry...)
}

// Names returns the domain names in sweep order.
func Names() []string {
	names := make([]string, len(registry))
	for i, d := range registry {
		names[i] = d.Name
	}
	return names
}

// Lookup finds a domain by name, case-insensitively.
func Lookup(name string) (Domain, bool) {
	for _, d := range registry {
		if strings.EqualFold(d.Name, strings.TrimSpace(name)) {
			return d, true
		}
	}
	return Domain{}, false
}

// Resolve maps names to domains, failing on the first unknown one.
func Resolve(names []string) ([]Domain, error) {
	out := make([]Domain, 0, len(names))
	for _, n := range names {
		d, ok := Lookup(n)
		if !ok {
			known := Names()
			sort.Strings(known)
			return nil, fmt.Errorf("unknown domain %q (known: %s)", n, strings.Join(known, ", "))
		}
		out = append(out, d)
	}
	return out, nil
}
