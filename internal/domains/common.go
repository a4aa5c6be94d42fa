package domains

import (
	"github.com/sethvargo/go-password/password"

	"github.com/roach88/uismoke/internal/browser"
	"github.com/roach88/uismoke/internal/harness"
)

var (
	shellSelectors = []string{"nav", ".sidebar", `[data-testid="app-shell"]`, "header .user-menu"}
	rowSelectors   = []string{"table tbody tr", ".list-group-item", `[data-testid="list-row"]`}
	emptySelectors = []string{".empty-state", `[data-testid="empty"]`, ".no-data"}
	errorSelectors = []string{".alert-danger", ".error", ".invalid-feedback", `[role="alert"]`}
	toastSelectors = []string{".alert-success", ".toast-success", `[data-testid="success"]`}

	saveIntent = browser.Intent{
		TextContains: []string{"Save", "Create", "Add", "Submit"},
		Selectors:    []string{`button[type="submit"]`, `input[type="submit"]`},
	}
	updateIntent = browser.Intent{
		TextContains: []string{"Save", "Update"},
		Selectors:    []string{`button[type="submit"]`, `input[type="submit"]`},
	}
)

// loginStep accepts both input-name conventions the application has used.
func loginStep() harness.LoginStep {
	return harness.LoginStep{
		Path:              "/login",
		UsernameSelectors: []string{`input[name="username"]`, `input[name="email"]`, "#username"},
		PasswordSelectors: []string{`input[name="password"]`, `input[type="password"]`},
		Submit: browser.Intent{
			TextContains: []string{"Login", "Log in", "Sign in"},
			Selectors:    []string{`button[type="submit"]`},
		},
		ShellSelectors: shellSelectors,
		ErrorSelectors: errorSelectors,
	}
}

// listStep checks /<domain>/list.
func listStep(domain string) *harness.ListStep {
	return &harness.ListStep{
		Path:               "/" + domain + "/list",
		PopulatedSelectors: rowSelectors,
		EmptySelectors:     emptySelectors,
	}
}

// input binds a fixture field to inputs named after it.
func input(field string, extra ...string) harness.FieldBinding {
	selectors := []string{
		`input[name="` + field + `"]`,
		`textarea[name="` + field + `"]`,
		`select[name="` + field + `"]`,
		"#" + field,
	}
	return harness.FieldBinding{Field: field, Selectors: append(selectors, extra...)}
}

// createStep submits /<domain>/create and expects to land on the list.
func createStep(domain string, fields ...harness.FieldBinding) *harness.CreateStep {
	return &harness.CreateStep{
		Path:             "/" + domain + "/create",
		Fields:           fields,
		Submit:           saveIntent,
		SuccessSelectors: toastSelectors,
		ErrorSelectors:   errorSelectors,
		ListURLMarkers:   []string{"/" + domain + "/list"},
	}
}

// editStep opens a record from /<domain>/list and saves a change.
func editStep(domain string, mutate harness.FieldBinding) *harness.EditStep {
	return &harness.EditStep{
		ListPath: "/" + domain + "/list",
		LinkSelectors: []string{
			`table tbody tr a[href^="/` + domain + `/"]`,
			`a[href^="/` + domain + `/"]:not([href$="/create"]):not([href$="/list"])`,
		},
		SkipFirst:         true,
		EditLinkSelectors: []string{`a[href$="/edit"]`, `[data-testid="edit"]`},
		Mutate:            &mutate,
		Submit:            updateIntent,
		SuccessSelectors:  toastSelectors,
		ErrorSelectors:    errorSelectors,
		EditURLMarker:     harness.DefaultEditURLMarker,
	}
}

// samplePassword generates a password that satisfies common strength rules.
func samplePassword() string {
	return password.MustGenerate(12, 2, 1, false, false)
}
