// Package harness runs one scripted browser scenario against a live
// application and records a result per step.
//
// # Scenario Format
//
// Scenarios are built in code (see internal/domains) or loaded from YAML:
//
//	name: guests
//	feature: Guests
//	report_file: guests-test-results.md
//	fixture_file: guests.csv
//	login:
//	  path: /login
//	  username_selectors: ['input[name="username"]', 'input[name="email"]']
//	  password_selectors: ['input[name="password"]']
//	  submit: { text_contains: [Login, Sign in] }
//	  shell_selectors: [nav, .sidebar]
//	list:
//	  path: /guests/list
//	  populated_selectors: [table tbody tr]
//	  empty_selectors: [.empty-state]
//	create:
//	  path: /guests/create
//	  fields:
//	    - { field: name, selectors: ['input[name="name"]'] }
//	  submit: { text_contains: [Save, Create] }
//	  list_url_markers: [/guests/list]
//	checks:
//	  - { name: Bulk upload, path: /guests/upload, selectors: ['input[type="file"]'] }
//
// # Step Semantics
//
// Steps run in order: login, accounts, list, create, edit, checks. Login is
// a hard prerequisite; when it fails a single Error result is recorded and
// the run ends. Every other step records its own result and never stops the
// steps after it:
//
//   - list: Success when the populated or the empty marker shows up.
//   - create: Skipped without fixtures; inputs that do not exist are skipped;
//     a list-like URL or success marker is Success, an error marker is
//     Failed with its text, neither is Unknown.
//   - edit: Skipped when the list has no links; leaving the edit form or a
//     success marker is Success.
//   - checks: Failed when a mandatory feature is absent, Skipped when an
//     optional one is.
//
// Waits poll with exponential backoff up to Options.Timeout.
package harness
