package harness

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/uismoke/internal/browser"
)

// Scenario describes one domain runner: how to log in, which list to check,
// how to create and edit a record, and which extra features must exist.
// Every step except Login is optional.
type Scenario struct {
	// Name identifies the runner ("users"). It keys screenshot directories.
	Name string `yaml:"name"`

	// Feature labels the results in the report ("Users"). Defaults to Name.
	Feature string `yaml:"feature,omitempty"`

	// Description explains what this scenario covers.
	Description string `yaml:"description"`

	// ReportFile is the per-runner report name ("users-test-results.md").
	ReportFile string `yaml:"report_file"`

	// FixtureFile is the fixture file name inside the fixtures directory.
	FixtureFile string `yaml:"fixture_file,omitempty"`

	Login    LoginStep     `yaml:"login"`
	Accounts *AccountsStep `yaml:"accounts,omitempty"`
	List     *ListStep     `yaml:"list,omitempty"`
	Create   *CreateStep   `yaml:"create,omitempty"`
	Edit     *EditStep     `yaml:"edit,omitempty"`
	Checks   []Check       `yaml:"checks,omitempty"`
}

// LoginStep locates the login form. Username and password selectors list
// the input-name conventions the application may use, in preference order.
type LoginStep struct {
	Path              string         `yaml:"path"`
	UsernameSelectors []string       `yaml:"username_selectors"`
	PasswordSelectors []string       `yaml:"password_selectors"`
	Submit            browser.Intent `yaml:"submit"`

	// ShellSelectors mark the authenticated application shell. Leaving the
	// login path or finding any of them counts as signed in.
	ShellSelectors []string `yaml:"shell_selectors,omitempty"`

	// ErrorSelectors locate the rejection message on a failed login.
	ErrorSelectors []string `yaml:"error_selectors,omitempty"`
}

// AccountsStep signs in once per fixture record, each in a fresh page.
// Records carry username, password, an optional role and an optional
// expect column ("success" or "failure").
type AccountsStep struct {
	Name string `yaml:"name,omitempty"`
}

// ListStep checks a list page shows either rows or an empty-state marker.
type ListStep struct {
	Name               string   `yaml:"name,omitempty"`
	Path               string   `yaml:"path"`
	PopulatedSelectors []string `yaml:"populated_selectors"`
	EmptySelectors     []string `yaml:"empty_selectors,omitempty"`
}

// FieldBinding maps a fixture field onto a form input.
type FieldBinding struct {
	Field     string   `yaml:"field"`
	Selectors []string `yaml:"selectors"`

	// Value replaces the fixture value when set.
	Value string `yaml:"value,omitempty"`
}

// CreateStep submits the creation form once per fixture record.
type CreateStep struct {
	Name             string         `yaml:"name,omitempty"`
	Path             string         `yaml:"path"`
	Fields           []FieldBinding `yaml:"fields"`
	Submit           browser.Intent `yaml:"submit"`
	SuccessSelectors []string       `yaml:"success_selectors,omitempty"`
	ErrorSelectors   []string       `yaml:"error_selectors,omitempty"`

	// ListURLMarkers are path fragments of the pages the application
	// returns to after a successful create.
	ListURLMarkers []string `yaml:"list_url_markers,omitempty"`

	// Records caps how many fixture records are submitted. Zero means all.
	Records int `yaml:"records,omitempty"`

	// LabelFields choose the fixture fields that name each create result.
	LabelFields []string `yaml:"label_fields,omitempty"`
}

// EditStep opens a record from the list, changes one field and saves.
type EditStep struct {
	Name          string   `yaml:"name,omitempty"`
	ListPath      string   `yaml:"list_path"`
	LinkSelectors []string `yaml:"link_selectors"`

	// SkipFirst picks the second link when there is one, to leave the
	// default record (often the admin) alone.
	SkipFirst bool `yaml:"skip_first,omitempty"`

	// EditLinkSelectors lead from a detail page to its edit form.
	EditLinkSelectors []string `yaml:"edit_link_selectors,omitempty"`

	Mutate           *FieldBinding  `yaml:"mutate,omitempty"`
	Submit           browser.Intent `yaml:"submit"`
	SuccessSelectors []string       `yaml:"success_selectors,omitempty"`
	ErrorSelectors   []string       `yaml:"error_selectors,omitempty"`

	// EditURLMarker is the path fragment of the edit form. Defaults to "/edit".
	EditURLMarker string `yaml:"edit_url_marker,omitempty"`
}

// Check is an existence probe for a domain feature.
type Check struct {
	Name      string   `yaml:"name"`
	Path      string   `yaml:"path,omitempty"`
	Selectors []string `yaml:"selectors"`

	// Mandatory checks fail when absent; optional ones are skipped.
	Mandatory bool `yaml:"mandatory,omitempty"`
}

// DefaultEditURLMarker is used when EditStep.EditURLMarker is empty.
const DefaultEditURLMarker = "/edit"

// ValidationError reports an invalid scenario.
type ValidationError struct {
	Scenario string
	Field    string
	Problem  string
}

func (e *ValidationError) Error() string {
	if e.Scenario == "" {
		return fmt.Sprintf("%s %s", e.Field, e.Problem)
	}
	return fmt.Sprintf("scenario %q: %s %s", e.Scenario, e.Field, e.Problem)
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML with strict field checking.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := Validate(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// Validate checks required fields and fills defaults in place.
func Validate(s *Scenario) error {
	invalid := func(field, problem string) error {
		return &ValidationError{Scenario: s.Name, Field: field, Problem: problem}
	}

	if strings.TrimSpace(s.Name) == "" {
		return invalid("name", "is required")
	}
	if s.ReportFile == "" {
		return invalid("report_file", "is required")
	}
	if s.Login.Path == "" {
		return invalid("login.path", "is required")
	}
	if len(s.Login.UsernameSelectors) == 0 {
		return invalid("login.username_selectors", "must be non-empty")
	}
	if len(s.Login.PasswordSelectors) == 0 {
		return invalid("login.password_selectors", "must be non-empty")
	}
	if s.Login.Submit.Empty() {
		return invalid("login.submit", "must name a selector or text")
	}

	if s.List != nil {
		if s.List.Path == "" {
			return invalid("list.path", "is required")
		}
		if len(s.List.PopulatedSelectors)+len(s.List.EmptySelectors) == 0 {
			return invalid("list", "needs populated or empty selectors")
		}
	}

	if s.Create != nil {
		if s.Create.Path == "" {
			return invalid("create.path", "is required")
		}
		if s.Create.Submit.Empty() {
			return invalid("create.submit", "must name a selector or text")
		}
		if s.Create.Records < 0 {
			return invalid("create.records", "must not be negative")
		}
		for i, f := range s.Create.Fields {
			if f.Field == "" || len(f.Selectors) == 0 {
				return invalid(fmt.Sprintf("create.fields[%d]", i), "needs field and selectors")
			}
		}
	}

	if s.Edit != nil {
		if s.Edit.ListPath == "" {
			return invalid("edit.list_path", "is required")
		}
		if len(s.Edit.LinkSelectors) == 0 {
			return invalid("edit.link_selectors", "must be non-empty")
		}
		if s.Edit.Submit.Empty() {
			return invalid("edit.submit", "must name a selector or text")
		}
		if s.Edit.EditURLMarker == "" {
			s.Edit.EditURLMarker = DefaultEditURLMarker
		}
	}

	for i, c := range s.Checks {
		if c.Name == "" {
			return invalid(fmt.Sprintf("checks[%d].name", i), "is required")
		}
		if len(c.Selectors) == 0 {
			return invalid(fmt.Sprintf("checks[%d].selectors", i), "must be non-empty")
		}
	}

	if s.Feature == "" {
		s.Feature = s.Name
	}
	return nil
}

// Steps names the steps a run performs, in order. Create and accounts steps
// expand to one result per fixture record at run time.
func (s *Scenario) Steps() []string {
	steps := []string{"Login"}
	if s.Accounts != nil {
		steps = append(steps, stepName(s.Accounts.Name, "Login accounts"))
	}
	if s.List != nil {
		steps = append(steps, stepName(s.List.Name, "List view"))
	}
	if s.Create != nil {
		steps = append(steps, stepName(s.Create.Name, "Create"))
	}
	if s.Edit != nil {
		steps = append(steps, stepName(s.Edit.Name, "Edit"))
	}
	for _, c := range s.Checks {
		steps = append(steps, c.Name)
	}
	return steps
}
