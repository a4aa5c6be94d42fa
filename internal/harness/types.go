package harness

import (
	"errors"
	"fmt"

	"github.com/roach88/uismoke/internal/report"
)

// State is a runner lifecycle state.
type State string

// Runner states, in the order a run passes through them. A run that fails
// to sign in goes from Authenticating to AuthFailed and then Finished.
const (
	// NotStarted is the state of a run that has not begun.
	NotStarted State = "NotStarted"
	// Authenticating covers launching the browser and signing in.
	Authenticating State = "Authenticating"
	// Authenticated means sign-in succeeded. The domain steps run here.
	Authenticated State = "Authenticated"
	// AuthFailed means the browser, the login form or the credentials failed.
	AuthFailed State = "AuthFailed"
	// Finished is terminal. The session has been released.
	Finished State = "Finished"
)

// Credentials sign the runner in.
type Credentials struct {
	Username string
	Password string
}

// Outcome is the result of one scenario run.
type Outcome struct {
	// Scenario is the scenario name.
	Scenario string

	// Reporter holds the results in execution order.
	Reporter *report.Reporter

	// States lists every state the runner passed through, in order.
	States []State

	// Screenshots lists the captured screenshot files.
	Screenshots []string
}

// State returns the current state.
func (o *Outcome) State() State {
	if len(o.States) == 0 {
		return NotStarted
	}
	return o.States[len(o.States)-1]
}

// Counts tallies the results.
func (o *Outcome) Counts() report.Counts {
	return o.Reporter.Counts()
}

// ErrAuthRejected is returned when the application keeps the browser on the
// login page after the form was submitted.
var ErrAuthRejected = errors.New("authentication rejected")

func isRejection(err error) bool {
	return errors.Is(err, ErrAuthRejected)
}

// MissingElementError is a step failure caused by an absent element.
type MissingElementError struct {
	// What names the element ("submit control", "username input").
	What string

	// Tried describes the selectors or intent that found nothing.
	Tried string
}

func (e *MissingElementError) Error() string {
	return fmt.Sprintf("missing element: %s (%s)", e.What, e.Tried)
}

func missing(what string, selectors []string) error {
	return &MissingElementError{What: what, Tried: fmt.Sprintf("none of %q found", selectors)}
}
