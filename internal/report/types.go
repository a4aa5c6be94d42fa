package report

import (
	"fmt"
	"time"
)

// Status is the outcome of a single test step.
type Status string

// Status values, in the order they appear in report summaries.
const (
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed"
	StatusSkipped Status = "Skipped"
	StatusError   Status = "Error"
	StatusUnknown Status = "Unknown"
)

// Statuses lists every status in summary order.
var Statuses = []Status{StatusSuccess, StatusFailed, StatusSkipped, StatusError, StatusUnknown}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// TestResult is the recorded outcome of one step of one runner.
type TestResult struct {
	// Feature is the functional area (e.g. "Users").
	Feature string `json:"feature"`

	// Test names the step (e.g. "Create user").
	Test string `json:"test"`

	Status  Status    `json:"status"`
	Message string    `json:"message"`
	Time    time.Time `json:"timestamp"`
}

// Counts holds the number of results per status.
type Counts struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Error   int `json:"error"`
	Unknown int `json:"unknown"`
}

// Add increments the counter for s.
func (c *Counts) Add(s Status) {
	switch s {
	case StatusSuccess:
		c.Success++
	case StatusFailed:
		c.Failed++
	case StatusSkipped:
		c.Skipped++
	case StatusError:
		c.Error++
	default:
		c.Unknown++
	}
}

// Of returns the counter for s.
func (c Counts) Of(s Status) int {
	switch s {
	case StatusSuccess:
		return c.Success
	case StatusFailed:
		return c.Failed
	case StatusSkipped:
		return c.Skipped
	case StatusError:
		return c.Error
	default:
		return c.Unknown
	}
}

// Total returns the number of counted results.
func (c Counts) Total() int {
	return c.Success + c.Failed + c.Skipped + c.Error + c.Unknown
}

// String renders the counts as "3 success, 1 failed, ...".
func (c Counts) String() string {
	return fmt.Sprintf("%d success, %d failed, %d skipped, %d error, %d unknown",
		c.Success, c.Failed, c.Skipped, c.Error, c.Unknown)
}

// CountResults tallies a result sequence.
func CountResults(results []TestResult) Counts {
	var c Counts
	for _, r := range results {
		c.Add(r.Status)
	}
	return c
}
