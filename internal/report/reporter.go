package report

import "time"

// Reporter accumulates the results of one runner in execution order.
//
// A Reporter is not shared between runners and is not safe for concurrent
// use; runners execute their steps strictly in sequence.
type Reporter struct {
	title   string
	now     func() time.Time
	results []TestResult
}

// NewReporter creates an empty reporter. If now is nil, time.Now is used.
func NewReporter(title string, now func() time.Time) *Reporter {
	if now == nil {
		now = time.Now
	}
	return &Reporter{
		title:   title,
		now:     now,
		results: []TestResult{},
	}
}

// Title returns the report title.
func (r *Reporter) Title() string {
	return r.title
}

// Record appends a result stamped with the reporter's clock and returns it.
func (r *Reporter) Record(feature, test string, status Status, message string) TestResult {
	res := TestResult{
		Feature: feature,
		Test:    test,
		Status:  status,
		Message: message,
		Time:    r.now(),
	}
	r.results = append(r.results, res)
	return res
}

// Results returns a copy of the recorded results in execution order.
func (r *Reporter) Results() []TestResult {
	out := make([]TestResult, len(r.results))
	copy(out, r.results)
	return out
}

// Counts tallies the recorded results.
func (r *Reporter) Counts() Counts {
	return CountResults(r.results)
}

// Len returns the number of recorded results.
func (r *Reporter) Len() int {
	return len(r.results)
}
