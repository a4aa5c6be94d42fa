// Package report accumulates step results for a scenario runner and renders
// them as run reports and combined sweep summaries.
//
// A Reporter is owned by exactly one runner. Results are kept in execution
// order and never mutated once recorded. Rendering is deterministic for a
// given result sequence: the same results always produce the same bytes.
//
// # Files
//
// Each runner writes one markdown report (plus a JSON companion with the same
// base name) to a fixed, domain-specific path. The orchestrator writes one
// combined summary. All files are regenerated wholesale on every run.
package report
