// Package supervisor spawns scenario runners as child processes, captures
// their output and bounds how long the caller waits for them.
package supervisor

import (
	"context"
	"time"
)

// Spec describes one runner process.
type Spec struct {
	// Name identifies the runner in logs and summaries.
	Name string

	// Path is the executable. Args follow it.
	Path string
	Args []string

	// Env entries ("KEY=value") are appended to the parent environment.
	Env []string

	// Dir is the working directory. Empty inherits the parent's.
	Dir string
}

// Exit is how a process ended.
type Exit struct {
	// Code is the exit status, or -1 when the process did not exit on its own.
	Code int

	// TimedOut is set when the process was killed at the deadline.
	TimedOut bool

	// Err is set when waiting failed for a reason other than a non-zero exit.
	Err error
}

// Success reports a clean zero exit.
func (e Exit) Success() bool {
	return e.Code == 0 && !e.TimedOut && e.Err == nil
}

// Captured is the full output of a process.
type Captured struct {
	Stdout string
	Stderr string
}

// Process is a spawned runner.
type Process interface {
	// AwaitExit blocks until the process exits or timeout elapses, in which
	// case the process is killed and Exit.TimedOut is set.
	AwaitExit(timeout time.Duration) Exit

	// Output returns everything captured so far. After AwaitExit returns it
	// is complete.
	Output() Captured
}

// Supervisor starts processes.
type Supervisor interface {
	Spawn(ctx context.Context, spec Spec) (Process, error)
}
