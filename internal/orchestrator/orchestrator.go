// Package orchestrator runs scenario runners one after another as child
// processes and aggregates their outcomes into a combined summary.
//
// A sweep is best effort: a runner that fails, crashes or times out is
// recorded and the next runner starts. Runner N+1 is not spawned until
// runner N has exited or been killed.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/roach88/uismoke/internal/report"
	"github.com/roach88/uismoke/internal/supervisor"
)

// DefaultRunnerTimeout bounds one runner process.
const DefaultRunnerTimeout = 5 * time.Minute

// Recorder persists finished sweeps.
type Recorder interface {
	RecordSweep(ctx context.Context, s *report.Summary, summaryPath string) (string, error)
}

// Orchestrator sweeps runners through a supervisor.
type Orchestrator struct {
	sup        supervisor.Supervisor
	executable string

	args         func(runner string) []string
	env          []string
	dir          string
	reportPath   func(runner string) string
	summaryPath  string
	workbookPath string
	timeout      time.Duration
	now          func() time.Time
	logger       *slog.Logger
	recorder     Recorder
	onOutcome    func(report.RunnerOutcome)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithArgs sets the arguments passed to the executable for a runner.
// The default is "run <runner>".
func WithArgs(args func(runner string) []string) Option {
	return func(o *Orchestrator) { o.args = args }
}

// WithEnv appends "KEY=value" entries to every runner's environment.
func WithEnv(env ...string) Option {
	return func(o *Orchestrator) { o.env = append(o.env, env...) }
}

// WithDir sets the runners' working directory.
func WithDir(dir string) Option {
	return func(o *Orchestrator) { o.dir = dir }
}

// WithReportPath maps a runner to the report file it writes. Existing files
// are linked from the summary.
func WithReportPath(path func(runner string) string) Option {
	return func(o *Orchestrator) { o.reportPath = path }
}

// WithSummaryPath sets where the combined summary is written. Empty skips it.
func WithSummaryPath(path string) Option {
	return func(o *Orchestrator) { o.summaryPath = path }
}

// WithWorkbook also writes the summary as an .xlsx workbook at path.
func WithWorkbook(path string) Option {
	return func(o *Orchestrator) { o.workbookPath = path }
}

// WithTimeout bounds each runner process.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithRecorder stores each finished sweep.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// OnOutcome is called after each runner finishes, in sweep order.
func OnOutcome(fn func(report.RunnerOutcome)) Option {
	return func(o *Orchestrator) { o.onOutcome = fn }
}

// New creates an orchestrator that spawns executable once per runner.
func New(sup supervisor.Supervisor, executable string, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		sup:        sup,
		executable: executable,
		args:       func(runner string) []string { return []string{"run", runner} },
		timeout:    DefaultRunnerTimeout,
		now:        time.Now,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Sweep runs every runner in order and returns the combined summary. The
// error reports only failures to write the summary; runner failures are
// data in the summary. Cancelling ctx stops the sweep after the current
// runner, and runners not started are recorded as failed.
func (o *Orchestrator) Sweep(ctx context.Context, runners []string) (*report.Summary, error) {
	sum := &report.Summary{
		StartedAt: o.now(),
		Outcomes:  make([]report.RunnerOutcome, 0, len(runners)),
	}

	for _, name := range runners {
		var outcome report.RunnerOutcome
		if err := ctx.Err(); err != nil {
			outcome = report.RunnerOutcome{Runner: name, ExitCode: -1, FirstError: "not started: " + err.Error()}
		} else {
			outcome = o.runOne(ctx, name)
		}
		sum.Outcomes = append(sum.Outcomes, outcome)
		if o.onOutcome != nil {
			o.onOutcome(outcome)
		}
	}
	sum.FinishedAt = o.now()

	return sum, o.publish(ctx, sum)
}

func (o *Orchestrator) runOne(ctx context.Context, name string) report.RunnerOutcome {
	outcome := report.RunnerOutcome{Runner: name}
	logger := o.logger.With("runner", name)

	start := o.now()
	spec := supervisor.Spec{
		Name: name,
		Path: o.executable,
		Args: o.args(name),
		Env:  o.env,
		Dir:  o.dir,
	}

	logger.Info("runner starting")
	proc, err := o.sup.Spawn(ctx, spec)
	if err != nil {
		outcome.ExitCode = -1
		outcome.FirstError = err.Error()
		outcome.Duration = o.now().Sub(start)
		outcome.DurationMS = outcome.Duration.Milliseconds()
		logger.Error("runner failed to start", "error", err)
		return outcome
	}

	exit := proc.AwaitExit(o.timeout)
	out := proc.Output()

	outcome.Duration = o.now().Sub(start)
	outcome.DurationMS = outcome.Duration.Milliseconds()
	outcome.Passed = exit.Success()
	outcome.TimedOut = exit.TimedOut
	outcome.ExitCode = exit.Code
	outcome.Stdout = out.Stdout
	outcome.Stderr = out.Stderr
	if !outcome.Passed {
		outcome.FirstError = o.firstError(exit, out)
	}
	if o.reportPath != nil {
		if path := o.reportPath(name); path != "" {
			if _, err := os.Stat(path); err == nil {
				outcome.ReportPath = path
			}
		}
	}

	logger.Info("runner finished",
		"passed", outcome.Passed,
		"exit_code", outcome.ExitCode,
		"timed_out", outcome.TimedOut,
		"duration", outcome.Duration,
	)
	return outcome
}

func (o *Orchestrator) firstError(exit supervisor.Exit, out supervisor.Captured) string {
	if exit.TimedOut {
		return fmt.Sprintf("timed out after %s", o.timeout)
	}
	if line := report.FirstLine(out.Stderr); line != "" {
		return line
	}
	if exit.Err != nil {
		return exit.Err.Error()
	}
	return fmt.Sprintf("exit status %d", exit.Code)
}

// publish writes the summary, the workbook and the history row. History
// failures are logged; file failures are returned.
func (o *Orchestrator) publish(ctx context.Context, sum *report.Summary) error {
	var errs []error

	if o.summaryPath != "" {
		if err := report.WriteSummary(o.summaryPath, sum); err != nil {
			errs = append(errs, err)
		} else {
			o.logger.Info("summary written", "path", o.summaryPath)
		}
	}
	if o.workbookPath != "" {
		if err := report.WriteSummaryWorkbook(o.workbookPath, sum); err != nil {
			errs = append(errs, err)
		}
	}
	if o.recorder != nil {
		path := o.summaryPath
		if abs, err := filepath.Abs(path); err == nil && path != "" {
			path = abs
		}
		if id, err := o.recorder.RecordSweep(ctx, sum, path); err != nil {
			o.logger.Warn("sweep not recorded", "error", err)
		} else {
			o.logger.Debug("sweep recorded", "id", id)
		}
	}
	return errors.Join(errs...)
}
