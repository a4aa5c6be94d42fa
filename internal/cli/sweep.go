package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/uismoke/internal/domains"
	"github.com/roach88/uismoke/internal/history"
	"github.com/roach88/uismoke/internal/orchestrator"
	"github.com/roach88/uismoke/internal/report"
	"github.com/roach88/uismoke/internal/supervisor"
)

// SweepOptions holds flags for the sweep command.
type SweepOptions struct {
	*RootOptions
	Workbook  string
	Timeout   time.Duration
	Strict    bool
	NoHistory bool
}

// SweepResult is the JSON payload of sweep.
type SweepResult struct {
	SummaryPath string          `json:"summary_path"`
	SweepID     string          `json:"sweep_id,omitempty"`
	Total       int             `json:"total"`
	Passed      int             `json:"passed"`
	Failed      int             `json:"failed"`
	Summary     *report.Summary `json:"summary"`
}

// NewSweepCommand creates the sweep command.
func NewSweepCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SweepOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sweep [domain...]",
		Short: "Run every domain as a separate process and summarize",
		Long: `Run each domain scenario as its own "uismoke run" child process, strictly
one after another. A runner that fails, crashes or exceeds the runner timeout
is recorded and the sweep moves on. The combined summary is written once all
runners are done.

With no arguments the configured runner order is used.

Exit codes:
  0 - every runner passed
  1 - one or more runners failed
  2 - command error (bad config, summary not written)

Examples:
  uismoke sweep
  uismoke sweep guests rsvp --timeout 2m
  uismoke sweep --xlsx test-results/summary.xlsx --strict`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Workbook, "xlsx", "", "also write the summary as an Excel workbook")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "per-runner timeout (default from config, 5m)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "pass --strict to every runner")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "do not record the sweep in the history database")

	return cmd
}

func runSweep(opts *SweepOptions, args []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	cfg, err := opts.loadConfig(f)
	if err != nil {
		return err
	}
	logger := f.Logger()

	names := args
	if len(names) == 0 {
		names = cfg.Runners
	}
	resolved, err := domains.Resolve(names)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeUnknownDomain, "cannot sweep", err)
	}
	reportFiles := make(map[string]string, len(resolved))
	runners := make([]string, 0, len(resolved))
	for _, d := range resolved {
		reportFiles[d.Name] = cfg.ReportPath(d.Scenario().ReportFile)
		runners = append(runners, d.Name)
	}

	executable := opts.Executable
	if executable == "" {
		if executable, err = os.Executable(); err != nil {
			return f.Fail(ExitCommandError, ErrCodeGeneric, "cannot locate uismoke binary", err)
		}
	}

	sup := opts.Supervisor
	if sup == nil {
		var onLine supervisor.LineFunc
		if opts.Verbose {
			onLine = lineEcho(f.GetErrWriter())
		}
		sup = supervisor.NewExecSupervisor(logger, onLine)
	}

	orchOpts := []orchestrator.Option{
		orchestrator.WithArgs(func(runner string) []string {
			runArgs := []string{"run", runner}
			if opts.ConfigPath != "" {
				runArgs = append(runArgs, "--config", opts.ConfigPath)
			}
			if opts.Strict {
				runArgs = append(runArgs, "--strict")
			}
			return runArgs
		}),
		orchestrator.WithReportPath(func(runner string) string { return reportFiles[runner] }),
		orchestrator.WithSummaryPath(cfg.SummaryPath()),
		orchestrator.WithTimeout(cfg.RunnerTimeout),
		orchestrator.WithTimeout(opts.Timeout),
		orchestrator.WithLogger(logger),
	}
	if opts.Workbook != "" {
		orchOpts = append(orchOpts, orchestrator.WithWorkbook(opts.Workbook))
	}
	if !f.JSON() {
		w := cmd.OutOrStdout()
		orchOpts = append(orchOpts, orchestrator.OnOutcome(func(o report.RunnerOutcome) {
			fmt.Fprintln(w, outcomeLine(o))
		}))
	}

	var recorder *sweepRecorder
	if !opts.NoHistory && cfg.HistoryDB != "" {
		store, err := history.Open(cfg.HistoryDB)
		if err != nil {
			logger.Warn("history disabled", "path", cfg.HistoryDB, "error", err)
		} else {
			defer store.Close()
			recorder = &sweepRecorder{store: store}
			orchOpts = append(orchOpts, orchestrator.WithRecorder(recorder))
		}
	}

	ctx, cancel := signalContext(cmd)
	defer cancel()

	if !f.JSON() {
		fmt.Fprintln(cmd.OutOrStdout(), titleStyle.Render(fmt.Sprintf("Sweeping %d runner(s) against %s", len(runners), cfg.BaseURL)))
	}
	sum, err := orchestrator.New(sup, executable, orchOpts...).Sweep(ctx, runners)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeWriteFailed, "summary not written", err)
	}

	if f.JSON() {
		result := SweepResult{
			SummaryPath: cfg.SummaryPath(),
			Total:       sum.Total(),
			Passed:      sum.Passed(),
			Failed:      sum.Failed(),
			Summary:     sum,
		}
		if recorder != nil {
			result.SweepID = recorder.id
		}
		if err := f.Success(result); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		line := fmt.Sprintf("%d/%d runners passed in %s", sum.Passed(), sum.Total(), sum.Duration().Round(time.Millisecond))
		if sum.Failed() > 0 {
			fmt.Fprintln(w, failStyle.Render(line))
		} else {
			fmt.Fprintln(w, passStyle.Render(line))
		}
		fmt.Fprintln(w, dimStyle.Render("summary: "+cfg.SummaryPath()))
		if recorder != nil && recorder.id != "" {
			reportStreaks(ctx, w, recorder.store, sum, logger)
		}
	}

	if sum.Failed() > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d runners failed", sum.Failed(), sum.Total()))
	}
	return nil
}

// sweepRecorder remembers the ID history assigned.
type sweepRecorder struct {
	store *history.Store
	id    string
}

func (r *sweepRecorder) RecordSweep(ctx context.Context, s *report.Summary, summaryPath string) (string, error) {
	id, err := r.store.RecordSweep(ctx, s, summaryPath)
	r.id = id
	return id, err
}

// reportStreaks flags runners that failed this sweep and the ones before it.
func reportStreaks(ctx context.Context, w io.Writer, store *history.Store, sum *report.Summary, logger *slog.Logger) {
	for _, o := range sum.Outcomes {
		if o.Passed {
			continue
		}
		streak, err := store.RunnerStreak(ctx, o.Runner)
		if err != nil {
			logger.Warn("cannot read failure streak", "runner", o.Runner, "error", err)
			continue
		}
		if streak > 1 {
			fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%s has failed %d sweeps in a row", o.Runner, streak)))
		}
	}
}

func outcomeLine(o report.RunnerOutcome) string {
	d := o.Duration.Round(time.Millisecond)
	if o.Passed {
		return fmt.Sprintf("%s %s %s", passStyle.Render("✓"), o.Runner, dimStyle.Render(d.String()))
	}
	line := fmt.Sprintf("%s %s %s", failStyle.Render("✗"), o.Runner, dimStyle.Render(d.String()))
	if o.FirstError != "" {
		line += " " + warnStyle.Render(o.FirstError)
	}
	return line
}

// lineEcho prefixes runner output with the runner name. Stdout and stderr
// scanners call it concurrently.
func lineEcho(w io.Writer) supervisor.LineFunc {
	var mu sync.Mutex
	return func(runner, stream, line string) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintf(w, "%s %s\n", dimStyle.Render("["+runner+" "+stream+"]"), line)
	}
}
