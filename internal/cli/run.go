package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/uismoke/internal/browser"
	"github.com/roach88/uismoke/internal/config"
	"github.com/roach88/uismoke/internal/domains"
	"github.com/roach88/uismoke/internal/fixture"
	"github.com/roach88/uismoke/internal/harness"
	"github.com/roach88/uismoke/internal/report"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Scenario      string
	Strict        bool
	NoScreenshots bool
}

// RunResult is the JSON payload of run.
type RunResult struct {
	Scenario string              `json:"scenario"`
	State    harness.State       `json:"state"`
	Counts   report.Counts       `json:"counts"`
	Report   string              `json:"report"`
	Results  []report.TestResult `json:"results"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run <domain>",
		Short: "Run one domain scenario in its own browser",
		Long: `Run one scenario runner: sign in, then list, create, edit and feature
checks for the domain. Results stream to stdout as they happen and the report
is written to the reports directory on every path.

Failed checks are results, not errors: the exit code is 0 unless the browser
could not be started or the report could not be written. --strict also exits
1 when any result is Failed or Error.

Examples:
  uismoke run guests
  uismoke run roles --strict
  uismoke run guests --scenario ./scenarios/guests-v2.yaml`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "scenario YAML replacing the built-in one")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit 1 when any check failed")
	cmd.Flags().BoolVar(&opts.NoScreenshots, "no-screenshots", false, "skip per-step screenshots")

	return cmd
}

func runScenario(opts *RunOptions, name string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	cfg, err := opts.loadConfig(f)
	if err != nil {
		return err
	}
	logger := f.Logger()

	domain, known := domains.Lookup(name)
	var sc *harness.Scenario
	switch {
	case opts.Scenario != "":
		if sc, err = harness.LoadScenario(opts.Scenario); err != nil {
			return f.Fail(ExitCommandError, ErrCodeInvalidScenario, "invalid scenario", err)
		}
	case known:
		sc = domain.Scenario()
	default:
		return f.Fail(ExitCommandError, ErrCodeUnknownDomain,
			fmt.Sprintf("unknown domain %q (known: %s)", name, strings.Join(domains.Names(), ", ")), nil)
	}

	var fixtures []fixture.Record
	if sc.FixtureFile != "" {
		schema := fixture.Schema{Name: sc.Name}
		if known {
			schema = domain.Schema()
		}
		path := cfg.FixturePath(sc.FixtureFile)
		fixtures = fixture.NewLoader(logger).Load(path, schema)
		f.VerboseLog("loaded %d fixture record(s) from %s", len(fixtures), path)
	}

	launcher := opts.Launcher
	if launcher == nil {
		launcher = browser.NewRodLauncher(browser.RodOptions{
			Headless:   cfg.Headless,
			Bin:        cfg.BrowserBin,
			SlowMotion: cfg.SlowMotion,
			Timeout:    cfg.Timeout,
			Logger:     logger,
		})
	}

	// Progress shares stdout with text output; JSON keeps stdout clean.
	var progress io.Writer = cmd.OutOrStdout()
	if f.JSON() {
		progress = f.GetErrWriter()
	}

	reportPath := cfg.ReportPath(sc.ReportFile)
	ctx, cancel := signalContext(cmd)
	defer cancel()

	out, runErr := harness.Run(ctx, sc, harness.Options{
		Launcher:      launcher,
		BaseURL:       cfg.BaseURL,
		Credentials:   harness.Credentials{Username: cfg.Credentials.Username, Password: cfg.Credentials.Password},
		Fixtures:      fixtures,
		ScreenshotDir: screenshotDir(cfg, opts.NoScreenshots),
		Timeout:       cfg.Timeout,
		Logger:        logger,
		Progress:      progress,
		OnFinish: func(out *harness.Outcome) error {
			return report.WriteRunReport(reportPath, out.Reporter.Title(), out.Reporter.Results())
		},
	})
	if runErr != nil {
		// The report is still written when the browser could not start.
		return f.Fail(ExitCommandError, ErrCodeBrowser, "scenario aborted", runErr)
	}

	counts := out.Counts()
	if f.JSON() {
		if err := f.Success(RunResult{
			Scenario: sc.Name,
			State:    out.State(),
			Counts:   counts,
			Report:   reportPath,
			Results:  out.Reporter.Results(),
		}); err != nil {
			return err
		}
	} else {
		w := cmd.OutOrStdout()
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render(out.Reporter.Title()))
		fmt.Fprintf(w, "%s  %s\n", countsLine(counts), dimStyle.Render(reportPath))
	}

	if opts.Strict && counts.Failed+counts.Error > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d failed, %d errors", sc.Name, counts.Failed, counts.Error))
	}
	return nil
}

func screenshotDir(cfg config.Config, disabled bool) string {
	if disabled {
		return ""
	}
	return cfg.ScreenshotsDir
}

func countsLine(c report.Counts) string {
	parts := []string{
		passStyle.Render(fmt.Sprintf("%d success", c.Success)),
		failStyle.Render(fmt.Sprintf("%d failed", c.Failed)),
		dimStyle.Render(fmt.Sprintf("%d skipped", c.Skipped)),
		failStyle.Render(fmt.Sprintf("%d error", c.Error)),
		warnStyle.Render(fmt.Sprintf("%d unknown", c.Unknown)),
	}
	return strings.Join(parts, ", ")
}
