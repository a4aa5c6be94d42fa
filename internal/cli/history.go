package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/roach88/uismoke/internal/history"
	"github.com/roach88/uismoke/internal/report"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
	Sweep string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded sweeps",
		Long: `Show the most recent sweeps from the history database, newest first.
With --sweep, show the runner outcomes of one sweep.

Examples:
  uismoke history
  uismoke history --limit 20
  uismoke history --sweep 01890a5d-ac96-774b-bcce-b302099a8057`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 10, "number of sweeps to show")
	cmd.Flags().StringVar(&opts.Sweep, "sweep", "", "show the runners of one sweep")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	cfg, err := opts.loadConfig(f)
	if err != nil {
		return err
	}

	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeHistory, "cannot open history", err)
	}
	defer store.Close()

	ctx := cmd.Context()
	if opts.Sweep != "" {
		outcomes, err := store.SweepOutcomes(ctx, opts.Sweep)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeHistory, "cannot read sweep", err)
		}
		if len(outcomes) == 0 {
			return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("sweep %q not found", opts.Sweep), nil)
		}
		rows, err := withStreaks(ctx, store, outcomes)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeHistory, "cannot read failure streaks", err)
		}
		if f.JSON() {
			return f.Success(rows)
		}
		renderOutcomes(cmd, rows)
		return nil
	}

	sweeps, err := store.RecentSweeps(ctx, opts.Limit)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeHistory, "cannot read history", err)
	}
	if f.JSON() {
		return f.Success(sweeps)
	}
	if len(sweeps) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sweeps recorded yet.")
		return nil
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Sweep", "Started", "Duration", "Passed", "Failed"})
	table.SetAutoFormatHeaders(false)
	for _, sw := range sweeps {
		table.Append([]string{
			sw.ID,
			sw.StartedAt.Local().Format(report.TimeFormat),
			sw.FinishedAt.Sub(sw.StartedAt).Round(time.Second).String(),
			fmt.Sprint(sw.Passed),
			fmt.Sprint(sw.Failed),
		})
	}
	table.Render()
	return nil
}

// OutcomeRow is one runner of a recorded sweep. FailingStreak is how many
// of the latest sweeps in a row the runner has failed, as of now.
type OutcomeRow struct {
	report.RunnerOutcome
	FailingStreak int `json:"failing_streak"`
}

func withStreaks(ctx context.Context, store *history.Store, outcomes []report.RunnerOutcome) ([]OutcomeRow, error) {
	rows := make([]OutcomeRow, 0, len(outcomes))
	for _, o := range outcomes {
		streak, err := store.RunnerStreak(ctx, o.Runner)
		if err != nil {
			return nil, err
		}
		rows = append(rows, OutcomeRow{RunnerOutcome: o, FailingStreak: streak})
	}
	return rows, nil
}

func streakLabel(n int) string {
	switch n {
	case 0:
		return "-"
	case 1:
		return "1 sweep"
	default:
		return fmt.Sprintf("%d sweeps", n)
	}
}

func renderOutcomes(cmd *cobra.Command, rows []OutcomeRow) {
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Runner", "Result", "Exit", "Duration", "Failing for", "Error"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	for _, o := range rows {
		table.Append([]string{
			o.Runner,
			o.Result(),
			fmt.Sprint(o.ExitCode),
			o.Duration.Round(time.Millisecond).String(),
			streakLabel(o.FailingStreak),
			o.FirstError,
		})
	}
	table.Render()
}
