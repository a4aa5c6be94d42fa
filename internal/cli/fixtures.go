package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/uismoke/internal/domains"
	"github.com/roach88/uismoke/internal/fixture"
)

// FixturesOptions holds flags for the fixtures command.
type FixturesOptions struct {
	*RootOptions
	Force bool
}

// FixtureFile reports what fixtures did to one file.
type FixtureFile struct {
	Domain  string `json:"domain"`
	Path    string `json:"path"`
	Action  string `json:"action"` // "created" | "exists" | "overwritten"
	Records int    `json:"records"`
}

// NewFixturesCommand creates the fixtures command.
func NewFixturesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FixturesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fixtures [domain...]",
		Short: "Write sample fixture files for domains that have none",
		Long: `Write the built-in sample fixture file for each domain whose file is
missing, so it can be edited before the first run. Runners do the same on
demand; this command only makes it explicit. Existing files are kept unless
--force is given.

Files ending in .xlsx are written as workbooks, .tsv as tab-separated and
anything else as CSV.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFixtures(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite existing fixture files")

	return cmd
}

func runFixtures(opts *FixturesOptions, args []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)
	cfg, err := opts.loadConfig(f)
	if err != nil {
		return err
	}

	selected := domains.All()
	if len(args) > 0 {
		if selected, err = domains.Resolve(args); err != nil {
			return f.Fail(ExitCommandError, ErrCodeUnknownDomain, "cannot write fixtures", err)
		}
	}

	loader := fixture.NewLoader(f.Logger())
	files := make([]FixtureFile, 0, len(selected))
	for _, d := range selected {
		schema := d.Schema()
		path := cfg.FixturePath(d.Scenario().FixtureFile)
		entry := FixtureFile{Domain: d.Name, Path: path, Action: "created"}

		_, statErr := os.Stat(path)
		switch {
		case statErr == nil && !opts.Force:
			entry.Action = "exists"
		case statErr == nil || errors.Is(statErr, fs.ErrNotExist):
			if statErr == nil {
				entry.Action = "overwritten"
			}
			if err := fixture.Synthesize(path, schema); err != nil {
				return f.Fail(ExitCommandError, ErrCodeWriteFailed, "cannot write "+path, err)
			}
		default:
			return f.Fail(ExitCommandError, ErrCodeGeneric, "cannot inspect "+path, statErr)
		}

		entry.Records = len(loader.Load(path, schema))
		files = append(files, entry)
	}

	if f.JSON() {
		return f.Success(files)
	}
	w := cmd.OutOrStdout()
	for _, file := range files {
		action := dimStyle.Render(file.Action)
		if file.Action != "exists" {
			action = passStyle.Render(file.Action)
		}
		fmt.Fprintf(w, "%-10s %-11s %s (%d records)\n", file.Domain, action, file.Path, file.Records)
	}
	return nil
}
