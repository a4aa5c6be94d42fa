package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/uismoke/internal/harness"
)

// ScenarioProblem is one invalid scenario file.
type ScenarioProblem struct {
	File    string `json:"file"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Files    int               `json:"files"`
	Problems []ScenarioProblem `json:"problems,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <scenario.yaml>...",
		Short: "Check scenario files without opening a browser",
		Long: `Parse and check scenario YAML files: unknown keys, missing login
selectors, steps without markers. Use it before pointing "run --scenario" at a
new file.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}
}

func runValidate(opts *RootOptions, files []string, cmd *cobra.Command) error {
	f := opts.formatter(cmd)

	result := ValidationResult{Valid: true, Files: len(files)}
	for _, file := range files {
		sc, err := harness.LoadScenario(file)
		if err != nil {
			result.Valid = false
			result.Problems = append(result.Problems, problemFor(file, err))
			continue
		}
		f.VerboseLog("%s: %s with %d step(s)", file, sc.Name, len(sc.Steps()))
	}

	if result.Valid {
		if f.JSON() {
			return f.Success(result)
		}
		fmt.Fprintln(f.Writer, passStyle.Render("✓ All scenarios valid"))
		return nil
	}

	first := result.Problems[0]
	if f.JSON() {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: first.Code, Message: first.Message},
		}); err != nil {
			return err
		}
	} else {
		for _, p := range result.Problems {
			fmt.Fprintln(f.Writer, failStyle.Render(fmt.Sprintf("✗ %s: %s", p.File, p.Message)))
		}
	}
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %d invalid scenario file(s)", first.Code, len(result.Problems)))
}

func problemFor(file string, err error) ScenarioProblem {
	p := ScenarioProblem{File: file, Message: err.Error(), Code: ErrCodeInvalidScenario}
	var verr *harness.ValidationError
	if errors.As(err, &verr) {
		p.Field = verr.Field
	}
	return p
}
