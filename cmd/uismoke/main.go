// Command uismoke runs browser smoke tests against the event admin UI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/uismoke/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		// Exit errors were already rendered by the command.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
