package cmd

import (
	"fmt"
	"io"

	"replex/internal/app"

	"github.com/spf13/cobra"
)

// newApplication bootstraps the application from the global flags.
func newApplication(cmd *cobra.Command) (*app.Application, error) {
	cfg := app.NewConfig(debug, configPath, GetVersion())
	cfg.LogOutput = cmd.ErrOrStderr()
	return app.NewApplication(cfg)
}

// quietPrintf prints output only if the --quiet flag is not set.
// Use this for progress messages and non-essential output.
func quietPrintf(w io.Writer, format string, args ...interface{}) {
	if !quiet {
		fmt.Fprintf(w, format, args...)
	}
}

// quietPrintln prints a line only if the --quiet flag is not set.
func quietPrintln(w io.Writer, a ...interface{}) {
	if !quiet {
		fmt.Fprintln(w, a...)
	}
}
