// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/invowk/tusks/pkg/types"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand builds the command tree around app.
func NewRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tusks",
		Short: "Compile declared command trees and run them",
		Long: TitleStyle.Render("tusks") + SubtitleStyle.Render(" - a command-tree compiler") + `

tusks reads a declarative description of nested scopes, operations and
arguments, compiles it into a command-line grammar and a dispatcher, and
runs the selected operation.

Units can link to other units; a link mounts the foreign tree under an
alias and hands it the linking scope's parameters.

` + SubtitleStyle.Render("Examples:") + `
  tusks list                    List the tasks of ./tusks.cue
  tusks run db migrate --steps 3
  tusks run db.migrate          The same task, by its dotted name
  tusks validate                Check the declaration and its links
  tusks schema -o yaml          Print the compiled grammar`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			setupLogging(app.stderr, app.flags.verbose)
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	pf.StringVar(&app.flags.configPath, "config", "", "config file (default is $XDG_CONFIG_HOME/tusks/config.cue)")
	pf.StringVarP(&app.flags.file, "file", "f", "", "declaration file of the root unit (default is ./tusks.cue)")
	pf.StringArrayVar(&app.flags.linkPaths, "link-path", nil, "directory searched for linked units (repeatable)")

	rootCmd.AddCommand(
		newRunCommand(app),
		newListCommand(app),
		newValidateCommand(app),
		newSchemaCommand(app),
		newConfigCommand(app),
		newCompletionCommand(app),
	)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)
	rootCmd.SetIn(app.stdin)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Run executes the CLI with os.Args and returns the process exit status.
func Run() int {
	app := NewApp(Dependencies{})
	err := fang.Execute(
		context.Background(),
		NewRootCommand(app),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, styles fang.Styles, err error) {
			if isReported(err) {
				return
			}
			fang.DefaultErrorHandler(w, styles, err)
		}),
	)
	if err == nil {
		return int(types.ExitSuccess)
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return int(exitErr.Code)
	}
	return int(types.ExitFailure)
}

// Execute runs the CLI and exits the process. This is called by main.main().
func Execute() {
	os.Exit(Run())
}
