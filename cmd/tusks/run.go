// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/invowk/tusks/internal/issue"
	"github.com/invowk/tusks/internal/listing"
	"github.com/invowk/tusks/internal/runtime"
	"github.com/invowk/tusks/pkg/argv"
	"github.com/invowk/tusks/pkg/types"
)

// newRunCommand creates the `tusks run` command. Everything after the
// leading tusks flags belongs to the declared command tree, so cobra does
// not parse flags here.
func newRunCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run [flags] <task> [args...]",
		Short: "Run a task of the declared command tree",
		Long: `Run a task of the declared command tree.

The task is given as its token path ("db migrate") or as its name in the
listing ("db.migrate"). Flags of tusks itself must come before the task:

  --env-file <path>   load variables for scripts from a dotenv file; a
                      trailing '?' makes the file optional (repeatable)
  -f, --file <path>   declaration file of the root unit
  --config <path>     config file
  --link-path <dir>   directory searched for linked units (repeatable)
  -v, --verbose       enable verbose output

` + SubtitleStyle.Render("Examples:") + `
  tusks run build
  tusks run --env-file .env db migrate --steps 3
  tusks run db --help`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTask(cmd.Context(), app, args)
		},
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			return completeTask(cmd.Context(), app, args, toComplete)
		},
	}
}

func runTask(ctx context.Context, app *App, args []string) error {
	envFiles, args, err := splitRunFlags(args, &app.flags)
	if err != nil {
		return app.reportError(err)
	}
	if app.flags.verbose {
		setupLogging(app.stderr, true)
	}

	env := make(map[string]string)
	if err := runtime.LoadEnvFiles(env, envFiles, ""); err != nil {
		return app.reportError(newServiceError(err, issue.InvalidArgumentId, ""))
	}

	s, err := app.openSession(ctx, sessionOptions{env: env})
	if err != nil {
		return app.reportError(err)
	}
	defer s.writeMetrics()

	args = listing.SplitTask(s.unit.Grammar, args, s.cfg.Listing.Separator)
	res, err := s.registry.DispatchArgs(ctx, s.unit.Name, args, nil)
	if err != nil {
		return app.reportError(err)
	}

	if res.IsNothingMatched() {
		path := strings.Join(append([]string{s.unit.Name}, res.Path...), " ")
		err := fmt.Errorf("subcommand required: provide a subcommand for %s", path)
		return app.reportError(newServiceError(err, issue.SubcommandRequiredId, ""))
	}
	if code := res.ExitCode(); code != types.ExitSuccess {
		return &ExitError{Code: code}
	}
	return nil
}

// completeTask completes the arguments of `tusks run` against the compiled
// root unit.
func completeTask(ctx context.Context, app *App, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	_, args, err := splitRunFlags(args, &app.flags)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	s, err := app.openSession(ctx, sessionOptions{})
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return s.unit.Parser.Complete(listing.SplitTask(s.unit.Grammar, args, s.cfg.Listing.Separator), toComplete)
}

// splitRunFlags consumes the tusks flags in front of the task, applies the
// global ones to gf and returns the env files and the remaining arguments.
// A "--" ends the tusks flags and is dropped.
func splitRunFlags(args []string, gf *globalFlags) (envFiles, rest []string, err error) {
	i := 0
	for ; i < len(args); i++ {
		tok := args[i]
		if tok == "--" {
			i++
			break
		}
		name, value, hasValue := strings.Cut(tok, "=")
		takeValue := func() (string, error) {
			if hasValue {
				return value, nil
			}
			if i+1 >= len(args) {
				return "", fmt.Errorf("%w: flag needs an argument: %s", argv.ErrUsage, name)
			}
			i++
			return args[i], nil
		}

		switch name {
		case "--env-file":
			v, err := takeValue()
			if err != nil {
				return nil, nil, err
			}
			envFiles = append(envFiles, v)
		case "-f", "--file":
			if gf.file, err = takeValue(); err != nil {
				return nil, nil, err
			}
		case "--config":
			if gf.configPath, err = takeValue(); err != nil {
				return nil, nil, err
			}
		case "--link-path":
			v, err := takeValue()
			if err != nil {
				return nil, nil, err
			}
			gf.linkPaths = append(gf.linkPaths, v)
		case "-v", "--verbose":
			if hasValue {
				return nil, nil, fmt.Errorf("%w: flag does not take a value: %s", argv.ErrUsage, name)
			}
			gf.verbose = true
		default:
			return envFiles, args[i:], nil
		}
	}
	return envFiles, args[i:], nil
}
