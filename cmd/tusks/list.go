// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/invowk/tusks/internal/listing"
)

// newListCommand creates the `tusks list` command.
func newListCommand(app *App) *cobra.Command {
	var expand bool
	cmd := &cobra.Command{
		Use:     "list [prefix...]",
		Aliases: []string{"ls"},
		Short:   "List the tasks of the declared command tree",
		Long: `List the tasks of the declared command tree, grouped by scope.

Task names join the path tokens with the configured separator ("." by
default). A prefix, given as tokens or as a dotted name, restricts the
listing to one scope. Groups larger than listing.max_group_size are
collapsed unless --all is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listTasks(cmd.Context(), app, args, expand)
		},
	}
	cmd.Flags().BoolVarP(&expand, "all", "a", false, "show every task of collapsed groups")
	return cmd
}

func listTasks(ctx context.Context, app *App, prefix []string, expand bool) error {
	s, err := app.openSession(ctx, sessionOptions{})
	if err != nil {
		return app.reportError(err)
	}

	sep := s.cfg.Listing.Separator
	var tokens []string
	for _, p := range prefix {
		tokens = append(tokens, strings.Split(p, sep)...)
	}

	list, err := listing.Build(s.unit.Grammar, listing.Options{
		Separator:    sep,
		MaxGroupSize: s.cfg.Listing.MaxGroupSize,
		MaxDepth:     s.cfg.Listing.MaxDepth,
		Expand:       expand,
		Prefix:       tokens,
	})
	if err != nil {
		return app.reportError(err)
	}
	return list.Render(app.stdout, listing.RenderConfig{UseColors: s.cfg.UI.UseColors})
}
