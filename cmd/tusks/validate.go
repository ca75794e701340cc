// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/invowk/tusks/internal/issue"
	"github.com/invowk/tusks/internal/runtime"
	"github.com/invowk/tusks/pkg/tree"
)

// newValidateCommand creates the `tusks validate` command.
func newValidateCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the declaration, its links and its scripts",
		Long: `Check the declaration of the root unit and every unit it links to.

The tree is compiled exactly as 'tusks run' would compile it, and every
operation script is parsed. All problems are reported, each located by the
scope, operation or argument it concerns.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return validateDeclaration(cmd.Context(), app)
		},
	}
}

func validateDeclaration(ctx context.Context, app *App) error {
	s, err := app.openSession(ctx, sessionOptions{})
	if err != nil {
		return app.reportError(err)
	}

	var scriptErrs tree.ValidationErrors
	units := s.registry.Units()
	for _, name := range units {
		u, ok := s.registry.Unit(name)
		if !ok {
			continue
		}
		for _, e := range runtime.ValidateScripts(u.Tree) {
			if !strings.HasPrefix(e.Field, "root '") {
				e.Field = "unit '" + name + "' " + e.Field
			}
			scriptErrs = append(scriptErrs, e)
		}
	}
	if len(scriptErrs) > 0 {
		return app.reportError(newServiceError(scriptErrs, issue.ScriptExecutionFailedId, ""))
	}

	fmt.Fprintf(app.stdout, "%s %s is valid (%d units, %d operations)\n",
		SuccessStyle.Render("✓"), s.file, len(units), len(s.unit.Grammar.OperationPaths()))
	return nil
}
