// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/invowk/tusks/internal/dag"
	"github.com/invowk/tusks/internal/issue"
	"github.com/invowk/tusks/internal/runtime"
	"github.com/invowk/tusks/pkg/argv"
	"github.com/invowk/tusks/pkg/dispatch"
	"github.com/invowk/tusks/pkg/link"
	"github.com/invowk/tusks/pkg/resolve"
	"github.com/invowk/tusks/pkg/schema"
	"github.com/invowk/tusks/pkg/tree"
	"github.com/invowk/tusks/pkg/treefile"
	"github.com/invowk/tusks/pkg/types"
)

// ServiceError is an error that carries optional rendering information for
// the CLI layer. When the CLI layer receives a ServiceError, it renders the
// styled error message (if present) before formatting the underlying error.
// Always create via newServiceError to enforce the Err-must-be-non-nil invariant.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
	// StyledMessage is the optional pre-rendered styled error text.
	StyledMessage string
}

// newServiceError creates a ServiceError with a nil-Err panic guard.
func newServiceError(err error, issueID issue.Id, styledMessage string) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{
		Err:           err,
		IssueID:       issueID,
		StyledMessage: styledMessage,
	}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// classifyError picks the catalog entry that explains err. Ids attached
// where the error was built win over classification by sentinel.
func classifyError(err error) issue.Id {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.IssueID != 0 {
		return svcErr.IssueID
	}
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		if guide := ae.Guide(); guide != nil {
			return guide.Id()
		}
	}

	switch {
	case errors.Is(err, dag.ErrCycle):
		return issue.LinkCycleId
	case errors.Is(err, link.ErrUnknownUnit), errors.Is(err, treefile.ErrUnitNotFound):
		return issue.UnitNotFoundId
	case errors.Is(err, schema.ErrSchemaBuild), errors.Is(err, dispatch.ErrDispatchBuild), errors.Is(err, tree.ErrInvalidTree):
		return issue.SchemaBuildFailedId
	case errors.Is(err, schema.ErrUnknownCommand):
		return issue.CommandNotFoundId
	case errors.Is(err, resolve.ErrResolution), errors.Is(err, argv.ErrUsage):
		return issue.InvalidArgumentId
	case errors.Is(err, runtime.ErrScriptSyntax), errors.Is(err, runtime.ErrScriptFailed):
		return issue.ScriptExecutionFailedId
	case errors.Is(err, fs.ErrPermission):
		return issue.PermissionDeniedId
	default:
		return 0
	}
}

// renderServiceError prints err: any styled message first, then the error
// line with suggestions, then (when verbose) the catalog guide.
func renderServiceError(stderr io.Writer, err error, verbose bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.StyledMessage != "" {
		fmt.Fprint(stderr, svcErr.StyledMessage)
	}

	fmt.Fprintf(stderr, "%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))

	id := classifyError(err)
	if !verbose || id == 0 {
		return
	}
	if catalogEntry := issue.Get(id); catalogEntry != nil {
		rendered, renderErr := catalogEntry.Render("dark")
		if renderErr != nil {
			slog.Warn("failed to render issue catalog entry", "issueID", id, "error", renderErr)
		} else {
			fmt.Fprint(stderr, rendered)
		}
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verbose)
	}
	return err.Error()
}

// reportError renders err and converts it into an ExitError so it is not
// printed again.
func (a *App) reportError(err error) error {
	if err == nil || isReported(err) {
		return err
	}
	renderServiceError(a.stderr, err, a.flags.verbose)
	return &ExitError{Code: types.ExitFailure, Err: err}
}
