// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDispatchBuild is wrapped by every dispatch compilation failure.
	ErrDispatchBuild = errors.New("dispatch build failed")
	// ErrUnknownArgument is returned when a selection supplies a value for
	// an argument or field its target does not declare.
	ErrUnknownArgument = errors.New("unknown argument")
	// ErrInvalidResult is returned when a handler returns a malformed Result.
	ErrInvalidResult = errors.New("invalid handler result")
	// ErrAncestorMismatch is returned when a linked unit is entered with an
	// ancestor of the wrong type, or without one.
	ErrAncestorMismatch = errors.New("ancestor scope mismatch")
	// ErrNoForwarder is returned when a link is selected but the dispatcher
	// was compiled without a Forwarder.
	ErrNoForwarder = errors.New("no link forwarder configured")
)

// HandlerError wraps an error returned by an operation handler with the
// operation path.
type HandlerError struct {
	Unit string
	Path []string
	Err  error
}

// Error implements the error interface.
func (e *HandlerError) Error() string {
	return fmt.Sprintf("operation %q in unit %q: %v", strings.Join(e.Path, " "), e.Unit, e.Err)
}

// Unwrap returns the handler's error.
func (e *HandlerError) Unwrap() error { return e.Err }
