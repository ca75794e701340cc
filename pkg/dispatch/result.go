// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"fmt"
	"strings"

	"github.com/invowk/tusks/pkg/types"
)

const (
	// OutcomeSuccess is a successful run without an explicit code.
	OutcomeSuccess Outcome = iota
	// OutcomeSuccessCode is a completed run carrying a numeric result code.
	OutcomeSuccessCode
	// OutcomeNothingMatched reports a valid selection that ended at a scope
	// with no deeper choice and no default operation.
	OutcomeNothingMatched
)

type (
	// Outcome classifies a Result.
	Outcome uint8

	// Result is what a dispatch, and every handler, returns. The zero value
	// is Success.
	Result struct {
		Outcome Outcome
		// Code is meaningful for OutcomeSuccessCode.
		Code types.ExitCode
		// Path is the scope path for OutcomeNothingMatched.
		Path []string
	}
)

// Success is the plain successful result.
func Success() Result { return Result{} }

// SuccessCode carries a numeric result code. The dispatcher rejects codes
// outside 0-255.
func SuccessCode(code types.ExitCode) Result {
	return Result{Outcome: OutcomeSuccessCode, Code: code}
}

// NothingMatched reports that the selection stopped at the scope at path.
func NothingMatched(path []string) Result {
	return Result{Outcome: OutcomeNothingMatched, Path: path}
}

// String returns the outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeSuccessCode:
		return "success_code"
	case OutcomeNothingMatched:
		return "nothing_matched"
	default:
		return fmt.Sprintf("outcome(%d)", uint8(o))
	}
}

// IsNothingMatched reports whether r is the NothingMatched outcome.
func (r Result) IsNothingMatched() bool { return r.Outcome == OutcomeNothingMatched }

// ExitCode maps the result onto a process exit status: 0 for Success, the
// carried code for SuccessCode and 1 for NothingMatched.
func (r Result) ExitCode() types.ExitCode {
	switch r.Outcome {
	case OutcomeSuccessCode:
		return r.Code
	case OutcomeNothingMatched:
		return types.ExitFailure
	default:
		return types.ExitSuccess
	}
}

// String formats the result for logs.
func (r Result) String() string {
	switch r.Outcome {
	case OutcomeSuccessCode:
		return "success(" + r.Code.String() + ")"
	case OutcomeNothingMatched:
		if len(r.Path) == 0 {
			return "nothing matched at root"
		}
		return "nothing matched at " + strings.Join(r.Path, " ")
	default:
		return "success"
	}
}

func (r Result) validate() error {
	if r.Outcome > OutcomeNothingMatched {
		return fmt.Errorf("%w: unknown outcome %d", ErrInvalidResult, uint8(r.Outcome))
	}
	if r.Outcome == OutcomeSuccessCode {
		if err := r.Code.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidResult, err)
		}
	}
	return nil
}
