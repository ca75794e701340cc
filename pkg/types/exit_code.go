// SPDX-License-Identifier: MPL-2.0

package types

import (
	"errors"
	"fmt"
	"strconv"
)

// ExitCode is a process exit status. POSIX statuses fit in 0-255.
type ExitCode int

const (
	ExitSuccess ExitCode = 0
	// ExitFailure also covers a dispatch that matched nothing.
	ExitFailure ExitCode = 1
	// ExitUsage reports a command line the parser rejected.
	ExitUsage ExitCode = 2
)

// ErrInvalidExitCode is matched by errors returned from Validate.
var ErrInvalidExitCode = errors.New("invalid exit code")

// Validate rejects codes a process cannot exit with.
func (c ExitCode) Validate() error {
	if c >= 0 && c <= 255 {
		return nil
	}
	return fmt.Errorf("%w %d (must be in range 0-255)", ErrInvalidExitCode, int(c))
}

func (c ExitCode) IsSuccess() bool { return c == ExitSuccess }

func (c ExitCode) String() string { return strconv.Itoa(int(c)) }

// FromStatus converts a shell exit status. Out-of-range statuses become
// ExitFailure.
func FromStatus(status int) ExitCode {
	if c := ExitCode(status); c.Validate() == nil {
		return c
	}
	return ExitFailure
}
