// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"errors"
	"fmt"
	"strconv"
)

const (
	// HintNone means no completion hint was declared.
	HintNone ValueHint = ""
	// HintOther completes nothing and suppresses file completion.
	HintOther ValueHint = "other"
	// HintAnyPath completes files and directories.
	HintAnyPath ValueHint = "any-path"
	// HintFilePath completes files.
	HintFilePath ValueHint = "file-path"
	// HintDirPath completes directories only.
	HintDirPath ValueHint = "dir-path"
	// HintExecutablePath completes executables.
	HintExecutablePath ValueHint = "executable-path"
	// HintCommandName completes command names.
	HintCommandName ValueHint = "command-name"
	// HintCommandString accepts a whole shell command line.
	HintCommandString ValueHint = "command-string"
	// HintCommandWithArguments accepts a command followed by its arguments.
	HintCommandWithArguments ValueHint = "command-with-arguments"
	// HintUsername completes user names.
	HintUsername ValueHint = "username"
	// HintHostname completes host names.
	HintHostname ValueHint = "hostname"
	// HintURL accepts a URL.
	HintURL ValueHint = "url"
	// HintEmailAddress accepts an e-mail address.
	HintEmailAddress ValueHint = "email-address"

	// TypeString is the type tag assumed when an argument declares none.
	TypeString = "string"
	// TypeBool is the type tag of flag arguments.
	TypeBool = "bool"
)

// ErrInvalidValueHint is the sentinel error wrapped by InvalidValueHintError.
var ErrInvalidValueHint = errors.New("invalid value hint")

type (
	// ValueHint is a completion/UI hint attached to an argument.
	ValueHint string

	// InvalidValueHintError is returned when a ValueHint is not recognized.
	InvalidValueHintError struct {
		Value ValueHint
	}

	// Multiplicity bounds how many values an argument collects.
	// A nil bound is unbounded on that side.
	Multiplicity struct {
		Min *int
		Max *int
	}

	// Argument describes one parameter of an operation, or one field of a
	// parameter scope.
	//
	// A flag argument is boolean-valued and never carries a default, an
	// optional marker or a multiplicity. Every other argument is ordinary
	// valued and resolves through its Type tag.
	Argument struct {
		// Name is unique within its operation.
		Name string
		// Type selects the value converter ("string", "int", "float", ...).
		// It is opaque to the tree itself.
		Type string
		// Flag marks a boolean presence argument.
		Flag bool
		// Optional makes absence a valid outcome instead of an error.
		Optional bool
		// Default is the raw value used when none is supplied.
		Default *string
		// Positional sources the value from positional tokens instead of a named option.
		Positional bool
		// Multiplicity, when set, makes the argument collect several values.
		Multiplicity *Multiplicity
		// Short is a single-character alias.
		Short string
		// Help is the text shown in usage output.
		Help string
		// Hidden removes the argument from usage output.
		Hidden bool
		// ValueHint drives shell completion.
		ValueHint ValueHint
		// Enum restricts the accepted raw values.
		Enum []string
		// Validator references a validation function, see package resolve.
		Validator string
	}
)

// Error implements the error interface.
func (e *InvalidValueHintError) Error() string {
	return fmt.Sprintf("invalid value hint %q", e.Value)
}

// Unwrap returns ErrInvalidValueHint for errors.Is() compatibility.
func (e *InvalidValueHintError) Unwrap() error { return ErrInvalidValueHint }

// IsValid returns whether the ValueHint is one of the known hints.
func (h ValueHint) IsValid() (bool, []error) {
	switch h {
	case HintNone, HintOther, HintAnyPath, HintFilePath, HintDirPath, HintExecutablePath,
		HintCommandName, HintCommandString, HintCommandWithArguments, HintUsername,
		HintHostname, HintURL, HintEmailAddress:
		return true, nil
	default:
		return false, []error{&InvalidValueHintError{Value: h}}
	}
}

// String returns the string representation of the ValueHint.
func (h ValueHint) String() string { return string(h) }

// Bounded returns a multiplicity with both bounds set.
func Bounded(minimum, maximum int) *Multiplicity {
	return &Multiplicity{Min: &minimum, Max: &maximum}
}

// AtLeast returns a multiplicity with only a lower bound.
func AtLeast(minimum int) *Multiplicity {
	return &Multiplicity{Min: &minimum}
}

// AtMost returns a multiplicity with only an upper bound.
func AtMost(maximum int) *Multiplicity {
	return &Multiplicity{Max: &maximum}
}

// Allows reports whether n collected values satisfy the bounds.
func (m *Multiplicity) Allows(n int) bool {
	if m == nil {
		return n <= 1
	}
	if m.Min != nil && n < *m.Min {
		return false
	}
	if m.Max != nil && n > *m.Max {
		return false
	}
	return true
}

// String renders the bounds as "min..max" with open sides left empty.
func (m *Multiplicity) String() string {
	if m == nil {
		return "..1"
	}
	var lo, hi string
	if m.Min != nil {
		lo = strconv.Itoa(*m.Min)
	}
	if m.Max != nil {
		hi = strconv.Itoa(*m.Max)
	}
	return lo + ".." + hi
}

// TypeTag returns the declared type tag, defaulting to TypeString for valued
// arguments and TypeBool for flags.
func (a *Argument) TypeTag() string {
	if a.Flag {
		return TypeBool
	}
	if a.Type == "" {
		return TypeString
	}
	return a.Type
}

// HasDefault reports whether a default value is declared.
func (a *Argument) HasDefault() bool { return a.Default != nil }

// IsMulti reports whether the argument collects several values.
func (a *Argument) IsMulti() bool { return !a.Flag && a.Multiplicity != nil }

// IsRequired reports whether resolution fails when no value is supplied.
func (a *Argument) IsRequired() bool {
	return !a.Flag && !a.Optional && a.Default == nil
}

// Clone returns a deep copy of the argument.
func (a *Argument) Clone() *Argument {
	c := *a
	if a.Default != nil {
		d := *a.Default
		c.Default = &d
	}
	if a.Multiplicity != nil {
		m := Multiplicity{}
		if a.Multiplicity.Min != nil {
			v := *a.Multiplicity.Min
			m.Min = &v
		}
		if a.Multiplicity.Max != nil {
			v := *a.Multiplicity.Max
			m.Max = &v
		}
		c.Multiplicity = &m
	}
	c.Enum = append([]string(nil), a.Enum...)
	return &c
}
