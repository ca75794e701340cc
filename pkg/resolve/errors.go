// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// KindRequiredMissing means no value was supplied for a required argument.
	KindRequiredMissing Kind = iota + 1
	// KindMultiplicity means the number of supplied values is out of bounds.
	KindMultiplicity
	// KindEnumNotAllowed means a raw value is outside the allowed set.
	KindEnumNotAllowed
	// KindConversion means the raw value could not be converted to its type.
	KindConversion
	// KindValidator means the validator rejected the converted value.
	KindValidator
)

var (
	// ErrResolution is wrapped by every argument-resolution error.
	ErrResolution = errors.New("argument resolution failed")
	// ErrRequiredMissing is the sentinel for KindRequiredMissing.
	ErrRequiredMissing = errors.New("required argument missing")
	// ErrMultiplicity is the sentinel for KindMultiplicity.
	ErrMultiplicity = errors.New("argument multiplicity violated")
	// ErrEnumNotAllowed is the sentinel for KindEnumNotAllowed.
	ErrEnumNotAllowed = errors.New("argument value not allowed")
	// ErrConversion is the sentinel for KindConversion.
	ErrConversion = errors.New("argument conversion failed")
	// ErrValidator is the sentinel for KindValidator.
	ErrValidator = errors.New("argument validation failed")
	// ErrUnknownValidator is returned when a validator reference cannot be bound.
	ErrUnknownValidator = errors.New("unknown validator")
)

type (
	// Kind classifies an argument-resolution error.
	Kind int

	// Error is an argument-resolution error. Argument always names the
	// offending argument.
	Error struct {
		Kind     Kind
		Argument string
		// Value is the raw value involved, if any.
		Value string
		// Type is the type tag used for conversion failures.
		Type string
		// Allowed lists the enum values for KindEnumNotAllowed.
		Allowed []string
		// Count and Bounds describe KindMultiplicity failures.
		Count  int
		Bounds string
		Cause  error
	}
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindRequiredMissing:
		return "required-missing"
	case KindMultiplicity:
		return "multiplicity"
	case KindEnumNotAllowed:
		return "enum-not-allowed"
	case KindConversion:
		return "conversion"
	case KindValidator:
		return "validator"
	default:
		return "unknown"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindRequiredMissing:
		return ErrRequiredMissing
	case KindMultiplicity:
		return ErrMultiplicity
	case KindEnumNotAllowed:
		return ErrEnumNotAllowed
	case KindConversion:
		return ErrConversion
	case KindValidator:
		return ErrValidator
	default:
		return ErrResolution
	}
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindRequiredMissing:
		return fmt.Sprintf("argument %q: required value missing", e.Argument)
	case KindMultiplicity:
		return fmt.Sprintf("argument %q: got %d value(s), expected %s", e.Argument, e.Count, e.Bounds)
	case KindEnumNotAllowed:
		return fmt.Sprintf("argument %q: value %q is not allowed (allowed: %s)", e.Argument, e.Value, strings.Join(e.Allowed, ", "))
	case KindConversion:
		return fmt.Sprintf("argument %q: cannot convert %q to %s: %v", e.Argument, e.Value, e.Type, e.Cause)
	case KindValidator:
		return fmt.Sprintf("argument %q: %v", e.Argument, e.Cause)
	default:
		return fmt.Sprintf("argument %q: %v", e.Argument, e.Cause)
	}
}

// Unwrap exposes the kind sentinel, ErrResolution and the cause.
func (e *Error) Unwrap() []error {
	errs := []error{e.Kind.sentinel(), ErrResolution}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}
