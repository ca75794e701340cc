// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"errors"
	"strconv"
	"strings"
)

// ErrInvalidTree is wrapped by every ValidationErrors value.
var ErrInvalidTree = errors.New("invalid command tree")

type (
	// ValidationError is one structural problem found in a tree.
	ValidationError struct {
		// Field locates the problem, e.g. "scope 'admin' operation 'ban' argument 'reason'".
		Field string
		// Message is the human-readable description.
		Message string
	}

	// ValidationErrors collects every problem found in one validation pass.
	ValidationErrors []ValidationError

	// FieldPath is a builder for hierarchical locations inside a tree.
	FieldPath struct {
		parts []string
	}
)

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

// Error implements the error interface by joining all messages.
func (errs ValidationErrors) Error() string {
	switch len(errs) {
	case 0:
		return ""
	case 1:
		return errs[0].Error()
	}

	var b strings.Builder
	b.WriteString("validation failed with ")
	b.WriteString(strconv.Itoa(len(errs)))
	b.WriteString(" errors:\n")
	for i, err := range errs {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// Unwrap returns ErrInvalidTree for errors.Is() compatibility.
func (errs ValidationErrors) Unwrap() error { return ErrInvalidTree }

// Fields returns the locations of all errors, in order.
func (errs ValidationErrors) Fields() []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Field
	}
	return out
}

// NewFieldPath creates an empty FieldPath.
func NewFieldPath() *FieldPath {
	return &FieldPath{}
}

// ForScope starts a path at the given scope.
func ForScope(s *Scope) *FieldPath {
	p := NewFieldPath()
	if s.IsRoot() {
		return p.Root(s.Name)
	}
	return p.Scope(strings.Join(s.Path, "."))
}

// String returns the complete path.
func (p *FieldPath) String() string {
	return strings.Join(p.parts, " ")
}

// Copy returns an independent copy.
func (p *FieldPath) Copy() *FieldPath {
	return &FieldPath{parts: append([]string(nil), p.parts...)}
}

// Root adds the unit root context.
func (p *FieldPath) Root(unit string) *FieldPath {
	p.parts = append(p.parts, "root '"+unit+"'")
	return p
}

// Scope adds a scope context.
func (p *FieldPath) Scope(path string) *FieldPath {
	p.parts = append(p.parts, "scope '"+path+"'")
	return p
}

// Operation adds an operation context.
func (p *FieldPath) Operation(name string) *FieldPath {
	p.parts = append(p.parts, "operation '"+name+"'")
	return p
}

// Argument adds an argument context.
func (p *FieldPath) Argument(name string) *FieldPath {
	p.parts = append(p.parts, "argument '"+name+"'")
	return p
}

// ArgIndex adds an argument context by index (1-indexed for display).
func (p *FieldPath) ArgIndex(i int) *FieldPath {
	p.parts = append(p.parts, "argument #"+strconv.Itoa(i+1))
	return p
}

// Field adds a parameter scope field context.
func (p *FieldPath) Field(name string) *FieldPath {
	p.parts = append(p.parts, "field '"+name+"'")
	return p
}

// Link adds a link context.
func (p *FieldPath) Link(alias string) *FieldPath {
	p.parts = append(p.parts, "link '"+alias+"'")
	return p
}
