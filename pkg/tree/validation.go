// SPDX-License-Identifier: MPL-2.0

package tree

import (
	"fmt"
	"regexp"
	"slices"
	"unicode/utf8"
)

// MaxNameLength bounds scope, operation, argument and alias names.
const MaxNameLength = 256

var (
	// nameRegex validates POSIX-compliant names.
	nameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

	// reservedNames are taken by the command-line parser itself.
	reservedNames = []string{"help"}
)

type validator struct {
	errs ValidationErrors
}

// Validate checks every structural invariant of a synthesized tree and
// returns all violations. A nil result means the tree is valid.
func Validate(root *Scope) ValidationErrors {
	v := &validator{}
	if root.Name == "" {
		v.add(NewFieldPath().Root(""), "unit must have a name")
	}
	v.scope(root, nil)
	return v.errs
}

func (v *validator) add(p *FieldPath, format string, args ...any) {
	v.errs = append(v.errs, ValidationError{Field: p.String(), Message: fmt.Sprintf(format, args...)})
}

func (v *validator) name(p *FieldPath, kind, name string) bool {
	switch {
	case name == "":
		v.add(p, "%s must have a name", kind)
	case len(name) > MaxNameLength:
		v.add(p, "%s name is too long (%d chars, max %d)", kind, len(name), MaxNameLength)
	case !nameRegex.MatchString(name):
		v.add(p, "%s has invalid name (must start with a letter, contain only alphanumeric, hyphens, and underscores)", kind)
	case slices.Contains(reservedNames, name):
		v.add(p, "%s name %q is reserved", kind, name)
	default:
		return true
	}
	return false
}

func (v *validator) scope(s, parent *Scope) {
	path := ForScope(s)
	if !s.IsRoot() {
		v.name(path, "scope", s.Name)
		if s.ExternalParent != "" {
			v.add(path, "an external parent can only be declared on a unit root")
		}
	}
	v.params(s, parent, path)

	claimed := make(map[string]string)
	claim := func(p *FieldPath, kind, name string) {
		if prev, ok := claimed[name]; ok {
			v.add(p, "%s %q collides with a %s of the same name", kind, name, prev)
			return
		}
		claimed[name] = kind
	}

	var firstDefault string
	for _, op := range s.Operations {
		opPath := path.Copy().Operation(op.Name)
		if v.name(opPath, "operation", op.Name) {
			claim(opPath, "operation", op.Name)
		}
		if op.Default {
			if firstDefault != "" {
				v.add(opPath, "duplicate default operation: %q is already the default of this scope", firstDefault)
			} else {
				firstDefault = op.Name
			}
		}
		v.operation(s, op, opPath)
	}
	for _, c := range s.Children {
		if c.Name != "" {
			claim(path.Copy().Scope(c.Name), "scope", c.Name)
		}
	}
	for _, l := range s.Links {
		lp := path.Copy().Link(l.Alias)
		if v.name(lp, "link alias", l.Alias) {
			claim(lp, "link", l.Alias)
		}
		if l.Target == "" {
			v.add(lp, "link must name a target unit")
		}
	}
	for _, c := range s.Children {
		v.scope(c, s)
	}
}

func (v *validator) params(s, parent *Scope, path *FieldPath) {
	ps := s.Params
	if ps == nil {
		v.add(path, "parameter scope was not synthesized")
		return
	}

	seen := make(map[string]bool)
	var ancestors []*Field
	for _, f := range ps.Fields {
		fp := path.Copy().Field(f.Name)
		if seen[f.Name] {
			v.add(fp, "duplicate field name")
		}
		seen[f.Name] = true

		if f.Kind == FieldAncestor {
			ancestors = append(ancestors, f)
			if f.Name != AncestorFieldName {
				v.add(fp, "ancestor back-reference must be named %q", AncestorFieldName)
			}
			continue
		}
		if f.Name == AncestorFieldName {
			v.add(fp, "field name %q is reserved for the ancestor back-reference, which is added automatically", AncestorFieldName)
			continue
		}
		if f.Arg == nil {
			v.add(fp, "field has no value descriptor")
			continue
		}
		if f.Arg.Positional {
			v.add(fp, "parameter scope fields cannot be positional")
		}
		if v.name(fp, "field", f.Name) {
			v.argument(fp, f.Arg)
		}
	}

	var expected string
	switch {
	case parent != nil:
		expected = parent.Params.Type
	case s.ExternalParent != "":
		expected = s.ExternalParent
	}

	switch {
	case expected == "" && len(ancestors) > 0:
		v.add(path, "a tree root cannot carry an ancestor back-reference; declare an external parent to make the unit linkable")
	case expected == "":
	case len(ancestors) == 0:
		v.add(path, "missing ancestor back-reference to %q", expected)
	case len(ancestors) > 1:
		v.add(path, "found %d ancestor back-references, exactly one is allowed", len(ancestors))
	case ancestors[0].AncestorType != expected:
		v.add(path.Copy().Field(ancestors[0].Name), "ancestor back-reference has type %q, expected %q", ancestors[0].AncestorType, expected)
	}
}

func (v *validator) operation(s *Scope, op *Operation, path *FieldPath) {
	if op.Trailing && !op.Default {
		v.add(path, "only the default operation can accept trailing tokens")
	}
	if op.ScopeType != "" && op.ScopeType != s.Params.Type {
		v.add(path, "expects parameter scope of type %q but its scope provides %q", op.ScopeType, s.Params.Type)
	}

	names := make(map[string]bool)
	shorts := make(map[string]string)
	var optionalPos, multiPos string
	for i, a := range op.Args {
		ap := path.Copy().Argument(a.Name)
		if a.Name == "" {
			v.add(path.Copy().ArgIndex(i), "argument must have a name")
			continue
		}
		if names[a.Name] {
			v.add(ap, "duplicate argument name")
		}
		names[a.Name] = true
		if !v.name(ap, "argument", a.Name) {
			continue
		}
		v.argument(ap, a)

		if a.Short != "" {
			if prev, ok := shorts[a.Short]; ok {
				v.add(ap, "short name %q is already used by argument %q", a.Short, prev)
			} else {
				shorts[a.Short] = a.Name
			}
		}

		if !a.Positional || a.Flag {
			continue
		}
		if multiPos != "" {
			v.add(ap, "positional argument cannot follow the multi-valued positional argument %q", multiPos)
		}
		if a.IsRequired() && optionalPos != "" {
			v.add(ap, "required positional argument cannot follow optional positional argument %q", optionalPos)
		}
		if !a.IsRequired() && optionalPos == "" {
			optionalPos = a.Name
		}
		if a.IsMulti() {
			multiPos = a.Name
		}
	}
}

func (v *validator) argument(p *FieldPath, a *Argument) {
	if a.Flag {
		if a.Optional {
			v.add(p, "flag argument cannot be optional")
		}
		if a.Default != nil {
			v.add(p, "flag argument cannot have a default value")
		}
		if a.Multiplicity != nil {
			v.add(p, "flag argument cannot have a multiplicity")
		}
		v.short(p, a.Short)
		return
	}

	if a.Optional && a.Default != nil {
		v.add(p, "argument cannot be both optional and have a default value")
	}
	if m := a.Multiplicity; m != nil {
		switch {
		case m.Min != nil && *m.Min < 0, m.Max != nil && *m.Max < 0:
			v.add(p, "multiplicity bounds cannot be negative")
		case m.Max != nil && *m.Max == 0:
			v.add(p, "multiplicity maximum must be positive")
		case m.Min != nil && m.Max != nil && *m.Min > *m.Max:
			v.add(p, "multiplicity minimum %d exceeds maximum %d", *m.Min, *m.Max)
		}
	}
	v.short(p, a.Short)
	if ok, errs := a.ValueHint.IsValid(); !ok {
		for _, err := range errs {
			v.add(p, "%s", err.Error())
		}
	}

	seen := make(map[string]bool)
	for _, e := range a.Enum {
		if e == "" {
			v.add(p, "allowed values cannot contain an empty string")
		}
		if seen[e] {
			v.add(p, "duplicate allowed value %q", e)
		}
		seen[e] = true
	}
	if a.Default != nil && len(a.Enum) > 0 && !seen[*a.Default] {
		v.add(p, "default value %q is not one of the allowed values", *a.Default)
	}

	if pattern, ok := RegexValidator(a.Validator); ok {
		if err := ValidateRegexPattern(pattern); err != nil {
			v.add(p, "validator: %s", err.Error())
		}
	}
}

func (v *validator) short(p *FieldPath, s string) {
	if s == "" {
		return
	}
	if utf8.RuneCountInString(s) != 1 {
		v.add(p, "short name %q must be a single character", s)
		return
	}
	if s == "h" {
		v.add(p, "short name 'h' is reserved for help")
	}
}
