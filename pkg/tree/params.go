// SPDX-License-Identifier: MPL-2.0

package tree

import "strings"

// AncestorFieldName is the reserved name of the ancestor back-reference field.
const AncestorFieldName = "super_"

const (
	// FieldValue is an ordinary value sourced from the scope's own input.
	FieldValue FieldKind = iota
	// FieldAncestor is the back-reference to the enclosing scope's value.
	FieldAncestor
)

type (
	// FieldKind distinguishes value fields from the ancestor back-reference.
	FieldKind int

	// Field is one member of a parameter scope.
	Field struct {
		Name string
		Kind FieldKind
		// Arg describes the value shape of a FieldValue field.
		Arg *Argument
		// AncestorType is the parameter scope type a FieldAncestor refers to.
		AncestorType string
	}

	// ParamScope is the inheritable context type of a scope.
	ParamScope struct {
		// Type identifies the scope type; it defaults to the dotted scope path
		// qualified by the unit name ("app", "app.admin").
		Type   string
		Fields []*Field
	}
)

// String returns the kind name.
func (k FieldKind) String() string {
	if k == FieldAncestor {
		return "ancestor"
	}
	return "value"
}

// Ancestor returns the ancestor back-reference field, or nil.
func (p *ParamScope) Ancestor() *Field {
	for _, f := range p.Fields {
		if f.Kind == FieldAncestor {
			return f
		}
	}
	return nil
}

// ValueFields returns the ordinary fields in declaration order.
func (p *ParamScope) ValueFields() []*Field {
	var out []*Field
	for _, f := range p.Fields {
		if f.Kind == FieldValue {
			out = append(out, f)
		}
	}
	return out
}

// Field returns the named field, or nil.
func (p *ParamScope) Field(name string) *Field {
	for _, f := range p.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// QualifiedType builds the default parameter scope type for a scope path.
func QualifiedType(unit string, path []string) string {
	if len(path) == 0 {
		return unit
	}
	return unit + "." + strings.Join(path, ".")
}

// synthesize fills in the derived parts of the tree: scope paths, an empty
// parameter scope where none was declared, default scope types and the
// ancestor back-reference of every scope that has an enclosing context.
// User-declared fields are never rewritten; misuse is left for validation.
func synthesize(s *Scope, parent *Scope, unit string) {
	if parent == nil {
		s.Path = nil
	} else {
		s.Path = append(append([]string(nil), parent.Path...), s.Name)
	}
	if s.Params == nil {
		s.Params = &ParamScope{}
	}
	if s.Params.Type == "" {
		s.Params.Type = QualifiedType(unit, s.Path)
	}

	var ancestorType string
	switch {
	case parent != nil:
		ancestorType = parent.Params.Type
	case s.ExternalParent != "":
		ancestorType = s.ExternalParent
	}
	if ancestorType != "" && s.Params.Ancestor() == nil && s.Params.Field(AncestorFieldName) == nil {
		s.Params.Fields = append(s.Params.Fields, &Field{
			Name:         AncestorFieldName,
			Kind:         FieldAncestor,
			AncestorType: ancestorType,
		})
	}

	for _, c := range s.Children {
		synthesize(c, s, unit)
	}
}
