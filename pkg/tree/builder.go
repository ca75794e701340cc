// SPDX-License-Identifier: MPL-2.0

package tree

type (
	// ArgBuilder assembles an Argument with a fluent API.
	ArgBuilder struct {
		arg Argument
	}

	// OpBuilder assembles an Operation.
	OpBuilder struct {
		op   Operation
		args []*ArgBuilder
	}

	// ScopeBuilder assembles a Scope and, from the root, the whole tree.
	ScopeBuilder struct {
		name           string
		help           string
		scopeType      string
		externalParent string
		fields         []*Field
		ops            []*OpBuilder
		children       []*ScopeBuilder
		links          []*Link
	}
)

// Arg starts an argument descriptor.
func Arg(name string) *ArgBuilder {
	return &ArgBuilder{arg: Argument{Name: name}}
}

// Type sets the type tag.
func (b *ArgBuilder) Type(t string) *ArgBuilder { b.arg.Type = t; return b }

// Flag marks the argument as a boolean presence flag.
func (b *ArgBuilder) Flag() *ArgBuilder { b.arg.Flag = true; return b }

// Optional makes absence acceptable.
func (b *ArgBuilder) Optional() *ArgBuilder { b.arg.Optional = true; return b }

// Default sets the raw default value.
func (b *ArgBuilder) Default(v string) *ArgBuilder { b.arg.Default = &v; return b }

// Positional sources the value from positional tokens.
func (b *ArgBuilder) Positional() *ArgBuilder { b.arg.Positional = true; return b }

// Count sets the multiplicity.
func (b *ArgBuilder) Count(m *Multiplicity) *ArgBuilder { b.arg.Multiplicity = m; return b }

// Short sets the single-character alias.
func (b *ArgBuilder) Short(s string) *ArgBuilder { b.arg.Short = s; return b }

// Help sets the usage text.
func (b *ArgBuilder) Help(h string) *ArgBuilder { b.arg.Help = h; return b }

// Hidden hides the argument from usage output.
func (b *ArgBuilder) Hidden() *ArgBuilder { b.arg.Hidden = true; return b }

// Hint sets the completion hint.
func (b *ArgBuilder) Hint(h ValueHint) *ArgBuilder { b.arg.ValueHint = h; return b }

// Enum restricts the accepted raw values.
func (b *ArgBuilder) Enum(values ...string) *ArgBuilder { b.arg.Enum = values; return b }

// Validator sets the validator reference.
func (b *ArgBuilder) Validator(ref string) *ArgBuilder { b.arg.Validator = ref; return b }

// Argument returns a copy of the assembled descriptor.
func (b *ArgBuilder) Argument() *Argument { return b.arg.Clone() }

// NewOp starts an operation descriptor.
func NewOp(name string) *OpBuilder {
	return &OpBuilder{op: Operation{Name: name}}
}

// Args appends arguments in order.
func (b *OpBuilder) Args(args ...*ArgBuilder) *OpBuilder { b.args = append(b.args, args...); return b }

// Help sets the usage text.
func (b *OpBuilder) Help(h string) *OpBuilder { b.op.Help = h; return b }

// Default marks the operation as the scope's fallback.
func (b *OpBuilder) Default() *OpBuilder { b.op.Default = true; return b }

// Trailing lets the default operation receive unmatched trailing tokens.
func (b *OpBuilder) Trailing() *OpBuilder { b.op.Trailing = true; return b }

// WantsScope requests the enclosing parameter scope value.
func (b *OpBuilder) WantsScope() *OpBuilder { b.op.WantsScope = true; return b }

// ScopeType requests a parameter scope of the named type.
func (b *OpBuilder) ScopeType(t string) *OpBuilder { b.op.ScopeType = t; return b }

// Script attaches a shell body.
func (b *OpBuilder) Script(s string) *OpBuilder { b.op.Script = s; return b }

// Hidden hides the operation from usage output.
func (b *OpBuilder) Hidden() *OpBuilder { b.op.Hidden = true; return b }

func (b *OpBuilder) build() *Operation {
	op := b.op
	op.Args = make([]*Argument, 0, len(b.args))
	for _, a := range b.args {
		op.Args = append(op.Args, a.Argument())
	}
	return &op
}

// NewScope starts a scope. Used as the root, name identifies the unit.
func NewScope(name string) *ScopeBuilder {
	return &ScopeBuilder{name: name}
}

// Help sets the usage text.
func (b *ScopeBuilder) Help(h string) *ScopeBuilder { b.help = h; return b }

// ScopeType overrides the default parameter scope type name.
func (b *ScopeBuilder) ScopeType(t string) *ScopeBuilder { b.scopeType = t; return b }

// Parent declares the external parent type of a linkable unit root.
func (b *ScopeBuilder) Parent(t string) *ScopeBuilder { b.externalParent = t; return b }

// Field appends parameter scope value fields.
func (b *ScopeBuilder) Field(args ...*ArgBuilder) *ScopeBuilder {
	for _, a := range args {
		b.fields = append(b.fields, &Field{Name: a.arg.Name, Kind: FieldValue, Arg: a.Argument()})
	}
	return b
}

// AncestorField declares the ancestor back-reference explicitly. It is
// normally synthesized; declaring it lets a caller pin its type.
func (b *ScopeBuilder) AncestorField(name, ancestorType string) *ScopeBuilder {
	b.fields = append(b.fields, &Field{Name: name, Kind: FieldAncestor, AncestorType: ancestorType})
	return b
}

// Op appends operations.
func (b *ScopeBuilder) Op(ops ...*OpBuilder) *ScopeBuilder { b.ops = append(b.ops, ops...); return b }

// Child appends child scopes.
func (b *ScopeBuilder) Child(children ...*ScopeBuilder) *ScopeBuilder {
	b.children = append(b.children, children...)
	return b
}

// Link splices the unit named target under alias.
func (b *ScopeBuilder) Link(alias, target string) *ScopeBuilder {
	b.links = append(b.links, &Link{Alias: alias, Target: target})
	return b
}

func (b *ScopeBuilder) assemble() *Scope {
	s := &Scope{
		Name:           b.name,
		Help:           b.help,
		ExternalParent: b.externalParent,
	}
	if b.scopeType != "" || len(b.fields) > 0 {
		s.Params = &ParamScope{Type: b.scopeType}
		for _, f := range b.fields {
			cp := *f
			if f.Arg != nil {
				cp.Arg = f.Arg.Clone()
			}
			s.Params.Fields = append(s.Params.Fields, &cp)
		}
	}
	for _, o := range b.ops {
		s.Operations = append(s.Operations, o.build())
	}
	for _, c := range b.children {
		s.Children = append(s.Children, c.assemble())
	}
	for _, l := range b.links {
		cp := *l
		s.Links = append(s.Links, &cp)
	}
	return s
}

// Build assembles the tree rooted at b, synthesizes derived structure and
// validates it. The returned error is a ValidationErrors value wrapping
// ErrInvalidTree.
func (b *ScopeBuilder) Build() (*Scope, error) {
	return Finalize(b.assemble())
}

// Finalize normalizes and validates a tree assembled by hand or decoded from
// a declaration file. root is modified in place.
func Finalize(root *Scope) (*Scope, error) {
	synthesize(root, nil, root.Name)
	if errs := Validate(root); len(errs) > 0 {
		return nil, errs
	}
	return root, nil
}
