// SPDX-License-Identifier: MPL-2.0

package schema

import "github.com/invowk/tusks/pkg/resolve"

type (
	// Selection is a parsed path through one scope: the values of its
	// parameter scope fields and the choice made among its alternatives.
	Selection struct {
		Fields map[string]resolve.Raw
		Choice Choice
	}

	// Choice is the closed set of outcomes at one scope: *OperationChoice,
	// *ScopeChoice, *LinkChoice or *NoChoice.
	Choice interface {
		choice()
	}

	// OperationChoice selects an operation with its parsed arguments.
	OperationChoice struct {
		Name string
		Args map[string]resolve.Raw
	}

	// ScopeChoice descends into a child scope.
	ScopeChoice struct {
		Name string
		Sub  *Selection
	}

	// LinkChoice forwards the remaining, unparsed tokens to a linked unit.
	LinkChoice struct {
		Alias string
		Rest  []string
	}

	// NoChoice stops at the scope itself. Rest carries trailing tokens when
	// the scope permits them.
	NoChoice struct {
		Rest []string
	}

	// SelectionBuilder assembles a Selection fluently, mostly for callers
	// that dispatch without a command-line parser.
	SelectionBuilder struct {
		root *Selection
		cur  *Selection
		op   *OperationChoice
	}
)

func (*OperationChoice) choice() {}
func (*ScopeChoice) choice()     {}
func (*LinkChoice) choice()      {}
func (*NoChoice) choice()        {}

// NewSelection starts a selection at the root scope.
func NewSelection() *SelectionBuilder {
	root := &Selection{Fields: map[string]resolve.Raw{}}
	return &SelectionBuilder{root: root, cur: root}
}

// Field supplies values for a field of the current scope.
func (b *SelectionBuilder) Field(name string, values ...string) *SelectionBuilder {
	b.cur.Fields[name] = resolve.Supplied(values...)
	return b
}

// FieldFlag marks a flag field of the current scope as present.
func (b *SelectionBuilder) FieldFlag(name string) *SelectionBuilder {
	b.cur.Fields[name] = resolve.Present()
	return b
}

// Scope descends into a child scope.
func (b *SelectionBuilder) Scope(name string) *SelectionBuilder {
	sub := &Selection{Fields: map[string]resolve.Raw{}}
	b.cur.Choice = &ScopeChoice{Name: name, Sub: sub}
	b.cur = sub
	b.op = nil
	return b
}

// Op selects an operation of the current scope.
func (b *SelectionBuilder) Op(name string) *SelectionBuilder {
	b.op = &OperationChoice{Name: name, Args: map[string]resolve.Raw{}}
	b.cur.Choice = b.op
	return b
}

// Arg supplies values for an argument of the selected operation.
func (b *SelectionBuilder) Arg(name string, values ...string) *SelectionBuilder {
	if b.op != nil {
		b.op.Args[name] = resolve.Supplied(values...)
	}
	return b
}

// ArgFlag marks a flag argument of the selected operation as present.
func (b *SelectionBuilder) ArgFlag(name string) *SelectionBuilder {
	if b.op != nil {
		b.op.Args[name] = resolve.Present()
	}
	return b
}

// Link forwards rest to the linked unit under alias.
func (b *SelectionBuilder) Link(alias string, rest ...string) *SelectionBuilder {
	b.cur.Choice = &LinkChoice{Alias: alias, Rest: rest}
	return b
}

// Rest ends at the current scope with trailing tokens.
func (b *SelectionBuilder) Rest(rest ...string) *SelectionBuilder {
	b.cur.Choice = &NoChoice{Rest: rest}
	return b
}

// Build returns the assembled selection. Scopes left without a choice end
// in NoChoice.
func (b *SelectionBuilder) Build() *Selection {
	for s := b.root; s != nil; {
		if s.Choice == nil {
			s.Choice = &NoChoice{}
			break
		}
		sc, ok := s.Choice.(*ScopeChoice)
		if !ok {
			break
		}
		s = sc.Sub
	}
	return b.root
}

// Tokens renders the selection path as the tokens that selected it.
func (s *Selection) Tokens() []string {
	var out []string
	for cur := s; cur != nil; {
		var next *Selection
		switch c := cur.Choice.(type) {
		case *ScopeChoice:
			out = append(out, c.Name)
			next = c.Sub
		case *OperationChoice:
			out = append(out, c.Name)
		case *LinkChoice:
			out = append(out, c.Alias)
		}
		cur = next
	}
	return out
}
