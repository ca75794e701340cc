// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"fmt"

	"github.com/invowk/tusks/pkg/tree"
)

type (
	// LinkResolver hands out the already-compiled grammar of a foreign unit.
	LinkResolver interface {
		Grammar(unit string) (*Grammar, error)
	}

	// LinkResolverFunc adapts a function to LinkResolver.
	LinkResolverFunc func(unit string) (*Grammar, error)

	// namespace tracks the option names visible at one point of the tree.
	// Scope fields become inherited options, so a name may be declared once
	// along any root-to-leaf path.
	namespace struct {
		longs  map[string]string
		shorts map[string]string
	}

	compiler struct {
		unit  string
		links LinkResolver
		errs  tree.ValidationErrors
	}
)

// Grammar implements LinkResolver.
func (f LinkResolverFunc) Grammar(unit string) (*Grammar, error) { return f(unit) }

// Compile turns a finalized tree into its grammar. links may be nil when
// the tree declares no links. All problems are reported together, wrapped
// in ErrSchemaBuild; no partial grammar is returned.
func Compile(root *tree.Scope, links LinkResolver) (*Grammar, error) {
	if verrs := tree.Validate(root); len(verrs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrSchemaBuild, verrs)
	}

	c := &compiler{unit: root.Name, links: links}
	node := c.scope(root, newNamespace())
	if len(c.errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrSchemaBuild, c.errs)
	}
	return &Grammar{
		Unit:           root.Name,
		ExternalParent: root.ExternalParent,
		Root:           node,
	}, nil
}

func newNamespace() *namespace {
	return &namespace{longs: map[string]string{}, shorts: map[string]string{}}
}

func (ns *namespace) clone() *namespace {
	c := newNamespace()
	for k, v := range ns.longs {
		c.longs[k] = v
	}
	for k, v := range ns.shorts {
		c.shorts[k] = v
	}
	return c
}

// claim registers an option, returning a description of the previous owner
// on conflict.
func (ns *namespace) claim(d *ArgDecl, owner string) (string, bool) {
	if prev, ok := ns.longs[d.Name]; ok {
		return fmt.Sprintf("option --%s is already declared by %s", d.Name, prev), false
	}
	if d.Short != "" {
		if prev, ok := ns.shorts[d.Short]; ok {
			return fmt.Sprintf("short option -%s is already declared by %s", d.Short, prev), false
		}
		ns.shorts[d.Short] = owner
	}
	ns.longs[d.Name] = owner
	return "", true
}

func (c *compiler) fail(p *tree.FieldPath, format string, args ...any) {
	c.errs = append(c.errs, tree.ValidationError{Field: p.String(), Message: fmt.Sprintf(format, args...)})
}

func (c *compiler) scope(s *tree.Scope, inherited *namespace) *ScopeNode {
	path := tree.ForScope(s)
	node := &ScopeNode{
		Name:  s.Name,
		Path:  s.Path,
		Help:  s.Help,
		Type:  s.Params.Type,
		Scope: s,
	}

	ns := inherited.clone()
	owner := "scope '" + s.Params.Type + "'"
	for _, f := range s.Params.ValueFields() {
		d := declare(f.Arg, 0)
		if msg, ok := ns.claim(d, owner); !ok {
			c.fail(path.Copy().Field(f.Name), "%s", msg)
		}
		node.Fields = append(node.Fields, d)
	}

	for _, op := range s.Operations {
		node.Alternatives = append(node.Alternatives, c.operation(op, ns, path.Copy().Operation(op.Name)))
		if op.Default {
			node.Default = op.Name
			node.AllowTrailing = op.Trailing
		}
	}
	for _, child := range s.Children {
		node.Alternatives = append(node.Alternatives, &ScopeAlt{Node: c.scope(child, ns)})
	}
	for _, l := range s.Links {
		if alt := c.link(s, l, path.Copy().Link(l.Alias)); alt != nil {
			node.Alternatives = append(node.Alternatives, alt)
		}
	}
	return node
}

func (c *compiler) operation(op *tree.Operation, inherited *namespace, path *tree.FieldPath) *OperationAlt {
	alt := &OperationAlt{Op: op}
	ns := inherited.clone()
	slot := 0
	for _, a := range op.Args {
		d := declare(a, slot)
		if d.Positional {
			slot++
		} else if msg, ok := ns.claim(d, "operation '"+op.Name+"'"); !ok {
			c.fail(path.Copy().Argument(a.Name), "%s", msg)
		}
		alt.Args = append(alt.Args, d)
	}
	return alt
}

func (c *compiler) link(s *tree.Scope, l *tree.Link, path *tree.FieldPath) *LinkAlt {
	if c.links == nil {
		c.fail(path, "cannot resolve unit %q: no link resolver configured", l.Target)
		return nil
	}
	foreign, err := c.links.Grammar(l.Target)
	if err != nil {
		c.fail(path, "cannot resolve unit %q: %v", l.Target, err)
		return nil
	}
	if foreign == nil {
		c.fail(path, "cannot resolve unit %q", l.Target)
		return nil
	}
	switch {
	case foreign.ExternalParent == "":
		c.fail(path, "unit %q does not declare an external parent and cannot be linked", l.Target)
		return nil
	case foreign.ExternalParent != s.Params.Type:
		c.fail(path, "unit %q expects to be linked from scope type %q, but this scope is %q",
			l.Target, foreign.ExternalParent, s.Params.Type)
		return nil
	}
	return &LinkAlt{Alias: l.Alias, Target: l.Target, Help: l.Help, Foreign: foreign}
}

// declare maps an argument descriptor onto its parser declaration.
func declare(a *tree.Argument, slot int) *ArgDecl {
	d := &ArgDecl{
		Name:       a.Name,
		Short:      a.Short,
		Positional: a.Positional && !a.Flag,
		Flag:       a.Flag,
		Required:   a.IsRequired(),
		Multi:      a.IsMulti(),
		Min:        0,
		Max:        1,
		Default:    a.Default,
		Enum:       a.Enum,
		Hint:       a.ValueHint,
		Hidden:     a.Hidden,
		Help:       a.Help,
		TypeTag:    a.TypeTag(),
		Arg:        a,
	}
	if d.Positional {
		d.Slot = slot
	}
	if d.Required {
		d.Min = 1
	}
	if m := a.Multiplicity; m != nil && !a.Flag {
		d.Max = -1
		if m.Min != nil {
			d.Min = *m.Min
		}
		if m.Max != nil {
			d.Max = *m.Max
		}
	}
	return d
}
