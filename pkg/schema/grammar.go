// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"fmt"
	"strings"

	"github.com/invowk/tusks/pkg/tree"
)

type (
	// Grammar is the compiled schema of one unit.
	Grammar struct {
		// Unit names the compiled unit.
		Unit string
		// ExternalParent is the parameter scope type the unit may be linked
		// from; empty for a standalone root.
		ExternalParent string
		Root           *ScopeNode
	}

	// ScopeNode is the grammar fragment of one scope.
	ScopeNode struct {
		Name string
		Path []string
		Help string
		// Type is the scope's parameter scope type.
		Type string
		// Fields declares the scope's parameter scope value fields.
		Fields []*ArgDecl
		// Alternatives lists operations, then child scopes, then links.
		Alternatives []Alternative
		// Default names the default operation, if any.
		Default string
		// AllowTrailing reports whether unmatched trailing tokens are accepted
		// and handed to the default operation.
		AllowTrailing bool
		// Scope is the tree node the fragment was compiled from.
		Scope *tree.Scope
	}

	// Alternative is one selectable choice of a scope. The set of
	// implementations is closed: *OperationAlt, *ScopeAlt and *LinkAlt.
	Alternative interface {
		// Token is the input token selecting the alternative.
		Token() string
		// Summary is the one-line help text.
		Summary() string
		alternative()
	}

	// OperationAlt selects an operation.
	OperationAlt struct {
		Op   *tree.Operation
		Args []*ArgDecl
	}

	// ScopeAlt descends into a child scope.
	ScopeAlt struct {
		Node *ScopeNode
	}

	// LinkAlt forwards to a foreign unit under an alias.
	LinkAlt struct {
		Alias  string
		Target string
		Help   string
		// Foreign is the linked unit's own grammar.
		Foreign *Grammar
	}

	// ArgDecl is the parser-facing declaration of one argument or field.
	ArgDecl struct {
		Name string
		// Short is the single-character alias, if any.
		Short string
		// Positional declarations take Slot-th positional token(s).
		Positional bool
		Slot       int
		Flag       bool
		Required   bool
		Multi      bool
		Min, Max   int // Max < 0 means unbounded
		Default    *string
		Enum       []string
		Hint       tree.ValueHint
		Hidden     bool
		Help       string
		TypeTag    string
		Arg        *tree.Argument
	}
)

func (*OperationAlt) alternative() {}
func (*ScopeAlt) alternative()     {}
func (*LinkAlt) alternative()      {}

// Token returns the operation name.
func (a *OperationAlt) Token() string { return a.Op.Name }

// Summary returns the operation help.
func (a *OperationAlt) Summary() string { return a.Op.Help }

// Token returns the child scope name.
func (a *ScopeAlt) Token() string { return a.Node.Name }

// Summary returns the child scope help.
func (a *ScopeAlt) Summary() string { return a.Node.Help }

// Token returns the link alias.
func (a *LinkAlt) Token() string { return a.Alias }

// Summary returns the link help, falling back to the target unit.
func (a *LinkAlt) Summary() string {
	if a.Help != "" {
		return a.Help
	}
	return "Commands from " + a.Target
}

// Find returns the alternative selected by token, or nil.
func (n *ScopeNode) Find(token string) Alternative {
	for _, alt := range n.Alternatives {
		if alt.Token() == token {
			return alt
		}
	}
	return nil
}

// Tokens returns the tokens of all alternatives in order.
func (n *ScopeNode) Tokens() []string {
	out := make([]string, len(n.Alternatives))
	for i, alt := range n.Alternatives {
		out[i] = alt.Token()
	}
	return out
}

// Field returns the named field declaration, or nil.
func (n *ScopeNode) Field(name string) *ArgDecl {
	for _, f := range n.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Lookup follows a path of tokens from the root. Link alternatives end the
// walk: tokens after an alias belong to the foreign grammar.
func (g *Grammar) Lookup(tokens ...string) (Alternative, error) {
	node := g.Root
	var alt Alternative
	for i, tok := range tokens {
		if node == nil {
			return nil, fmt.Errorf("%q does not select a scope", strings.Join(tokens[:i], " "))
		}
		alt = node.Find(tok)
		if alt == nil {
			return nil, NewUnknownCommandError(node, tok)
		}
		switch a := alt.(type) {
		case *ScopeAlt:
			node = a.Node
		case *OperationAlt, *LinkAlt:
			node = nil
		}
	}
	return alt, nil
}

// OperationPaths lists the token path of every operation reachable in this
// unit, following links into foreign grammars.
func (g *Grammar) OperationPaths() [][]string {
	var out [][]string
	var walk func(n *ScopeNode, prefix []string, seen map[*Grammar]bool)
	walk = func(n *ScopeNode, prefix []string, seen map[*Grammar]bool) {
		for _, alt := range n.Alternatives {
			p := append(append([]string(nil), prefix...), alt.Token())
			switch a := alt.(type) {
			case *OperationAlt:
				out = append(out, p)
			case *ScopeAlt:
				walk(a.Node, p, seen)
			case *LinkAlt:
				if a.Foreign != nil && !seen[a.Foreign] {
					seen[a.Foreign] = true
					walk(a.Foreign.Root, p, seen)
					delete(seen, a.Foreign)
				}
			}
		}
	}
	walk(g.Root, nil, map[*Grammar]bool{g: true})
	return out
}

// Usage builds the usage line of an operation: name, then positional
// placeholders ("<name>", "[name]", "<name>...").
func (a *OperationAlt) Usage() string {
	parts := []string{a.Op.Name}
	for _, d := range a.Args {
		if !d.Positional {
			continue
		}
		var s string
		if d.Required {
			s = "<" + d.Name + ">"
		} else {
			s = "[" + d.Name + "]"
		}
		if d.Multi {
			s += "..."
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, " ")
}
