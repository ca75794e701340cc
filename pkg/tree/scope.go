// SPDX-License-Identifier: MPL-2.0

package tree

import "strings"

type (
	// Scope is a node of the command tree.
	Scope struct {
		// Name is the token selecting this scope; on a root it names the unit.
		Name string
		// Path holds the scope names from the root, empty for the root itself.
		Path       []string
		Help       string
		Params     *ParamScope
		Operations []*Operation
		Children   []*Scope
		Links      []*Link
		// ExternalParent, only meaningful on a root, declares the parameter
		// scope type of the scopes this unit may be linked from.
		ExternalParent string
	}

	// Link splices an independently compiled unit into a scope.
	Link struct {
		// Alias is the token under which the foreign tree appears here.
		Alias string
		// Target names the foreign unit.
		Target string
		Help   string
	}
)

// IsRoot reports whether the scope is the root of its unit.
func (s *Scope) IsRoot() bool { return len(s.Path) == 0 }

// IsLinkTarget reports whether the scope roots a unit meant to be linked.
func (s *Scope) IsLinkTarget() bool { return s.IsRoot() && s.ExternalParent != "" }

// DottedPath joins the path with sep; the root yields "".
func (s *Scope) DottedPath(sep string) string { return strings.Join(s.Path, sep) }

// DefaultOperation returns the scope's fallback operation, or nil.
func (s *Scope) DefaultOperation() *Operation {
	for _, o := range s.Operations {
		if o.Default {
			return o
		}
	}
	return nil
}

// Operation returns the named operation, or nil.
func (s *Scope) Operation(name string) *Operation {
	for _, o := range s.Operations {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// Child returns the named child scope, or nil.
func (s *Scope) Child(name string) *Scope {
	for _, c := range s.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Link returns the link with the given alias, or nil.
func (s *Scope) Link(alias string) *Link {
	for _, l := range s.Links {
		if l.Alias == alias {
			return l
		}
	}
	return nil
}

// Walk visits s and every descendant scope depth-first, parents first.
func (s *Scope) Walk(fn func(*Scope) error) error {
	if err := fn(s); err != nil {
		return err
	}
	for _, c := range s.Children {
		if err := c.Walk(fn); err != nil {
			return err
		}
	}
	return nil
}

// LinkTargets returns the distinct unit names linked anywhere in the tree,
// in first-seen order.
func (s *Scope) LinkTargets() []string {
	seen := make(map[string]bool)
	var out []string
	_ = s.Walk(func(sc *Scope) error {
		for _, l := range sc.Links {
			if !seen[l.Target] {
				seen[l.Target] = true
				out = append(out, l.Target)
			}
		}
		return nil
	})
	return out
}
