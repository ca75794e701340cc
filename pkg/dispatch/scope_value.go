// SPDX-License-Identifier: MPL-2.0

package dispatch

import "github.com/invowk/tusks/pkg/resolve"

// ScopeValue is the materialized parameter scope of one scope for a single
// dispatch. It is never mutated after construction.
type ScopeValue struct {
	// Type is the parameter scope type.
	Type string
	// Unit names the unit whose scope produced the value.
	Unit string
	// Path is the scope path within Unit.
	Path []string
	// Fields holds the resolved value fields in declaration order.
	Fields resolve.Arguments
	// Parent is the ancestor back-reference: the parent scope's value, or
	// for a linked unit's root, the value of the scope holding the link.
	// It is nil only for a tree root.
	Parent *ScopeValue
}

// Field returns a value field of this scope only.
func (s *ScopeValue) Field(name string) (resolve.Value, bool) {
	return s.Fields.Get(name)
}

// Lookup searches this scope and then its ancestors for a field.
func (s *ScopeValue) Lookup(name string) (resolve.Value, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if v, ok := cur.Fields.Get(name); ok {
			return v, true
		}
	}
	return resolve.Value{}, false
}

// Ancestor walks up to the nearest scope value of the given type.
func (s *ScopeValue) Ancestor(scopeType string) *ScopeValue {
	for cur := s; cur != nil; cur = cur.Parent {
		if cur.Type == scopeType {
			return cur
		}
	}
	return nil
}

// Chain returns s followed by all its ancestors, nearest first.
func (s *ScopeValue) Chain() []*ScopeValue {
	var out []*ScopeValue
	for cur := s; cur != nil; cur = cur.Parent {
		out = append(out, cur)
	}
	return out
}

// IsRoot reports whether s has no ancestor.
func (s *ScopeValue) IsRoot() bool { return s.Parent == nil }
