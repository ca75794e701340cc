// SPDX-License-Identifier: MPL-2.0

package tree

// Operation is a named unit of work inside a scope.
//
// Args is an ordered mapping from argument name to descriptor: the order
// decides positional slot assignment and the order in which resolved values
// reach the handler.
type Operation struct {
	Name string
	Help string
	Args []*Argument
	// Default marks the fallback operation invoked when its scope is
	// selected without a deeper selection. At most one per scope.
	Default bool
	// Trailing lets a default operation receive unmatched trailing tokens.
	Trailing bool
	// WantsScope requests the nearest enclosing parameter scope value as
	// the handler's first input.
	WantsScope bool
	// ScopeType, when set, names the parameter scope type the operation
	// expects. It must match the enclosing scope and implies WantsScope.
	ScopeType string
	// Script is an optional shell body bound by the CLI.
	Script string
	Hidden bool
}

// Arg returns the named argument, or nil.
func (o *Operation) Arg(name string) *Argument {
	for _, a := range o.Args {
		if a.Name == name {
			return a
		}
	}
	return nil
}

// Positionals returns the positional arguments in declaration order.
func (o *Operation) Positionals() []*Argument {
	var out []*Argument
	for _, a := range o.Args {
		if a.Positional && !a.Flag {
			out = append(out, a)
		}
	}
	return out
}

// ReceivesScope reports whether the handler gets the scope value.
func (o *Operation) ReceivesScope() bool {
	return o.WantsScope || o.ScopeType != ""
}
