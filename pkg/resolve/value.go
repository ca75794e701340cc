// SPDX-License-Identifier: MPL-2.0

package resolve

import "fmt"

type (
	// Raw is the parsed value-or-absence of one argument as delivered by the
	// command-line parser.
	Raw struct {
		// Set reports that the argument appeared in the input. For a flag this
		// is the whole value.
		Set bool
		// Values holds every supplied raw value in input order.
		Values []string
	}

	// Value is a resolved argument. An absent optional argument has
	// Present == false; a flag is always present with a bool V.
	Value struct {
		Present bool
		// V is the converted value; []any for multi-valued arguments.
		V any
	}

	// Named pairs a resolved value with its argument name.
	Named struct {
		Name  string
		Value Value
	}

	// Arguments is the ordered list of resolved arguments of one invocation.
	Arguments []Named
)

// Supplied returns a Raw carrying the given values.
func Supplied(values ...string) Raw {
	return Raw{Set: true, Values: values}
}

// Present returns a Raw for a flag that appeared in the input.
func Present() Raw {
	return Raw{Set: true}
}

// Some wraps v as a present value.
func Some(v any) Value { return Value{Present: true, V: v} }

// None is the absent value.
func None() Value { return Value{} }

// String formats the value; absent values format as "".
func (v Value) String() string {
	if !v.Present {
		return ""
	}
	if list, ok := v.V.([]any); ok {
		out := ""
		for i, item := range list {
			if i > 0 {
				out += " "
			}
			out += fmt.Sprint(item)
		}
		return out
	}
	return fmt.Sprint(v.V)
}

// Strings formats a multi-valued value item by item.
func (v Value) Strings() []string {
	if !v.Present {
		return nil
	}
	list, ok := v.V.([]any)
	if !ok {
		return []string{fmt.Sprint(v.V)}
	}
	out := make([]string, len(list))
	for i, item := range list {
		out[i] = fmt.Sprint(item)
	}
	return out
}

// As returns the value converted to T when present and of that type.
func As[T any](v Value) (T, bool) {
	var zero T
	if !v.Present {
		return zero, false
	}
	t, ok := v.V.(T)
	return t, ok
}

// Get returns the named value.
func (a Arguments) Get(name string) (Value, bool) {
	for _, n := range a {
		if n.Name == name {
			return n.Value, true
		}
	}
	return Value{}, false
}

// Values returns the resolved values in declaration order.
func (a Arguments) Values() []Value {
	out := make([]Value, len(a))
	for i, n := range a {
		out[i] = n.Value
	}
	return out
}
