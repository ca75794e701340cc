// SPDX-License-Identifier: MPL-2.0

package resolve

import (
	"fmt"
	"slices"

	"github.com/invowk/tusks/pkg/tree"
)

type (
	// Resolver binds argument descriptors to converters and validators.
	Resolver struct {
		converters map[string]Converter
		validators map[string]ValidatorFunc
	}

	// Option configures a Resolver.
	Option func(*Resolver)

	// Plan is the prepared resolution routine of one argument.
	Plan struct {
		arg      *tree.Argument
		convert  Converter
		validate ValidatorFunc
	}
)

// WithConverter registers or overrides the converter of a type tag.
func WithConverter(typeTag string, fn Converter) Option {
	return func(r *Resolver) { r.converters[typeTag] = fn }
}

// WithValidator registers a named validator.
func WithValidator(name string, fn ValidatorFunc) Option {
	return func(r *Resolver) { r.validators[name] = fn }
}

// New creates a Resolver with the default converters.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		converters: DefaultConverters(),
		validators: make(map[string]ValidatorFunc),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Prepare binds an argument's converter and validator. It fails when the
// validator reference cannot be bound or the default value does not
// convert, so such trees are rejected before any dispatch.
func (r *Resolver) Prepare(a *tree.Argument) (*Plan, error) {
	p := &Plan{arg: a}
	if a.Flag {
		return p, nil
	}
	if c, ok := r.converters[a.TypeTag()]; ok {
		p.convert = c
	} else {
		p.convert = func(raw string) (any, error) { return raw, nil }
	}
	if a.Validator != "" {
		fn, err := bindValidator(a.Validator, r.validators)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", a.Name, err)
		}
		p.validate = fn
	}
	if a.Default != nil {
		if _, err := p.convert(*a.Default); err != nil {
			return nil, fmt.Errorf("argument %q: default %q is not a valid %s: %w", a.Name, *a.Default, a.TypeTag(), err)
		}
	}
	return p, nil
}

// Argument returns the descriptor the plan was prepared for.
func (p *Plan) Argument() *tree.Argument { return p.arg }

// Resolve applies the resolution policy to one parsed value-or-absence.
func (p *Plan) Resolve(raw Raw) (Value, error) {
	a := p.arg
	if a.Flag {
		return Some(raw.Set), nil
	}

	if raw.Set && len(raw.Values) > 0 {
		if err := CheckMultiplicity(a, len(raw.Values)); err != nil {
			return Value{}, err
		}
		return p.values(raw.Values)
	}

	if a.Default != nil {
		return p.values([]string{*a.Default})
	}
	if a.Optional {
		return None(), nil
	}
	return Value{}, &Error{Kind: KindRequiredMissing, Argument: a.Name}
}

func (p *Plan) values(raws []string) (Value, error) {
	converted := make([]any, 0, len(raws))
	for _, raw := range raws {
		v, err := p.one(raw)
		if err != nil {
			return Value{}, err
		}
		converted = append(converted, v)
	}
	if p.arg.IsMulti() {
		return Some(converted), nil
	}
	return Some(converted[0]), nil
}

func (p *Plan) one(raw string) (any, error) {
	a := p.arg
	if len(a.Enum) > 0 && !slices.Contains(a.Enum, raw) {
		return nil, &Error{Kind: KindEnumNotAllowed, Argument: a.Name, Value: raw, Allowed: a.Enum}
	}
	v, err := p.convert(raw)
	if err != nil {
		return nil, &Error{Kind: KindConversion, Argument: a.Name, Value: raw, Type: a.TypeTag(), Cause: err}
	}
	if p.validate != nil {
		if err := p.validate(v); err != nil {
			return nil, &Error{Kind: KindValidator, Argument: a.Name, Value: raw, Cause: err}
		}
	}
	return v, nil
}

// CheckMultiplicity reports a multiplicity violation for n supplied values.
// Single-valued arguments accept exactly one value.
func CheckMultiplicity(a *tree.Argument, n int) error {
	if a.Flag || n == 0 {
		return nil
	}
	m := a.Multiplicity
	if m.Allows(n) {
		return nil
	}
	bounds := "exactly 1"
	if m != nil {
		bounds = m.String()
	}
	return &Error{Kind: KindMultiplicity, Argument: a.Name, Count: n, Bounds: bounds}
}
