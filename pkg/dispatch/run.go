// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/invowk/tusks/pkg/resolve"
	"github.com/invowk/tusks/pkg/schema"
)

type dispatchIDKey struct{}

// ContextWithID attaches a dispatch correlation id to ctx.
func ContextWithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, dispatchIDKey{}, id)
}

// IDFromContext returns the dispatch correlation id carried by ctx.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(dispatchIDKey{}).(string)
	return id, ok
}

// Dispatch routes a parsed selection of a standalone unit.
func (d *Dispatcher) Dispatch(ctx context.Context, sel *schema.Selection) (Result, error) {
	return d.DispatchFrom(ctx, sel, nil)
}

// DispatchFrom routes a parsed selection whose root scope value hangs off
// ancestor. ancestor must be nil for a tree root and must match the unit's
// external parent type for a link target.
func (d *Dispatcher) DispatchFrom(ctx context.Context, sel *schema.Selection, ancestor *ScopeValue) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := d.checkAncestor(ancestor); err != nil {
		return Result{}, err
	}

	id, ok := IDFromContext(ctx)
	if !ok {
		id = uuid.NewString()
		ctx = ContextWithID(ctx, id)
	}
	slog.Debug("dispatching", "dispatch_id", id, "unit", d.Unit(), "path", strings.Join(sel.Tokens(), " "))

	r := &run{d: d, id: id}
	return r.scope(ctx, d.root, sel, ancestor)
}

func (d *Dispatcher) checkAncestor(ancestor *ScopeValue) error {
	want := d.grammar.ExternalParent
	switch {
	case want == "" && ancestor != nil:
		return fmt.Errorf("%w: unit %q is a tree root and cannot be entered through a link", ErrAncestorMismatch, d.Unit())
	case want != "" && ancestor == nil:
		return fmt.Errorf("%w: unit %q must be entered through a link from scope type %q", ErrAncestorMismatch, d.Unit(), want)
	case ancestor != nil && ancestor.Type != want:
		return fmt.Errorf("%w: unit %q expects an ancestor of type %q, got %q", ErrAncestorMismatch, d.Unit(), want, ancestor.Type)
	}
	return nil
}

// run carries the state of one dispatch call.
type run struct {
	d  *Dispatcher
	id string
}

func (r *run) scope(ctx context.Context, p *scopeProg, sel *schema.Selection, parent *ScopeValue) (Result, error) {
	value, err := r.materialize(p, sel.Fields, parent)
	if err != nil {
		return Result{}, err
	}

	switch c := sel.Choice.(type) {
	case *schema.OperationChoice:
		op, ok := p.ops[c.Name]
		if !ok {
			return Result{}, schema.NewUnknownCommandError(p.node, c.Name)
		}
		return r.invoke(ctx, op, value, c.Args, nil)

	case *schema.ScopeChoice:
		child, ok := p.children[c.Name]
		if !ok {
			return Result{}, schema.NewUnknownCommandError(p.node, c.Name)
		}
		sub := c.Sub
		if sub == nil {
			sub = &schema.Selection{Choice: &schema.NoChoice{}}
		}
		return r.scope(ctx, child, sub, value)

	case *schema.LinkChoice:
		link, ok := p.links[c.Alias]
		if !ok {
			return Result{}, schema.NewUnknownCommandError(p.node, c.Alias)
		}
		if r.d.forwarder == nil {
			return Result{}, ErrNoForwarder
		}
		slog.Debug("forwarding to linked unit", "dispatch_id", r.id, "alias", c.Alias, "unit", link.Target, "rest", c.Rest)
		return r.d.forwarder.Forward(ctx, link.Target, c.Rest, value)

	case *schema.NoChoice, nil:
		var rest []string
		if nc, ok := c.(*schema.NoChoice); ok {
			rest = nc.Rest
		}
		if len(rest) > 0 && !p.node.AllowTrailing {
			return Result{}, schema.NewUnknownCommandError(p.node, rest[0])
		}
		if p.def == nil {
			slog.Debug("nothing matched", "dispatch_id", r.id, "unit", r.d.Unit(), "scope", strings.Join(p.node.Path, " "))
			return NothingMatched(slices.Clone(p.node.Path)), nil
		}
		return r.invoke(ctx, p.def, value, nil, rest)

	default:
		return Result{}, fmt.Errorf("unsupported choice %T", c)
	}
}

// materialize resolves the value fields of one scope and links the result
// to parent.
func (r *run) materialize(p *scopeProg, raws map[string]resolve.Raw, parent *ScopeValue) (*ScopeValue, error) {
	for name := range raws {
		if p.node.Field(name) == nil {
			return nil, fmt.Errorf("%w: scope %q has no field %q", ErrUnknownArgument, p.node.Type, name)
		}
	}
	value := &ScopeValue{
		Type:   p.node.Type,
		Unit:   r.d.Unit(),
		Path:   p.node.Path,
		Parent: parent,
	}
	for i, f := range p.node.Fields {
		v, err := p.fields[i].Resolve(raws[f.Name])
		if err != nil {
			return nil, err
		}
		value.Fields = append(value.Fields, resolve.Named{Name: f.Name, Value: v})
	}
	return value, nil
}

func (r *run) invoke(ctx context.Context, op *opProg, scope *ScopeValue, raws map[string]resolve.Raw, rest []string) (Result, error) {
	for name := range raws {
		if op.op.Arg(name) == nil {
			return Result{}, fmt.Errorf("%w: operation %q has no argument %q", ErrUnknownArgument, PathKey(op.path...), name)
		}
	}
	inv := &Invocation{
		ID:        r.id,
		Unit:      r.d.Unit(),
		Path:      op.path,
		Operation: op.op,
		Rest:      rest,
	}
	if op.op.ReceivesScope() {
		inv.Scope = scope
	}
	for _, plan := range op.args {
		a := plan.Argument()
		v, err := plan.Resolve(raws[a.Name])
		if err != nil {
			return Result{}, err
		}
		inv.Args = append(inv.Args, resolve.Named{Name: a.Name, Value: v})
	}

	start := time.Now()
	res, err := op.handler.Handle(ctx, inv)
	if err == nil {
		err = res.validate()
	}
	if err != nil {
		err = &HandlerError{Unit: r.d.Unit(), Path: op.path, Err: err}
	}
	ev := Event{ID: r.id, Unit: r.d.Unit(), Path: op.path, Result: res, Err: err, Duration: time.Since(start)}
	for _, obs := range r.d.observers {
		obs.Observe(ev)
	}
	slog.Debug("operation finished", "dispatch_id", r.id, "unit", ev.Unit, "operation", PathKey(op.path...), "result", res.String(), "duration", ev.Duration)
	if err != nil {
		return Result{}, err
	}
	return res, nil
}
