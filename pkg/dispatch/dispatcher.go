// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/invowk/tusks/pkg/resolve"
	"github.com/invowk/tusks/pkg/schema"
	"github.com/invowk/tusks/pkg/tree"
)

type (
	// Handler runs one operation.
	Handler interface {
		Handle(ctx context.Context, inv *Invocation) (Result, error)
	}

	// HandlerFunc adapts a function to Handler.
	HandlerFunc func(ctx context.Context, inv *Invocation) (Result, error)

	// HandlerFactory supplies a handler for operations without an explicitly
	// registered one, e.g. by binding an operation's script. It returns
	// false when it cannot serve op.
	HandlerFactory func(path []string, op *tree.Operation) (Handler, bool)

	// Forwarder re-enters a linked unit with the tokens following the link
	// alias and the current scope value as the foreign root's ancestor.
	Forwarder interface {
		Forward(ctx context.Context, unit string, rest []string, ancestor *ScopeValue) (Result, error)
	}

	// ForwarderFunc adapts a function to Forwarder.
	ForwarderFunc func(ctx context.Context, unit string, rest []string, ancestor *ScopeValue) (Result, error)

	// Observer is notified once per invoked operation.
	Observer interface {
		Observe(ev Event)
	}

	// Event describes one finished operation invocation.
	Event struct {
		ID       string
		Unit     string
		Path     []string
		Result   Result
		Err      error
		Duration time.Duration
	}

	// Invocation is what a handler receives.
	Invocation struct {
		// ID is the dispatch correlation id, shared across forwarded units.
		ID        string
		Unit      string
		Path      []string
		Operation *tree.Operation
		// Scope is the nearest enclosing parameter scope value; set only when
		// the operation asked for it.
		Scope *ScopeValue
		// Args holds the resolved arguments in declaration order.
		Args resolve.Arguments
		// Rest carries trailing tokens handed to a default operation.
		Rest []string
	}

	// Option configures Compile.
	Option func(*options)

	options struct {
		resolver  *resolve.Resolver
		handlers  map[string]Handler
		factory   HandlerFactory
		forwarder Forwarder
		observers []Observer
	}

	// Dispatcher is the compiled dispatch routine of one unit.
	Dispatcher struct {
		grammar   *schema.Grammar
		root      *scopeProg
		forwarder Forwarder
		observers []Observer
	}

	scopeProg struct {
		node     *schema.ScopeNode
		fields   []*resolve.Plan
		ops      map[string]*opProg
		children map[string]*scopeProg
		links    map[string]*schema.LinkAlt
		def      *opProg
	}

	opProg struct {
		path    []string
		op      *tree.Operation
		args    []*resolve.Plan
		handler Handler
	}
)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx context.Context, inv *Invocation) (Result, error) { return f(ctx, inv) }

// Forward implements Forwarder.
func (f ForwarderFunc) Forward(ctx context.Context, unit string, rest []string, ancestor *ScopeValue) (Result, error) {
	return f(ctx, unit, rest, ancestor)
}

// Arg returns a resolved argument by name.
func (inv *Invocation) Arg(name string) resolve.Value {
	v, _ := inv.Args.Get(name)
	return v
}

// PathKey joins an operation path the way handlers are registered.
func PathKey(path ...string) string { return strings.Join(path, " ") }

// WithResolver sets the argument resolver. The default has the built-in
// converters and no named validators.
func WithResolver(r *resolve.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithHandler binds h to the operation at path, given as space separated
// tokens relative to the unit root ("admin ban").
func WithHandler(path string, h Handler) Option {
	return func(o *options) { o.handlers[path] = h }
}

// WithHandlerFunc is WithHandler for a plain function.
func WithHandlerFunc(path string, fn func(ctx context.Context, inv *Invocation) (Result, error)) Option {
	return WithHandler(path, HandlerFunc(fn))
}

// WithHandlerFactory supplies handlers for operations left unbound.
func WithHandlerFactory(f HandlerFactory) Option {
	return func(o *options) { o.factory = f }
}

// WithForwarder sets the target of external link forwarding. It is
// required when the grammar contains links.
func WithForwarder(f Forwarder) Option {
	return func(o *options) { o.forwarder = f }
}

// WithObserver adds an invocation observer.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs) }
}

// Compile builds the dispatcher of a compiled grammar. Every operation must
// end up with a handler, every argument must bind its converter and
// validator, and links require a Forwarder. All problems are reported
// together, wrapped in ErrDispatchBuild.
func Compile(g *schema.Grammar, opts ...Option) (*Dispatcher, error) {
	o := &options{handlers: make(map[string]Handler)}
	for _, opt := range opts {
		opt(o)
	}
	if o.resolver == nil {
		o.resolver = resolve.New()
	}

	b := &builder{opts: o, used: make(map[string]bool)}
	root := b.scope(g.Root)
	for key := range o.handlers {
		if !b.used[key] {
			b.fail(tree.NewFieldPath().Root(g.Unit), "handler registered for %q, which is not an operation of this unit", key)
		}
	}
	if b.hasLinks && o.forwarder == nil {
		b.fail(tree.NewFieldPath().Root(g.Unit), "unit declares links but no forwarder is configured")
	}
	if len(b.errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrDispatchBuild, b.errs)
	}
	return &Dispatcher{
		grammar:   g,
		root:      root,
		forwarder: o.forwarder,
		observers: o.observers,
	}, nil
}

// Grammar returns the grammar the dispatcher was compiled from.
func (d *Dispatcher) Grammar() *schema.Grammar { return d.grammar }

// Unit names the compiled unit.
func (d *Dispatcher) Unit() string { return d.grammar.Unit }

type builder struct {
	opts     *options
	used     map[string]bool
	hasLinks bool
	errs     tree.ValidationErrors
}

func (b *builder) fail(p *tree.FieldPath, format string, args ...any) {
	b.errs = append(b.errs, tree.ValidationError{Field: p.String(), Message: fmt.Sprintf(format, args...)})
}

func (b *builder) scope(n *schema.ScopeNode) *scopeProg {
	path := tree.ForScope(n.Scope)
	p := &scopeProg{
		node:     n,
		ops:      make(map[string]*opProg),
		children: make(map[string]*scopeProg),
		links:    make(map[string]*schema.LinkAlt),
	}
	for _, f := range n.Fields {
		p.fields = append(p.fields, b.plan(f.Arg, path.Copy().Field(f.Name)))
	}
	for _, alt := range n.Alternatives {
		switch a := alt.(type) {
		case *schema.OperationAlt:
			op := b.operation(n, a, path.Copy().Operation(a.Op.Name))
			p.ops[a.Op.Name] = op
			if a.Op.Name == n.Default {
				p.def = op
			}
		case *schema.ScopeAlt:
			p.children[a.Node.Name] = b.scope(a.Node)
		case *schema.LinkAlt:
			b.hasLinks = true
			p.links[a.Alias] = a
		}
	}
	return p
}

func (b *builder) operation(n *schema.ScopeNode, a *schema.OperationAlt, path *tree.FieldPath) *opProg {
	opPath := append(append([]string(nil), n.Path...), a.Op.Name)
	p := &opProg{path: opPath, op: a.Op}
	for _, d := range a.Args {
		p.args = append(p.args, b.plan(d.Arg, path.Copy().Argument(d.Name)))
	}

	key := PathKey(opPath...)
	if h, ok := b.opts.handlers[key]; ok {
		b.used[key] = true
		p.handler = h
	} else if b.opts.factory != nil {
		if h, ok := b.opts.factory(opPath, a.Op); ok {
			p.handler = h
		}
	}
	if p.handler == nil {
		b.fail(path, "no handler bound")
	}
	return p
}

func (b *builder) plan(a *tree.Argument, path *tree.FieldPath) *resolve.Plan {
	plan, err := b.opts.resolver.Prepare(a)
	if err != nil {
		b.fail(path, "%v", err)
	}
	return plan
}
