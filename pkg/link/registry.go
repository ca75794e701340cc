// SPDX-License-Identifier: MPL-2.0

package link

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/invowk/tusks/internal/dag"
	"github.com/invowk/tusks/pkg/argv"
	"github.com/invowk/tusks/pkg/dispatch"
	"github.com/invowk/tusks/pkg/schema"
	"github.com/invowk/tusks/pkg/tree"
)

const (
	// DefaultCacheSize bounds the number of cached unit declarations.
	DefaultCacheSize = 32
	// DefaultConcurrency bounds parallel declaration loads.
	DefaultConcurrency = 4
)

var (
	// ErrUnknownUnit is returned when a unit is neither registered nor
	// loadable.
	ErrUnknownUnit = errors.New("unknown unit")
	// ErrDuplicateUnit is returned when two trees are registered under one name.
	ErrDuplicateUnit = errors.New("duplicate unit")
)

type (
	// Loader reads the declaration of a unit by name.
	Loader interface {
		Load(ctx context.Context, unit string) (*tree.Scope, error)
	}

	// LoaderFunc adapts a function to Loader.
	LoaderFunc func(ctx context.Context, unit string) (*tree.Scope, error)

	// DispatchOptions supplies per-unit dispatcher options, typically handlers.
	DispatchOptions func(unit string, root *tree.Scope) []dispatch.Option

	// Option configures a Registry.
	Option func(*Registry)

	// Unit is a compiled unit.
	Unit struct {
		Name       string
		Tree       *tree.Scope
		Grammar    *schema.Grammar
		Dispatcher *dispatch.Dispatcher
		Parser     *argv.Parser
	}

	// Registry compiles units and routes calls between them. It is safe for
	// concurrent use.
	Registry struct {
		loader      Loader
		cacheSize   int
		concurrency int
		dispatchOps DispatchOptions
		parserOpts  []argv.Option

		decls *lru.Cache[string, *tree.Scope]

		// compileMu serializes compilations.
		compileMu sync.Mutex
		mu        sync.RWMutex
		static    map[string]*tree.Scope
		units     map[string]*Unit
	}
)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, unit string) (*tree.Scope, error) { return f(ctx, unit) }

// WithLoader sets where unregistered units are read from.
func WithLoader(l Loader) Option {
	return func(r *Registry) { r.loader = l }
}

// WithCacheSize sets how many loaded declarations are kept.
func WithCacheSize(n int) Option {
	return func(r *Registry) { r.cacheSize = n }
}

// WithConcurrency bounds parallel declaration loads.
func WithConcurrency(n int) Option {
	return func(r *Registry) { r.concurrency = n }
}

// WithDispatchOptions supplies handlers and other dispatcher options per unit.
func WithDispatchOptions(fn DispatchOptions) Option {
	return func(r *Registry) { r.dispatchOps = fn }
}

// WithParserOptions configures the command-line parser of every unit.
func WithParserOptions(opts ...argv.Option) Option {
	return func(r *Registry) { r.parserOpts = append(r.parserOpts, opts...) }
}

// New creates a Registry.
func New(opts ...Option) (*Registry, error) {
	r := &Registry{
		cacheSize:   DefaultCacheSize,
		concurrency: DefaultConcurrency,
		static:      make(map[string]*tree.Scope),
		units:       make(map[string]*Unit),
	}
	for _, opt := range opts {
		opt(r)
	}
	cache, err := lru.New[string, *tree.Scope](r.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating declaration cache: %w", err)
	}
	r.decls = cache
	if r.concurrency < 1 {
		r.concurrency = 1
	}
	return r, nil
}

// Register adds an in-memory unit. Registered units take precedence over
// the loader.
func (r *Registry) Register(root *tree.Scope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.static[root.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateUnit, root.Name)
	}
	r.static[root.Name] = root
	return nil
}

// Unit returns a compiled unit.
func (r *Registry) Unit(name string) (*Unit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.units[name]
	return u, ok
}

// Units lists the compiled unit names, sorted.
func (r *Registry) Units() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.units))
}

// Compile compiles name and every unit it transitively links to, reusing
// units compiled before. Link cycles are schema-build errors wrapping a
// *dag.CycleError.
func (r *Registry) Compile(ctx context.Context, name string) (*Unit, error) {
	if u, ok := r.Unit(name); ok {
		return u, nil
	}
	r.compileMu.Lock()
	defer r.compileMu.Unlock()
	if u, ok := r.Unit(name); ok {
		return u, nil
	}

	trees, graph, err := r.discover(ctx, name)
	if err != nil {
		return nil, err
	}
	order, err := graph.TopologicalSort()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", schema.ErrSchemaBuild, err)
	}
	for _, n := range order {
		if _, ok := r.Unit(n); ok {
			continue
		}
		if err := r.compileOne(trees[n]); err != nil {
			return nil, fmt.Errorf("compiling unit %q: %w", n, err)
		}
	}
	u, _ := r.Unit(name)
	return u, nil
}

// Reload drops every compiled unit and the cached declaration of name, then
// compiles name again. Declarations of other units are served from the
// cache.
func (r *Registry) Reload(ctx context.Context, name string) (*Unit, error) {
	r.compileMu.Lock()
	r.mu.Lock()
	clear(r.units)
	r.mu.Unlock()
	r.decls.Remove(name)
	r.compileMu.Unlock()
	return r.Compile(ctx, name)
}

// discover loads name and everything it links to, level by level, and
// builds the compile-order graph: an edge target -> unit means target
// compiles first.
func (r *Registry) discover(ctx context.Context, name string) (map[string]*tree.Scope, *dag.Graph, error) {
	trees := make(map[string]*tree.Scope)
	graph := dag.New()
	graph.AddNode(name)

	frontier := []string{name}
	for len(frontier) > 0 {
		loaded := make([]*tree.Scope, len(frontier))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.concurrency)
		for i, unit := range frontier {
			g.Go(func() error {
				root, err := r.load(gctx, unit)
				if err != nil {
					return err
				}
				loaded[i] = root
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, nil, err
		}

		var next []string
		for i, unit := range frontier {
			trees[unit] = loaded[i]
			for _, target := range loaded[i].LinkTargets() {
				graph.AddEdge(target, unit)
				_, seen := trees[target]
				_, compiled := r.Unit(target)
				if !seen && !compiled && !slices.Contains(next, target) && !slices.Contains(frontier, target) {
					next = append(next, target)
				}
			}
		}
		frontier = next
	}
	return trees, graph, nil
}

func (r *Registry) load(ctx context.Context, name string) (*tree.Scope, error) {
	r.mu.RLock()
	root, ok := r.static[name]
	r.mu.RUnlock()
	if ok {
		return root, nil
	}
	if root, ok := r.decls.Get(name); ok {
		return root, nil
	}
	if r.loader == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownUnit, name)
	}
	root, err := r.loader.Load(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("loading unit %q: %w", name, err)
	}
	slog.Debug("loaded unit declaration", "unit", name)
	r.decls.Add(name, root)
	return root, nil
}

func (r *Registry) compileOne(root *tree.Scope) error {
	grammar, err := schema.Compile(root, schema.LinkResolverFunc(func(target string) (*schema.Grammar, error) {
		u, ok := r.Unit(target)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownUnit, target)
		}
		return u.Grammar, nil
	}))
	if err != nil {
		return err
	}

	var opts []dispatch.Option
	if r.dispatchOps != nil {
		opts = r.dispatchOps(root.Name, root)
	}
	opts = append(opts, dispatch.WithForwarder(r))
	d, err := dispatch.Compile(grammar, opts...)
	if err != nil {
		return err
	}

	u := &Unit{
		Name:       root.Name,
		Tree:       root,
		Grammar:    grammar,
		Dispatcher: d,
		Parser:     argv.New(grammar, r.parserOpts...),
	}
	r.mu.Lock()
	r.units[root.Name] = u
	r.mu.Unlock()
	slog.Debug("compiled unit", "unit", root.Name)
	return nil
}

// Forward implements dispatch.Forwarder.
func (r *Registry) Forward(ctx context.Context, unit string, rest []string, ancestor *dispatch.ScopeValue) (dispatch.Result, error) {
	return r.DispatchArgs(ctx, unit, rest, ancestor)
}

// DispatchArgs parses args against a compiled unit and dispatches the
// selection with ancestor as the root scope's ancestor. It is the
// cross-unit call surface; ancestor is nil for a standalone tree root.
// A help request writes help to the parser output and succeeds.
func (r *Registry) DispatchArgs(ctx context.Context, unit string, args []string, ancestor *dispatch.ScopeValue) (dispatch.Result, error) {
	u, ok := r.Unit(unit)
	if !ok {
		return dispatch.Result{}, fmt.Errorf("%w: %q has not been compiled", ErrUnknownUnit, unit)
	}
	sel, err := u.Parser.Parse(args)
	if errors.Is(err, argv.ErrHelp) {
		return dispatch.Success(), nil
	}
	if err != nil {
		return dispatch.Result{}, err
	}
	return u.Dispatcher.DispatchFrom(ctx, sel, ancestor)
}

// Run compiles unit if needed and dispatches args against it.
func (r *Registry) Run(ctx context.Context, unit string, args []string) (dispatch.Result, error) {
	if _, err := r.Compile(ctx, unit); err != nil {
		return dispatch.Result{}, err
	}
	return r.DispatchArgs(ctx, unit, args, nil)
}
