// SPDX-License-Identifier: MPL-2.0

package dispatch

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/invowk/tusks/pkg/resolve"
	"github.com/invowk/tusks/pkg/schema"
	"github.com/invowk/tusks/pkg/tree"
	"github.com/invowk/tusks/pkg/types"
)

// recorder captures every invocation it handles.
type recorder struct {
	calls []*Invocation
	res   Result
	err   error
}

func (r *recorder) Handle(_ context.Context, inv *Invocation) (Result, error) {
	r.calls = append(r.calls, inv)
	return r.res, r.err
}

func mustGrammar(t *testing.T, b *tree.ScopeBuilder, links schema.LinkResolver) *schema.Grammar {
	t.Helper()
	root, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	g, err := schema.Compile(root, links)
	if err != nil {
		t.Fatalf("schema.Compile() error = %v", err)
	}
	return g
}

func mustCompile(t *testing.T, g *schema.Grammar, opts ...Option) *Dispatcher {
	t.Helper()
	d, err := Compile(g, opts...)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return d
}

func TestDispatch_DefaultArgument(t *testing.T) {
	t.Parallel()

	g := mustGrammar(t, tree.NewScope("root").Op(tree.NewOp("greet").Args(tree.Arg("name").Default("world"))), nil)
	rec := &recorder{}
	d := mustCompile(t, g, WithHandler("greet", rec))

	tests := []struct {
		name string
		sel  *schema.Selection
		want string
	}{
		{"default applies", schema.NewSelection().Op("greet").Build(), "world"},
		{"supplied value wins", schema.NewSelection().Op("greet").Arg("name", "Ada").Build(), "Ada"},
	}
	for _, tt := range tests {
		before := len(rec.calls)
		res, err := d.Dispatch(context.Background(), tt.sel)
		if err != nil {
			t.Fatalf("%s: Dispatch() error = %v", tt.name, err)
		}
		if res.Outcome != OutcomeSuccess {
			t.Errorf("%s: result = %v", tt.name, res)
		}
		if len(rec.calls) != before+1 {
			t.Fatalf("%s: handler called %d times, want exactly once", tt.name, len(rec.calls)-before)
		}
		inv := rec.calls[len(rec.calls)-1]
		if len(inv.Args) != 1 {
			t.Errorf("%s: got %d args, want 1", tt.name, len(inv.Args))
		}
		if got := inv.Arg("name").String(); got != tt.want {
			t.Errorf("%s: name = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func adminGrammar(t *testing.T) *schema.Grammar {
	t.Helper()
	return mustGrammar(t, tree.NewScope("root").
		Child(tree.NewScope("admin").
			Field(tree.Arg("user")).
			Op(tree.NewOp("ban").WantsScope().Args(tree.Arg("reason").Optional()))), nil)
}

func TestDispatch_ScopeFieldsAndOptional(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	d := mustCompile(t, adminGrammar(t), WithHandler("admin ban", rec))

	res, err := d.Dispatch(context.Background(),
		schema.NewSelection().Scope("admin").Field("user", "bob").Op("ban").Build())
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if res.Outcome != OutcomeSuccess {
		t.Errorf("result = %v", res)
	}
	inv := rec.calls[0]
	if inv.Scope == nil {
		t.Fatal("operation asked for its scope but got none")
	}
	if user, _ := inv.Scope.Field("user"); user.String() != "bob" {
		t.Errorf("user = %q", user.String())
	}
	if inv.Arg("reason").Present {
		t.Error("reason should be absent")
	}

	_, err = d.Dispatch(context.Background(),
		schema.NewSelection().Scope("admin").Field("user", "bob").Op("ban").Arg("reason", "spam").Build())
	if err != nil {
		t.Fatal(err)
	}
	reason := rec.calls[1].Arg("reason")
	if !reason.Present || reason.String() != "spam" {
		t.Errorf("reason = %+v, want Some(spam)", reason)
	}
	if !reflect.DeepEqual(rec.calls[1].Path, []string{"admin", "ban"}) {
		t.Errorf("path = %v", rec.calls[1].Path)
	}
}

func TestDispatch_MissingScopeField(t *testing.T) {
	t.Parallel()

	d := mustCompile(t, adminGrammar(t), WithHandler("admin ban", &recorder{}))
	_, err := d.Dispatch(context.Background(), schema.NewSelection().Scope("admin").Op("ban").Build())
	var rerr *resolve.Error
	if !errors.As(err, &rerr) || rerr.Argument != "user" {
		t.Fatalf("expected resolution error naming user, got %v", err)
	}
	if !errors.Is(err, resolve.ErrRequiredMissing) {
		t.Error("should wrap ErrRequiredMissing")
	}
}

func TestDispatch_AncestorIsShared(t *testing.T) {
	t.Parallel()

	g := mustGrammar(t, tree.NewScope("root").
		Field(tree.Arg("env").Default("dev")).
		Child(tree.NewScope("a").
			Field(tree.Arg("region").Default("eu")).
			Child(tree.NewScope("b").Op(tree.NewOp("run").WantsScope()))), nil)

	var seen []*ScopeValue
	d := mustCompile(t, g, WithHandlerFunc("a b run", func(_ context.Context, inv *Invocation) (Result, error) {
		seen = append(seen, inv.Scope)
		return Success(), nil
	}))

	if _, err := d.Dispatch(context.Background(), schema.NewSelection().Scope("a").Scope("b").Op("run").Build()); err != nil {
		t.Fatal(err)
	}
	b := seen[0]
	a := b.Parent
	if a == nil || a.Type != "root.a" {
		t.Fatalf("b's ancestor = %+v", a)
	}
	if a.Parent == nil || !a.Parent.IsRoot() || a.Parent.Type != "root" {
		t.Fatalf("a's ancestor = %+v", a.Parent)
	}
	if b.Ancestor("root.a") != a {
		t.Error("ancestor lookup must return the shared instance")
	}
	if v, ok := b.Lookup("env"); !ok || v.String() != "dev" {
		t.Errorf("Lookup(env) = %v, %v", v, ok)
	}
	if got := len(b.Chain()); got != 3 {
		t.Errorf("chain length = %d, want 3", got)
	}

	if _, err := d.Dispatch(context.Background(), schema.NewSelection().Scope("a").Scope("b").Op("run").Build()); err != nil {
		t.Fatal(err)
	}
	if seen[1].Parent == a {
		t.Error("scope values must not be shared across dispatch calls")
	}
}

func TestDispatch_NothingMatched(t *testing.T) {
	t.Parallel()

	g := mustGrammar(t, tree.NewScope("root").
		Op(tree.NewOp("a")).
		Child(tree.NewScope("db").Op(tree.NewOp("migrate"))), nil)
	rec := &recorder{}
	d := mustCompile(t, g, WithHandler("a", rec), WithHandler("db migrate", rec))

	res, err := d.Dispatch(context.Background(), schema.NewSelection().Build())
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsNothingMatched() || len(res.Path) != 0 {
		t.Errorf("root result = %v", res)
	}

	res, err = d.Dispatch(context.Background(), schema.NewSelection().Scope("db").Build())
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsNothingMatched() || !reflect.DeepEqual(res.Path, []string{"db"}) {
		t.Errorf("db result = %v", res)
	}
	if res.ExitCode() != 1 {
		t.Errorf("ExitCode() = %v, want 1", res.ExitCode())
	}
	if len(rec.calls) != 0 {
		t.Errorf("no handler may run, got %d calls", len(rec.calls))
	}
}

func TestDispatch_DefaultOperationAndTrailing(t *testing.T) {
	t.Parallel()

	g := mustGrammar(t, tree.NewScope("root").
		Child(tree.NewScope("git").Op(tree.NewOp("passthrough").Default().Trailing())).
		Child(tree.NewScope("db").Op(tree.NewOp("status").Default())), nil)
	rec := &recorder{}
	d := mustCompile(t, g, WithHandler("git passthrough", rec), WithHandler("db status", rec))

	if _, err := d.Dispatch(context.Background(), schema.NewSelection().Scope("git").Rest("log", "-n", "3").Build()); err != nil {
		t.Fatal(err)
	}
	if got := rec.calls[0].Rest; !reflect.DeepEqual(got, []string{"log", "-n", "3"}) {
		t.Errorf("Rest = %v", got)
	}

	if _, err := d.Dispatch(context.Background(), schema.NewSelection().Scope("db").Build()); err != nil {
		t.Fatal(err)
	}
	if got := rec.calls[1].Path; !reflect.DeepEqual(got, []string{"db", "status"}) {
		t.Errorf("default path = %v", got)
	}

	_, err := d.Dispatch(context.Background(), schema.NewSelection().Scope("db").Rest("extra").Build())
	if !errors.Is(err, schema.ErrUnknownCommand) {
		t.Errorf("trailing tokens on a scope that forbids them: got %v", err)
	}
}

func TestDispatch_ResultPropagation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		res      Result
		herr     error
		wantCode types.ExitCode
		wantErr  error
	}{
		{"zero result is success", Result{}, nil, 0, nil},
		{"explicit code", SuccessCode(3), nil, 3, nil},
		{"handler nothing matched", NothingMatched([]string{"x"}), nil, 1, nil},
		{"code out of range", SuccessCode(300), nil, 0, ErrInvalidResult},
		{"handler error", Result{}, errors.New("boom"), 0, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := mustGrammar(t, tree.NewScope("root").Op(tree.NewOp("x")), nil)
			d := mustCompile(t, g, WithHandler("x", &recorder{res: tt.res, err: tt.herr}))
			res, err := d.Dispatch(context.Background(), schema.NewSelection().Op("x").Build())
			switch {
			case tt.herr != nil:
				var herr *HandlerError
				if !errors.As(err, &herr) || !errors.Is(err, tt.herr) {
					t.Fatalf("expected HandlerError wrapping %v, got %v", tt.herr, err)
				}
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			default:
				if err != nil {
					t.Fatal(err)
				}
				if res.ExitCode() != tt.wantCode {
					t.Errorf("ExitCode() = %v, want %v", res.ExitCode(), tt.wantCode)
				}
			}
		})
	}
}

func TestDispatch_ArgumentsInDeclarationOrder(t *testing.T) {
	t.Parallel()

	g := mustGrammar(t, tree.NewScope("root").Op(tree.NewOp("cp").Args(
		tree.Arg("src").Positional(),
		tree.Arg("dst").Positional().Optional(),
		tree.Arg("force").Flag(),
		tree.Arg("retries").Type("int").Default("2"),
	)), nil)
	rec := &recorder{}
	d := mustCompile(t, g, WithHandler("cp", rec))
	if _, err := d.Dispatch(context.Background(), schema.NewSelection().Op("cp").Arg("src", "a.txt").ArgFlag("force").Build()); err != nil {
		t.Fatal(err)
	}
	inv := rec.calls[0]
	var names []string
	for _, a := range inv.Args {
		names = append(names, a.Name)
	}
	if !reflect.DeepEqual(names, []string{"src", "dst", "force", "retries"}) {
		t.Errorf("argument order = %v", names)
	}
	if v, _ := resolve.As[bool](inv.Arg("force")); !v {
		t.Error("force should be true")
	}
	if v, _ := resolve.As[int](inv.Arg("retries")); v != 2 {
		t.Errorf("retries = %v", inv.Arg("retries"))
	}
	if inv.Scope != nil {
		t.Error("operation did not ask for its scope")
	}
}

func TestDispatch_UnknownInput(t *testing.T) {
	t.Parallel()

	d := mustCompile(t, adminGrammar(t), WithHandler("admin ban", &recorder{}))
	tests := []struct {
		name string
		sel  *schema.Selection
		want error
	}{
		{"unknown scope", schema.NewSelection().Scope("admn").Build(), schema.ErrUnknownCommand},
		{"unknown operation", schema.NewSelection().Scope("admin").Field("user", "x").Op("bam").Build(), schema.ErrUnknownCommand},
		{"unknown field", schema.NewSelection().Field("nope", "1").Build(), ErrUnknownArgument},
		{"unknown argument", schema.NewSelection().Scope("admin").Field("user", "x").Op("ban").Arg("why", "x").Build(), ErrUnknownArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := d.Dispatch(context.Background(), tt.sel); !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	t.Parallel()

	g := mustGrammar(t, tree.NewScope("root").
		Op(tree.NewOp("a")).
		Op(tree.NewOp("b").Args(tree.Arg("n").Validator("missing"))), nil)

	_, err := Compile(g, WithHandler("b", &recorder{}), WithHandler("zzz", &recorder{}))
	if !errors.Is(err, ErrDispatchBuild) {
		t.Fatalf("expected ErrDispatchBuild, got %v", err)
	}
	for _, want := range []string{"no handler bound", `handler registered for "zzz"`, "missing"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q should mention %q", err, want)
		}
	}
}

func TestCompile_HandlerFactory(t *testing.T) {
	t.Parallel()

	g := mustGrammar(t, tree.NewScope("root").
		Op(tree.NewOp("hello").Script("echo hi")).
		Op(tree.NewOp("manual")), nil)
	var scripts []string
	factory := func(_ []string, op *tree.Operation) (Handler, bool) {
		if op.Script == "" {
			return nil, false
		}
		return HandlerFunc(func(context.Context, *Invocation) (Result, error) {
			scripts = append(scripts, op.Script)
			return Success(), nil
		}), true
	}
	d := mustCompile(t, g, WithHandlerFactory(factory), WithHandler("manual", &recorder{}))
	if _, err := d.Dispatch(context.Background(), schema.NewSelection().Op("hello").Build()); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(scripts, []string{"echo hi"}) {
		t.Errorf("scripts = %v", scripts)
	}
}

func TestDispatch_LinkForwarding(t *testing.T) {
	t.Parallel()

	extTree := tree.NewScope("ext").Parent("root").
		Field(tree.Arg("x").Type("int")).
		Op(tree.NewOp("foo").WantsScope())
	ext := mustGrammar(t, extTree, nil)
	extRec := &recorder{res: SuccessCode(7)}
	extD := mustCompile(t, ext, WithHandler("foo", extRec))

	links := schema.LinkResolverFunc(func(string) (*schema.Grammar, error) { return ext, nil })
	g := mustGrammar(t, tree.NewScope("root").Field(tree.Arg("env").Default("prod")).Link("ext", "ext"), links)

	var forwarded []string
	fwd := ForwarderFunc(func(ctx context.Context, unit string, rest []string, ancestor *ScopeValue) (Result, error) {
		forwarded = rest
		if unit != "ext" {
			t.Errorf("unit = %q", unit)
		}
		// stands in for the command-line parser of the linked unit
		sel := schema.NewSelection().Field("x", strings.TrimPrefix(rest[1], "--x=")).Op(rest[0]).Build()
		return extD.DispatchFrom(ctx, sel, ancestor)
	})
	d := mustCompile(t, g, WithForwarder(fwd))

	res, err := d.Dispatch(context.Background(), schema.NewSelection().Link("ext", "foo", "--x=1").Build())
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !reflect.DeepEqual(forwarded, []string{"foo", "--x=1"}) {
		t.Errorf("forwarded = %v", forwarded)
	}
	if res.Outcome != OutcomeSuccessCode || res.Code != 7 {
		t.Errorf("result = %v, want the linked unit's result", res)
	}

	inv := extRec.calls[0]
	if inv.Scope.Parent == nil || inv.Scope.Parent.Type != "root" {
		t.Fatalf("linked root's ancestor = %+v", inv.Scope.Parent)
	}
	if env, _ := inv.Scope.Lookup("env"); env.String() != "prod" {
		t.Errorf("env through link = %q", env.String())
	}
	if x, _ := inv.Scope.Field("x"); x.String() != "1" {
		t.Errorf("x = %q", x.String())
	}
	if inv.ID == "" {
		t.Error("dispatch id must be propagated")
	}
}

func TestDispatchFrom_AncestorChecks(t *testing.T) {
	t.Parallel()

	ext := mustGrammar(t, tree.NewScope("ext").Parent("root").Op(tree.NewOp("foo")), nil)
	d := mustCompile(t, ext, WithHandler("foo", &recorder{}))
	sel := schema.NewSelection().Op("foo").Build()

	if _, err := d.Dispatch(context.Background(), sel); !errors.Is(err, ErrAncestorMismatch) {
		t.Errorf("linked unit without ancestor: got %v", err)
	}
	if _, err := d.DispatchFrom(context.Background(), sel, &ScopeValue{Type: "other"}); !errors.Is(err, ErrAncestorMismatch) {
		t.Errorf("wrong ancestor type: got %v", err)
	}
	if _, err := d.DispatchFrom(context.Background(), sel, &ScopeValue{Type: "root"}); err != nil {
		t.Errorf("matching ancestor: got %v", err)
	}
}

func TestCompile_LinksNeedForwarder(t *testing.T) {
	t.Parallel()

	ext := mustGrammar(t, tree.NewScope("ext").Parent("root").Op(tree.NewOp("foo")), nil)
	links := schema.LinkResolverFunc(func(string) (*schema.Grammar, error) { return ext, nil })
	g := mustGrammar(t, tree.NewScope("root").Link("ext", "ext"), links)
	if _, err := Compile(g); !errors.Is(err, ErrDispatchBuild) {
		t.Errorf("expected ErrDispatchBuild, got %v", err)
	}
}

type countingObserver struct{ events []Event }

func (o *countingObserver) Observe(ev Event) { o.events = append(o.events, ev) }

func TestDispatch_Observer(t *testing.T) {
	t.Parallel()

	g := mustGrammar(t, tree.NewScope("root").Op(tree.NewOp("x")), nil)
	obs := &countingObserver{}
	d := mustCompile(t, g, WithHandler("x", &recorder{res: SuccessCode(2)}), WithObserver(obs))
	if _, err := d.Dispatch(context.Background(), schema.NewSelection().Op("x").Build()); err != nil {
		t.Fatal(err)
	}
	if len(obs.events) != 1 || obs.events[0].Result.Code != 2 || obs.events[0].ID == "" {
		t.Errorf("events = %+v", obs.events)
	}
}

func TestDispatch_Cancelled(t *testing.T) {
	t.Parallel()

	g := mustGrammar(t, tree.NewScope("root").Op(tree.NewOp("x")), nil)
	rec := &recorder{}
	d := mustCompile(t, g, WithHandler("x", rec))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := d.Dispatch(ctx, schema.NewSelection().Op("x").Build()); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v", err)
	}
	if len(rec.calls) != 0 {
		t.Error("handler must not run after cancellation")
	}
}
