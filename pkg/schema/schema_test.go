// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/invowk/tusks/pkg/tree"
)

func adminTree(t *testing.T) *tree.Scope {
	t.Helper()
	root, err := tree.NewScope("app").
		Op(tree.NewOp("greet").Args(tree.Arg("name").Default("world"))).
		Op(tree.NewOp("cp").Args(
			tree.Arg("src").Positional(),
			tree.Arg("dst").Positional().Optional(),
			tree.Arg("force").Flag().Short("f"),
		)).
		Child(tree.NewScope("admin").
			Field(tree.Arg("user").Short("u")).
			Op(tree.NewOp("ban").Args(tree.Arg("reason").Optional())).
			Op(tree.NewOp("list").Default().Trailing())).
		Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return root
}

func TestCompile_Structure(t *testing.T) {
	t.Parallel()

	g, err := Compile(adminTree(t), nil)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	if g.Unit != "app" {
		t.Errorf("Unit = %q", g.Unit)
	}
	if got := g.Root.Tokens(); !reflect.DeepEqual(got, []string{"greet", "cp", "admin"}) {
		t.Errorf("root tokens = %v", got)
	}

	greet, ok := g.Root.Find("greet").(*OperationAlt)
	if !ok {
		t.Fatalf("greet should be an operation alternative")
	}
	name := greet.Args[0]
	if name.Required || name.Default == nil || *name.Default != "world" || name.Positional {
		t.Errorf("greet name decl = %+v", name)
	}

	cp := g.Root.Find("cp").(*OperationAlt)
	if got := cp.Usage(); got != "cp <src> [dst]" {
		t.Errorf("cp usage = %q", got)
	}
	if cp.Args[1].Slot != 1 || !cp.Args[2].Flag {
		t.Errorf("cp decls = %+v %+v", cp.Args[1], cp.Args[2])
	}

	admin, ok := g.Root.Find("admin").(*ScopeAlt)
	if !ok {
		t.Fatal("admin should be a scope alternative")
	}
	if admin.Node.Type != "app.admin" || admin.Node.Field("user") == nil {
		t.Errorf("admin node = %+v", admin.Node)
	}
	if admin.Node.Default != "list" || !admin.Node.AllowTrailing {
		t.Errorf("admin default/trailing = %q/%v", admin.Node.Default, admin.Node.AllowTrailing)
	}
	if g.Root.AllowTrailing {
		t.Error("root has no trailing default and must not allow trailing tokens")
	}
}

func TestCompile_Idempotent(t *testing.T) {
	t.Parallel()

	root := adminTree(t)
	a, err := Compile(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compile(root, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a.OperationPaths(), b.OperationPaths()) {
		t.Errorf("paths differ:\n%v\n%v", a.OperationPaths(), b.OperationPaths())
	}
	if a == b || a.Root == b.Root {
		t.Error("each compilation should produce a fresh grammar")
	}
}

func TestCompile_OptionConflicts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		builder *tree.ScopeBuilder
		want    string
	}{
		{
			name: "child field shadows ancestor field",
			builder: tree.NewScope("app").Field(tree.Arg("env")).
				Child(tree.NewScope("db").Field(tree.Arg("env"))),
			want: "option --env is already declared by scope 'app'",
		},
		{
			name: "operation argument shadows scope field",
			builder: tree.NewScope("app").Field(tree.Arg("user")).
				Op(tree.NewOp("run").Args(tree.Arg("user"))),
			want: "option --user is already declared",
		},
		{
			name: "short collision across levels",
			builder: tree.NewScope("app").Field(tree.Arg("verbose").Flag().Short("v")).
				Child(tree.NewScope("db").Op(tree.NewOp("run").Args(tree.Arg("version").Short("v")))),
			want: "short option -v is already declared",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root, err := tt.builder.Build()
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			_, err = Compile(root, nil)
			if !errors.Is(err, ErrSchemaBuild) {
				t.Fatalf("expected ErrSchemaBuild, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should contain %q", err, tt.want)
			}
		})
	}
}

func TestCompile_PositionalNamesDoNotConflict(t *testing.T) {
	t.Parallel()

	root, err := tree.NewScope("app").Field(tree.Arg("target")).
		Op(tree.NewOp("run").Args(tree.Arg("target").Positional())).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Compile(root, nil); err != nil {
		t.Errorf("positional arguments are not options, got %v", err)
	}
}

func TestCompile_Links(t *testing.T) {
	t.Parallel()

	extTree, err := tree.NewScope("ext").Parent("app").Op(tree.NewOp("foo").Args(tree.Arg("x"))).Build()
	if err != nil {
		t.Fatal(err)
	}
	ext, err := Compile(extTree, nil)
	if err != nil {
		t.Fatal(err)
	}
	resolver := LinkResolverFunc(func(unit string) (*Grammar, error) {
		if unit == "ext" {
			return ext, nil
		}
		return nil, fmt.Errorf("unit %q not found", unit)
	})

	root, err := tree.NewScope("app").Link("tools", "ext").Build()
	if err != nil {
		t.Fatal(err)
	}
	g, err := Compile(root, resolver)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	link, ok := g.Root.Find("tools").(*LinkAlt)
	if !ok {
		t.Fatal("tools should be a link alternative")
	}
	if link.Foreign != ext {
		t.Error("link must reference the foreign grammar, not a copy")
	}
	if got := g.OperationPaths(); !reflect.DeepEqual(got, [][]string{{"tools", "foo"}}) {
		t.Errorf("OperationPaths() = %v", got)
	}

	t.Run("type mismatch", func(t *testing.T) {
		t.Parallel()
		nested, err := tree.NewScope("app").Child(tree.NewScope("ops").Link("tools", "ext")).Build()
		if err != nil {
			t.Fatal(err)
		}
		_, err = Compile(nested, resolver)
		if err == nil || !strings.Contains(err.Error(), `expects to be linked from scope type "app", but this scope is "app.ops"`) {
			t.Errorf("unexpected error %v", err)
		}
	})

	t.Run("unknown unit", func(t *testing.T) {
		t.Parallel()
		missing, err := tree.NewScope("app").Link("nope", "nope").Build()
		if err != nil {
			t.Fatal(err)
		}
		if _, err := Compile(missing, resolver); !errors.Is(err, ErrSchemaBuild) {
			t.Errorf("expected ErrSchemaBuild, got %v", err)
		}
	})

	t.Run("no resolver", func(t *testing.T) {
		t.Parallel()
		if _, err := Compile(root, nil); err == nil {
			t.Error("expected error without link resolver")
		}
	})
}

func TestCompile_RejectsUnfinalizedTree(t *testing.T) {
	t.Parallel()

	raw := &tree.Scope{Name: "app", Operations: []*tree.Operation{{Name: "x"}}}
	if _, err := Compile(raw, nil); !errors.Is(err, ErrSchemaBuild) {
		t.Errorf("expected ErrSchemaBuild for a tree without parameter scopes, got %v", err)
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	g, err := Compile(adminTree(t), nil)
	if err != nil {
		t.Fatal(err)
	}
	alt, err := g.Lookup("admin", "ban")
	if err != nil {
		t.Fatal(err)
	}
	if alt.Token() != "ban" {
		t.Errorf("Lookup = %v", alt.Token())
	}

	_, err = g.Lookup("admin", "bann")
	var unk *UnknownCommandError
	if !errors.As(err, &unk) {
		t.Fatalf("expected UnknownCommandError, got %v", err)
	}
	if !errors.Is(err, ErrUnknownCommand) {
		t.Error("should wrap ErrUnknownCommand")
	}
	if len(unk.Suggestions) == 0 || unk.Suggestions[0] != "ban" {
		t.Errorf("suggestions = %v, want ban first", unk.Suggestions)
	}
}

func TestSuggest(t *testing.T) {
	t.Parallel()

	got := Suggest("gret", []string{"greet", "admin", "grep", "cp"})
	if !reflect.DeepEqual(got, []string{"greet", "grep"}) {
		t.Errorf("Suggest() = %v", got)
	}
	if got := Suggest("zzzzzz", []string{"greet"}); len(got) != 0 {
		t.Errorf("Suggest() = %v, want none", got)
	}
}

func TestSelectionBuilder(t *testing.T) {
	t.Parallel()

	sel := NewSelection().Scope("admin").Field("user", "bob").Op("ban").Arg("reason", "spam").Build()
	if got := sel.Tokens(); !reflect.DeepEqual(got, []string{"admin", "ban"}) {
		t.Errorf("Tokens() = %v", got)
	}
	sc := sel.Choice.(*ScopeChoice)
	if sc.Sub.Fields["user"].Values[0] != "bob" {
		t.Errorf("user field = %+v", sc.Sub.Fields["user"])
	}
	op := sc.Sub.Choice.(*OperationChoice)
	if op.Args["reason"].Values[0] != "spam" {
		t.Errorf("reason = %+v", op.Args["reason"])
	}

	empty := NewSelection().Scope("admin").Build()
	if _, ok := empty.Choice.(*ScopeChoice).Sub.Choice.(*NoChoice); !ok {
		t.Error("scope without a choice should end in NoChoice")
	}
}
