// SPDX-License-Identifier: MPL-2.0

package listing

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/invowk/tusks/pkg/schema"
	"github.com/invowk/tusks/pkg/tree"
)

func compile(t *testing.T, b *tree.ScopeBuilder, links schema.LinkResolver) *schema.Grammar {
	t.Helper()
	root, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	g, err := schema.Compile(root, links)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}
	return g
}

func appGrammar(t *testing.T) *schema.Grammar {
	t.Helper()
	ext := compile(t, tree.NewScope("ext").Parent("app").
		Op(tree.NewOp("sync").Help("Sync mirrors")), nil)
	resolver := schema.LinkResolverFunc(func(unit string) (*schema.Grammar, error) {
		if unit == "ext" {
			return ext, nil
		}
		return nil, fmt.Errorf("unit %q not found", unit)
	})

	return compile(t, tree.NewScope("app").
		Op(tree.NewOp("build").Help("Build the project").Default()).
		Op(tree.NewOp("internal").Hidden()).
		Child(tree.NewScope("db").Help("Database tasks").
			Op(tree.NewOp("migrate").Help("Run migrations").Args(tree.Arg("steps").Positional().Optional())).
			Op(tree.NewOp("seed")).
			Child(tree.NewScope("backup").
				Op(tree.NewOp("create")).
				Child(tree.NewScope("remote").Op(tree.NewOp("push"))))).
		Link("tools", "ext"), resolver)
}

func TestBuild_GroupsByScope(t *testing.T) {
	t.Parallel()

	l, err := Build(appGrammar(t), Options{Separator: ".", MaxGroupSize: 5, MaxDepth: 20})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var names []string
	for _, g := range l.Groups {
		names = append(names, g.Name)
	}
	if want := []string{"", "db", "db.backup", "db.backup.remote", "tools"}; !reflect.DeepEqual(names, want) {
		t.Errorf("group names = %v, want %v", names, want)
	}

	var tasks []string
	for _, task := range l.Tasks() {
		tasks = append(tasks, task.Name)
	}
	want := []string{"build", "db.migrate", "db.seed", "db.backup.create", "db.backup.remote.push", "tools.sync"}
	if !reflect.DeepEqual(tasks, want) {
		t.Errorf("tasks = %v, want %v", tasks, want)
	}

	if !l.Groups[0].Tasks[0].Default {
		t.Error("build should be marked as default")
	}
	if got := l.Groups[1].Tasks[0].Usage; got != "migrate [steps]" {
		t.Errorf("migrate usage = %q", got)
	}
	if l.Groups[4].Link != "ext" {
		t.Errorf("tools group link = %q", l.Groups[4].Link)
	}
}

func TestBuild_Separator(t *testing.T) {
	t.Parallel()

	l, err := Build(appGrammar(t), Options{Separator: ":"})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := l.Groups[3].Tasks[0].Name; got != "db:backup:remote:push" {
		t.Errorf("task name = %q", got)
	}
	if !reflect.DeepEqual(l.Groups[3].Tasks[0].Path, []string{"db", "backup", "remote", "push"}) {
		t.Errorf("task path = %v", l.Groups[3].Tasks[0].Path)
	}
}

func TestBuild_MaxDepth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		depth     int
		groups    int
		truncated int
	}{
		{depth: 0, groups: 5, truncated: 0},
		{depth: 1, groups: 3, truncated: 1},
		{depth: 2, groups: 4, truncated: 1},
		{depth: 3, groups: 5, truncated: 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("depth %d", tt.depth), func(t *testing.T) {
			t.Parallel()

			l, err := Build(appGrammar(t), Options{Separator: ".", MaxDepth: tt.depth})
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			if len(l.Groups) != tt.groups || l.Truncated != tt.truncated {
				t.Errorf("groups = %d truncated = %d, want %d and %d", len(l.Groups), l.Truncated, tt.groups, tt.truncated)
			}
		})
	}
}

func TestBuild_Collapse(t *testing.T) {
	t.Parallel()

	g := appGrammar(t)

	l, err := Build(g, Options{Separator: ".", MaxGroupSize: 1})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if !l.Groups[1].Collapsed || l.Groups[0].Collapsed {
		t.Errorf("only db should collapse: root=%v db=%v", l.Groups[0].Collapsed, l.Groups[1].Collapsed)
	}

	l, err = Build(g, Options{Separator: ".", MaxGroupSize: 1, Expand: true})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	for _, grp := range l.Groups {
		if grp.Collapsed {
			t.Errorf("group %q collapsed although Expand is set", grp.Name)
		}
	}
}

func TestBuild_Prefix(t *testing.T) {
	t.Parallel()

	g := appGrammar(t)

	l, err := Build(g, Options{Separator: ".", Prefix: []string{"db", "backup"}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(l.Groups) != 2 || l.Groups[0].Name != "db.backup" {
		t.Errorf("groups = %+v", l.Groups)
	}

	l, err = Build(g, Options{Separator: ".", Prefix: []string{"tools"}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(l.Groups) != 1 || l.Groups[0].Link != "ext" || l.Groups[0].Tasks[0].Name != "tools.sync" {
		t.Errorf("groups = %+v", l.Groups)
	}

	_, err = Build(g, Options{Separator: ".", Prefix: []string{"nope"}})
	if !errors.Is(err, schema.ErrUnknownCommand) {
		t.Errorf("expected ErrUnknownCommand, got %v", err)
	}
	if _, err = Build(g, Options{Separator: ".", Prefix: []string{"build"}}); err == nil {
		t.Error("expected an error for an operation prefix")
	}
}

func TestBuild_EmptySeparator(t *testing.T) {
	t.Parallel()

	if _, err := Build(appGrammar(t), Options{}); err == nil {
		t.Error("expected an error for an empty separator")
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	l, err := Build(appGrammar(t), Options{Separator: ".", MaxGroupSize: 1, MaxDepth: 1})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	var buf bytes.Buffer
	if err := l.Render(&buf, RenderConfig{}); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := strings.Join([]string{
		"Tasks of app",
		"",
		"  build  Build the project (default)",
		"",
		"db  Database tasks",
		"  2 tasks, run 'tusks list --all' to show them",
		"",
		"tools -> ext",
		"  tools.sync  Sync mirrors",
		"",
		"1 scope(s) deeper than the maximum depth are not shown",
		"",
	}, "\n")
	if got := buf.String(); got != want {
		t.Errorf("Render() output:\n%s\nwant:\n%s", got, want)
	}
}

func TestRender_AlignsNames(t *testing.T) {
	t.Parallel()

	l := &List{Unit: "app", Groups: []Group{{Tasks: []Task{
		{Name: "a", Help: "first"},
		{Name: "long.name", Help: "second"},
		{Name: "bare"},
	}}}}
	var buf bytes.Buffer
	if err := l.Render(&buf, RenderConfig{Command: "x list"}); err != nil {
		t.Fatal(err)
	}
	want := "Tasks of app\n\n  a          first\n  long.name  second\n  bare\n"
	if got := buf.String(); got != want {
		t.Errorf("Render() = %q, want %q", got, want)
	}
}

func TestRender_NoTasks(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := (&List{Unit: "app"}).Render(&buf, RenderConfig{}); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "Tasks of app\n  (no tasks)\n" {
		t.Errorf("Render() = %q", got)
	}
}

func TestSplitTask(t *testing.T) {
	t.Parallel()

	g := appGrammar(t)
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{"dotted task", []string{"db.migrate", "3"}, []string{"db", "migrate", "3"}},
		{"link task", []string{"tools.sync"}, []string{"tools", "sync"}},
		{"plain token", []string{"db", "migrate"}, []string{"db", "migrate"}},
		{"flag", []string{"--x.y"}, []string{"--x.y"}},
		{"unknown head", []string{"nope.migrate"}, []string{"nope.migrate"}},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SplitTask(g, tt.args, "."); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitTask(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}
