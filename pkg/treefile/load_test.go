// SPDX-License-Identifier: MPL-2.0

package treefile

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/invowk/tusks/internal/testutil"
	"github.com/invowk/tusks/pkg/tree"
)

const cueUnit = `
name: "app"
help: "Application tasks"
fields: [{name: "env", default: "dev", short: "e"}]
ops: [{
	name: "greet"
	args: [{name: "name", default: "world"}, {name: "times", type: "int", default: 3}]
}]
scopes: [{
	name: "admin"
	fields: [{name: "user"}]
	ops: [
		{name: "ban", scope: true, args: [{name: "reason", optional: true}]},
		{name: "list", default: true, trailing: true},
	]
}]
links: [{alias: "tools", unit: "tools"}]
`

const yamlUnit = `
name: app
help: Application tasks
fields:
  - {name: env, default: dev, short: e}
ops:
  - name: greet
    args:
      - {name: name, default: world}
      - {name: times, type: int, default: 3}
scopes:
  - name: admin
    fields: [{name: user}]
    ops:
      - name: ban
        scope: true
        args: [{name: reason, optional: true}]
      - {name: list, default: true, trailing: true}
links:
  - {alias: tools, unit: tools}
`

const tomlUnit = `
name = "app"
help = "Application tasks"

[[fields]]
name = "env"
default = "dev"
short = "e"

[[ops]]
name = "greet"

[[ops.args]]
name = "name"
default = "world"

[[ops.args]]
name = "times"
type = "int"
default = 3

[[scopes]]
name = "admin"

[[scopes.fields]]
name = "user"

[[scopes.ops]]
name = "ban"
scope = true

[[scopes.ops.args]]
name = "reason"
optional = true

[[scopes.ops]]
name = "list"
default = true
trailing = true

[[links]]
alias = "tools"
unit = "tools"
`

const jsonUnit = `{
  "name": "app",
  "help": "Application tasks",
  "fields": [{"name": "env", "default": "dev", "short": "e"}],
  "ops": [{"name": "greet", "args": [{"name": "name", "default": "world"}, {"name": "times", "type": "int", "default": 3}]}],
  "scopes": [{"name": "admin", "fields": [{"name": "user"}], "ops": [
    {"name": "ban", "scope": true, "args": [{"name": "reason", "optional": true}]},
    {"name": "list", "default": true, "trailing": true}
  ]}],
  "links": [{"alias": "tools", "unit": "tools"}]
}`

func TestParse_AllFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		format Format
		data   string
	}{
		{FormatCUE, cueUnit},
		{FormatYAML, yamlUnit},
		{FormatTOML, tomlUnit},
		{FormatJSON, jsonUnit},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			t.Parallel()

			root, err := Parse([]byte(tt.data), tt.format, "app."+string(tt.format))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			assertAppTree(t, root)
		})
	}
}

func assertAppTree(t *testing.T, root *tree.Scope) {
	t.Helper()

	if root.Name != "app" || root.Help != "Application tasks" {
		t.Errorf("root = %q (%q)", root.Name, root.Help)
	}
	env := root.Params.Field("env")
	if env == nil || env.Arg.Short != "e" || *env.Arg.Default != "dev" {
		t.Fatalf("env field = %+v", env)
	}
	greet := root.Operation("greet")
	if greet == nil {
		t.Fatal("greet missing")
	}
	times := greet.Arg("times")
	if times == nil || times.Default == nil || *times.Default != "3" || times.TypeTag() != "int" {
		t.Errorf("times = %+v", times)
	}

	admin := root.Child("admin")
	if admin == nil {
		t.Fatal("admin missing")
	}
	if admin.Params.Ancestor() == nil || admin.Params.Ancestor().AncestorType != "app" {
		t.Error("admin should carry the synthesized ancestor field")
	}
	ban := admin.Operation("ban")
	if !ban.WantsScope || !ban.Arg("reason").Optional {
		t.Errorf("ban = %+v", ban)
	}
	if def := admin.DefaultOperation(); def == nil || def.Name != "list" || !def.Trailing {
		t.Errorf("default = %+v", def)
	}
	if l := root.Link("tools"); l == nil || l.Target != "tools" {
		t.Errorf("link = %+v", l)
	}
}

func TestParse_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		format  Format
		data    string
		wantErr string
		wantIs  error
	}{
		{"unknown key in cue", FormatCUE, `name: "app", colour: "red"`, "colour", nil},
		{"unknown key in yaml", FormatYAML, "name: app\nops:\n  - {name: x, colour: red}\n", "colour", nil},
		{"bad name", FormatCUE, `name: "1app"`, "name", nil},
		{"bad hint", FormatYAML, "name: app\nops:\n  - name: x\n    args: [{name: p, hint: files}]\n", "hint", nil},
		{"parent on nested scope", FormatCUE, `name: "app", scopes: [{name: "a", parent: "x"}]`, "parent", nil},
		{"duplicate default", FormatCUE, `name: "app", ops: [{name: "a", default: true}, {name: "b", default: true}]`, "duplicate default", tree.ErrInvalidTree},
		{"super_ field", FormatCUE, `name: "app", scopes: [{name: "a", fields: [{name: "super_"}]}]`, "reserved", tree.ErrInvalidTree},
		{"flag with default", FormatCUE, `name: "app", ops: [{name: "a", args: [{name: "f", flag: true, default: true}]}]`, "flag", tree.ErrInvalidTree},
		{"malformed yaml", FormatYAML, "name: [app", "bad.yaml", nil},
		{"malformed toml", FormatTOML, "name = ", "bad.toml", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			filename := "bad." + string(tt.format)
			_, err := Parse([]byte(tt.data), tt.format, filename)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should contain %q", err, tt.wantErr)
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Errorf("error should wrap %v", tt.wantIs)
			}
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	t.Parallel()

	for path, want := range map[string]Format{
		"a.cue": FormatCUE, "b.YAML": FormatYAML, "c.yml": FormatYAML, "d.toml": FormatTOML, "e.json": FormatJSON,
	} {
		got, err := FormatFromPath(path)
		if err != nil || got != want {
			t.Errorf("FormatFromPath(%q) = %q, %v", path, got, err)
		}
	}
	if _, err := FormatFromPath("x.ini"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestDirLoader(t *testing.T) {
	t.Parallel()

	first, second := t.TempDir(), t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(second, "tools.yaml"), "name: tools\nparent: app\nops: [{name: lint}]\n")
	testutil.MustWriteFile(t, filepath.Join(first, "wrong.cue"), `name: "other"`)

	l := &DirLoader{Dirs: []string{first, second}}
	root, err := l.Load(context.Background(), "tools")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if root.ExternalParent != "app" || root.Operation("lint") == nil {
		t.Errorf("tools = %+v", root)
	}

	if _, err := l.Load(context.Background(), "missing"); !errors.Is(err, ErrUnitNotFound) {
		t.Errorf("expected ErrUnitNotFound, got %v", err)
	}
	if _, err := l.Load(context.Background(), "wrong"); err == nil || !strings.Contains(err.Error(), `declares unit "other"`) {
		t.Errorf("name mismatch error = %v", err)
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "app.cue")
	testutil.MustWriteFile(t, path, cueUnit)
	root, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	assertAppTree(t, root)
}

