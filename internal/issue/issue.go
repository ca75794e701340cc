// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"cmp"
	"maps"
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

type Id int

const (
	DeclarationNotFoundId Id = iota + 1
	DeclarationParseErrorId
	SchemaBuildFailedId
	LinkCycleId
	UnitNotFoundId
	CommandNotFoundId
	SubcommandRequiredId
	InvalidArgumentId
	ScriptExecutionFailedId
	ConfigLoadFailedId
	PermissionDeniedId
)

type MarkdownMsg string

type HttpLink string

// Issue is a catalog entry: a markdown guide for one class of failure.
type Issue struct {
	id       Id
	mdMsg    MarkdownMsg
	docLinks []HttpLink // project documentation
	extLinks []HttpLink
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render formats the entry as terminal markdown, appending its links
// under "See also".
func (i *Issue) Render(stylePath string) (string, error) {
	var md strings.Builder
	md.WriteString(string(i.mdMsg))
	if links := append(i.DocLinks(), i.extLinks...); len(links) > 0 {
		md.WriteString("\n\n## See also\n")
		for _, link := range links {
			md.WriteString("- <" + string(link) + ">\n")
		}
	}
	return render(md.String(), stylePath)
}

var (
	render = glamour.Render

	declarationNotFoundIssue = &Issue{
		id: DeclarationNotFoundId,
		mdMsg: `
# No declaration file found!

tusks reads the command tree of the root unit from a declaration file.

## Lookup order
1. The file named with ` + "`--file`" + `
2. The ` + "`file`" + ` key of your config file
3. ` + "`tusks.cue`" + ` in the current directory

## Things you can try
- Create a minimal ` + "`tusks.cue`" + `:
~~~cue
name: "app"
ops: [{name: "hello", script: "echo hello"}]
~~~
- Declarations may also be written as YAML, TOML or JSON with the same fields.`,
		docLinks: []HttpLink{"https://github.com/invowk/tusks#declaration-files"},
	}

	declarationParseErrorIssue = &Issue{
		id: DeclarationParseErrorId,
		mdMsg: `
# Failed to parse the declaration file!

The file could not be decoded or does not match the declaration schema.
Unknown keys are rejected.

## Things you can try
- Print the schema and compare field names:
~~~
$ tusks schema --declaration
~~~
- Check the path printed before the message; it points at the offending field.`,
	}

	schemaBuildFailedIssue = &Issue{
		id: SchemaBuildFailedId,
		mdMsg: `
# The command tree is inconsistent!

The declaration parsed, but the tree it describes cannot be compiled.
Every problem is listed with the dotted path of the scope, operation or
argument it concerns.

## Common causes
- Two siblings (operations, child scopes, link aliases) share a name
- More than one default operation in a scope
- A required positional argument after an optional one
- An option name declared both by a scope and by an operation below it
- A linked unit declaring a different ` + "`parent`" + ` type than the linking scope

## Things you can try
~~~
$ tusks validate
~~~`,
	}

	linkCycleIssue = &Issue{
		id: LinkCycleId,
		mdMsg: `
# Linked units form a cycle!

A unit links, directly or through other units, back to itself.
The cycle is printed in link order.

## Things you can try
- Remove one of the links on the printed path
- Move the shared commands into a unit that links to neither side`,
	}

	unitNotFoundIssue = &Issue{
		id: UnitNotFoundId,
		mdMsg: `
# Linked unit not found!

A link names a unit that has no declaration file in the link paths.

## Things you can try
- Add the directory holding ` + "`<unit>.cue`" + ` (or .yaml, .toml, .json) to ` + "`link_paths`" + `
- Pass it for one run with ` + "`--link-path`" + ``,
	}

	commandNotFoundIssue = &Issue{
		id: CommandNotFoundId,
		mdMsg: `
# Command not found!

The token does not name an operation, child scope or link of the current scope.

## Things you can try
- List the available commands:
~~~
$ tusks list
~~~
- Check the suggestions printed with the error`,
	}

	subcommandRequiredIssue = &Issue{
		id: SubcommandRequiredId,
		mdMsg: `
# A subcommand is required!

The selected scope has no default operation, so it needs a subcommand.

## Things you can try
~~~
$ tusks run <scope> --help
~~~`,
	}

	invalidArgumentIssue = &Issue{
		id: InvalidArgumentId,
		mdMsg: `
# Invalid argument!

A value was missing, given too often, outside the allowed values, of the wrong
type or rejected by its validator. The message names the argument.

## Things you can try
- Show the usage of the command with ` + "`--help`" + `
- Check the declared ` + "`type`" + `, ` + "`enum`" + ` and ` + "`validator`" + ` of the argument`,
	}

	scriptExecutionFailedIssue = &Issue{
		id: ScriptExecutionFailedId,
		mdMsg: `
# Script execution failed!

An operation script could not be parsed or run by the embedded shell.

## Things you can try
- Arguments are available as ` + "`$TUSKS_ARG_<NAME>`" + ` and as ` + "`$1..$n`" + `
- Scope fields are available as ` + "`$TUSKS_SCOPE_<NAME>`" + `
- Run with ` + "`--verbose`" + ` for the full error chain`,
	}

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Failed to load configuration!

## Things you can try
- Show the configuration in effect:
~~~
$ tusks config show
~~~
- Print the accepted fields:
~~~
$ tusks config schema
~~~
- Environment variables prefixed with ` + "`TUSKS_`" + ` override the file`,
	}

	permissionDeniedIssue = &Issue{
		id: PermissionDeniedId,
		mdMsg: `
# Permission denied!

A declaration, config or metrics file could not be read or written.

## Things you can try
- Check the file permissions
- Point ` + "`metrics.textfile`" + ` at a writable location`,
	}

	issues = catalog(
		declarationNotFoundIssue,
		declarationParseErrorIssue,
		schemaBuildFailedIssue,
		linkCycleIssue,
		unitNotFoundIssue,
		commandNotFoundIssue,
		subcommandRequiredIssue,
		invalidArgumentIssue,
		scriptExecutionFailedIssue,
		configLoadFailedIssue,
		permissionDeniedIssue,
	)
)

// Values returns every catalog entry ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for v := range maps.Values(issues) {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return cmp.Compare(a.id, b.id) })
	return out
}

func catalog(entries ...*Issue) map[Id]*Issue {
	m := make(map[Id]*Issue, len(entries))
	for _, e := range entries {
		m[e.id] = e
	}
	return m
}

// Get returns the entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
