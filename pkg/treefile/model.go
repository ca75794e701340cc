// SPDX-License-Identifier: MPL-2.0

package treefile

import (
	"fmt"

	"github.com/invowk/tusks/pkg/tree"
)

// The file* types mirror tusks_schema.cue.
type (
	fileArg struct {
		Name       string         `json:"name"`
		Type       string         `json:"type,omitempty"`
		Flag       bool           `json:"flag,omitempty"`
		Optional   bool           `json:"optional,omitempty"`
		Default    any            `json:"default,omitempty"`
		Positional bool           `json:"positional,omitempty"`
		Min        *int           `json:"min,omitempty"`
		Max        *int           `json:"max,omitempty"`
		Short      string         `json:"short,omitempty"`
		Help       string         `json:"help,omitempty"`
		Hidden     bool           `json:"hidden,omitempty"`
		Hint       tree.ValueHint `json:"hint,omitempty"`
		Enum       []string       `json:"enum,omitempty"`
		Validator  string         `json:"validator,omitempty"`
	}

	fileOp struct {
		Name      string     `json:"name"`
		Help      string     `json:"help,omitempty"`
		Args      []*fileArg `json:"args,omitempty"`
		Default   bool       `json:"default,omitempty"`
		Trailing  bool       `json:"trailing,omitempty"`
		Scope     bool       `json:"scope,omitempty"`
		ScopeType string     `json:"scope_type,omitempty"`
		Script    string     `json:"script,omitempty"`
		Hidden    bool       `json:"hidden,omitempty"`
	}

	fileLink struct {
		Alias string `json:"alias"`
		Unit  string `json:"unit"`
		Help  string `json:"help,omitempty"`
	}

	fileScope struct {
		Name      string       `json:"name"`
		Help      string       `json:"help,omitempty"`
		Parent    string       `json:"parent,omitempty"`
		ScopeType string       `json:"scope_type,omitempty"`
		Fields    []*fileArg   `json:"fields,omitempty"`
		Ops       []*fileOp    `json:"ops,omitempty"`
		Scopes    []*fileScope `json:"scopes,omitempty"`
		Links     []*fileLink  `json:"links,omitempty"`
	}
)

// toScope converts a decoded declaration into an unfinalized tree.
func (s *fileScope) toScope() *tree.Scope {
	out := &tree.Scope{
		Name:           s.Name,
		Help:           s.Help,
		ExternalParent: s.Parent,
	}
	if s.ScopeType != "" || len(s.Fields) > 0 {
		out.Params = &tree.ParamScope{Type: s.ScopeType}
		for _, f := range s.Fields {
			out.Params.Fields = append(out.Params.Fields, &tree.Field{
				Name: f.Name,
				Kind: tree.FieldValue,
				Arg:  f.toArgument(),
			})
		}
	}
	for _, op := range s.Ops {
		out.Operations = append(out.Operations, op.toOperation())
	}
	for _, child := range s.Scopes {
		out.Children = append(out.Children, child.toScope())
	}
	for _, l := range s.Links {
		out.Links = append(out.Links, &tree.Link{Alias: l.Alias, Target: l.Unit, Help: l.Help})
	}
	return out
}

// toOperation converts an operation. Script operations always receive their
// scope value so the script can read scope fields.
func (o *fileOp) toOperation() *tree.Operation {
	op := &tree.Operation{
		Name:       o.Name,
		Help:       o.Help,
		Default:    o.Default,
		Trailing:   o.Trailing,
		WantsScope: o.Scope || o.Script != "",
		ScopeType:  o.ScopeType,
		Script:     o.Script,
		Hidden:     o.Hidden,
	}
	for _, a := range o.Args {
		op.Args = append(op.Args, a.toArgument())
	}
	return op
}

func (a *fileArg) toArgument() *tree.Argument {
	arg := &tree.Argument{
		Name:       a.Name,
		Type:       a.Type,
		Flag:       a.Flag,
		Optional:   a.Optional,
		Positional: a.Positional,
		Short:      a.Short,
		Help:       a.Help,
		Hidden:     a.Hidden,
		ValueHint:  a.Hint,
		Enum:       a.Enum,
		Validator:  a.Validator,
	}
	if a.Default != nil {
		d := normalizeDefault(a.Default)
		arg.Default = &d
	}
	if a.Min != nil || a.Max != nil {
		arg.Multiplicity = &tree.Multiplicity{Min: a.Min, Max: a.Max}
	}
	return arg
}

// normalizeDefault renders string, number and boolean defaults as the raw
// string the resolver converts.
func normalizeDefault(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
