// SPDX-License-Identifier: MPL-2.0

package argv

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/invowk/tusks/pkg/resolve"
	"github.com/invowk/tusks/pkg/schema"
)

var (
	// ErrUsage is wrapped by malformed-flag and positional-count errors.
	ErrUsage = errors.New("invalid usage")
	// ErrHelp is returned when the input asked for help instead of a
	// selection. The help text has been written to the parser's output.
	ErrHelp = errors.New("help requested")
)

type (
	// Parser parses the command line of one unit.
	Parser struct {
		grammar *schema.Grammar
		out     io.Writer
		name    string
	}

	// Option configures a Parser.
	Option func(*Parser)

	// session carries the outcome of one parse.
	session struct {
		sel      *schema.Selection
		linkRest []string
	}
)

// WithOutput sets where help and usage text go. Defaults to io.Discard.
func WithOutput(w io.Writer) Option {
	return func(p *Parser) { p.out = w }
}

// WithName overrides the root command name shown in help, which defaults
// to the unit name.
func WithName(name string) Option {
	return func(p *Parser) { p.name = name }
}

// New creates a parser for g.
func New(g *schema.Grammar, opts ...Option) *Parser {
	p := &Parser{grammar: g, out: io.Discard, name: g.Unit}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Grammar returns the parsed grammar.
func (p *Parser) Grammar() *schema.Grammar { return p.grammar }

// Parse turns args into a selection. Structurally invalid input yields a
// *schema.UnknownCommandError or an error wrapping ErrUsage; argument values
// are not validated here.
func (p *Parser) Parse(args []string) (*schema.Selection, error) {
	head, _, rest := splitLink(p.grammar, args)
	s := &session{linkRest: rest}
	root := p.command(s)
	root.SetArgs(head)
	if err := root.Execute(); err != nil {
		return nil, err
	}
	if s.sel == nil {
		return nil, ErrHelp
	}
	return s.sel, nil
}

// Command builds the cobra tree of the grammar, e.g. for rendering help.
// Running it discards the selection.
func (p *Parser) Command() *cobra.Command {
	return p.command(&session{})
}

func (p *Parser) command(s *session) *cobra.Command {
	root := p.scopeCommand(s, p.grammar.Root, []*schema.ScopeNode{p.grammar.Root})
	root.Use = p.name
	root.SilenceErrors = true
	root.SilenceUsage = true
	root.DisableSuggestions = true
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(p.out)
	root.SetErr(p.out)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	})
	return root
}

func (p *Parser) scopeCommand(s *session, n *schema.ScopeNode, chain []*schema.ScopeNode) *cobra.Command {
	cmd := &cobra.Command{
		Use:   n.Name,
		Short: n.Help,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) > 0 && !n.AllowTrailing {
				return schema.NewUnknownCommandError(n, args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s.sel = selection(cmd.Flags(), chain, &schema.NoChoice{Rest: args})
			return nil
		},
	}
	if n.AllowTrailing {
		cmd.Flags().SetInterspersed(false)
	}
	for _, d := range n.Fields {
		defineFlag(cmd.PersistentFlags(), d)
		registerFlagCompletion(cmd, d)
	}

	for _, alt := range n.Alternatives {
		switch a := alt.(type) {
		case *schema.OperationAlt:
			cmd.AddCommand(operationCommand(s, a, chain))
		case *schema.ScopeAlt:
			sub := append(append([]*schema.ScopeNode(nil), chain...), a.Node)
			cmd.AddCommand(p.scopeCommand(s, a.Node, sub))
		case *schema.LinkAlt:
			cmd.AddCommand(linkCommand(s, a, chain))
		}
	}
	return cmd
}

func operationCommand(s *session, a *schema.OperationAlt, chain []*schema.ScopeNode) *cobra.Command {
	var positional []*schema.ArgDecl
	for _, d := range a.Args {
		if d.Positional {
			positional = append(positional, d)
		}
	}

	cmd := &cobra.Command{
		Use:    a.Usage(),
		Short:  a.Op.Help,
		Hidden: a.Op.Hidden,
		Args: func(_ *cobra.Command, args []string) error {
			if _, rest := assignPositionals(positional, args); len(rest) > 0 {
				return fmt.Errorf("%w: %q accepts at most %d positional argument(s), got %d",
					ErrUsage, a.Op.Name, len(positional), len(args))
			}
			return nil
		},
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			return completePositional(positional, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			raws, _ := assignPositionals(positional, args)
			for _, d := range a.Args {
				if d.Positional {
					continue
				}
				if raw, ok := readFlag(cmd.Flags(), d); ok {
					raws[d.Name] = raw
				}
			}
			s.sel = selection(cmd.Flags(), chain, &schema.OperationChoice{Name: a.Op.Name, Args: raws})
			return nil
		},
	}
	for _, d := range a.Args {
		if d.Positional {
			continue
		}
		defineFlag(cmd.Flags(), d)
		registerFlagCompletion(cmd, d)
	}
	return cmd
}

func linkCommand(s *session, a *schema.LinkAlt, chain []*schema.ScopeNode) *cobra.Command {
	return &cobra.Command{
		Use:   a.Alias + " [command]...",
		Short: a.Summary(),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s.sel = selection(cmd.Flags(), chain, &schema.LinkChoice{Alias: a.Alias, Rest: s.linkRest})
			return nil
		},
	}
}

// selection assembles the parsed path. fs is the flag set of the command
// that ran, which carries every inherited scope field.
func selection(fs *pflag.FlagSet, chain []*schema.ScopeNode, last schema.Choice) *schema.Selection {
	root := &schema.Selection{}
	cur := root
	for i, n := range chain {
		cur.Fields = make(map[string]resolve.Raw)
		for _, d := range n.Fields {
			if raw, ok := readFlag(fs, d); ok {
				cur.Fields[d.Name] = raw
			}
		}
		if i == len(chain)-1 {
			cur.Choice = last
			break
		}
		sub := &schema.Selection{}
		cur.Choice = &schema.ScopeChoice{Name: chain[i+1].Name, Sub: sub}
		cur = sub
	}
	return root
}

// assignPositionals distributes tokens over positional slots in order. A
// multi-valued positional takes every remaining token. Tokens left over are
// returned as rest.
func assignPositionals(decls []*schema.ArgDecl, args []string) (map[string]resolve.Raw, []string) {
	raws := make(map[string]resolve.Raw)
	i := 0
	for _, d := range decls {
		if i >= len(args) {
			break
		}
		if d.Multi {
			raws[d.Name] = resolve.Supplied(args[i:]...)
			i = len(args)
			continue
		}
		raws[d.Name] = resolve.Supplied(args[i])
		i++
	}
	return raws, args[i:]
}

func defineFlag(fs *pflag.FlagSet, d *schema.ArgDecl) {
	usage := flagUsage(d)
	switch {
	case d.Flag:
		fs.BoolP(d.Name, d.Short, false, usage)
	case d.Multi:
		fs.StringArrayP(d.Name, d.Short, nil, usage)
	default:
		fs.StringP(d.Name, d.Short, "", usage)
	}
	if d.Hidden {
		_ = fs.MarkHidden(d.Name)
	}
}

// flagUsage renders help text. Defaults are applied by the resolver, not
// by the flag set, so they are only mentioned here.
func flagUsage(d *schema.ArgDecl) string {
	parts := []string{d.Help}
	if d.Required {
		parts = append(parts, "(required)")
	}
	if d.Default != nil {
		parts = append(parts, fmt.Sprintf("(default %q)", *d.Default))
	}
	if len(d.Enum) > 0 {
		parts = append(parts, "(one of: "+strings.Join(d.Enum, ", ")+")")
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// readFlag reports the raw input of a flag, and false when it was not given.
func readFlag(fs *pflag.FlagSet, d *schema.ArgDecl) (resolve.Raw, bool) {
	f := fs.Lookup(d.Name)
	if f == nil || !f.Changed {
		return resolve.Raw{}, false
	}
	switch {
	case d.Flag:
		on, err := fs.GetBool(d.Name)
		if err != nil || !on {
			return resolve.Raw{}, false
		}
		return resolve.Present(), true
	case d.Multi:
		values, err := fs.GetStringArray(d.Name)
		if err != nil {
			return resolve.Raw{}, false
		}
		return resolve.Supplied(values...), true
	default:
		return resolve.Supplied(f.Value.String()), true
	}
}
