// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/invowk/tusks/pkg/argv"
	"github.com/invowk/tusks/pkg/schema"
	"github.com/invowk/tusks/pkg/treefile"
)

type (
	grammarDoc struct {
		Unit   string   `json:"unit" yaml:"unit"`
		Parent string   `json:"parent,omitempty" yaml:"parent,omitempty"`
		Root   scopeDoc `json:"root" yaml:"root"`
	}

	scopeDoc struct {
		Name       string     `json:"name" yaml:"name"`
		Path       []string   `json:"path,omitempty" yaml:"path,omitempty"`
		Help       string     `json:"help,omitempty" yaml:"help,omitempty"`
		Type       string     `json:"scope_type,omitempty" yaml:"scope_type,omitempty"`
		Default    string     `json:"default,omitempty" yaml:"default,omitempty"`
		Trailing   bool       `json:"trailing,omitempty" yaml:"trailing,omitempty"`
		Fields     []argDoc   `json:"fields,omitempty" yaml:"fields,omitempty"`
		Operations []opDoc    `json:"ops,omitempty" yaml:"ops,omitempty"`
		Scopes     []scopeDoc `json:"scopes,omitempty" yaml:"scopes,omitempty"`
		Links      []linkDoc  `json:"links,omitempty" yaml:"links,omitempty"`
	}

	opDoc struct {
		Name   string   `json:"name" yaml:"name"`
		Usage  string   `json:"usage" yaml:"usage"`
		Help   string   `json:"help,omitempty" yaml:"help,omitempty"`
		Hidden bool     `json:"hidden,omitempty" yaml:"hidden,omitempty"`
		Args   []argDoc `json:"args,omitempty" yaml:"args,omitempty"`
	}

	argDoc struct {
		Name       string   `json:"name" yaml:"name"`
		Type       string   `json:"type" yaml:"type"`
		Short      string   `json:"short,omitempty" yaml:"short,omitempty"`
		Positional bool     `json:"positional,omitempty" yaml:"positional,omitempty"`
		Flag       bool     `json:"flag,omitempty" yaml:"flag,omitempty"`
		Required   bool     `json:"required,omitempty" yaml:"required,omitempty"`
		Min        int      `json:"min,omitempty" yaml:"min,omitempty"`
		Max        int      `json:"max,omitempty" yaml:"max,omitempty"`
		Default    *string  `json:"default,omitempty" yaml:"default,omitempty"`
		Enum       []string `json:"enum,omitempty" yaml:"enum,omitempty"`
		Help       string   `json:"help,omitempty" yaml:"help,omitempty"`
	}

	linkDoc struct {
		Alias string `json:"alias" yaml:"alias"`
		Unit  string `json:"unit" yaml:"unit"`
		Help  string `json:"help,omitempty" yaml:"help,omitempty"`
	}
)

// newSchemaCommand creates the `tusks schema` command.
func newSchemaCommand(app *App) *cobra.Command {
	var (
		output      string
		declaration bool
	)
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the compiled grammar of the root unit",
		Long: `Print the compiled grammar of the root unit as JSON or YAML.

The document lists every scope with its parameter fields, operations with
their resolved arguments, and links. With --declaration the CUE schema
that declaration files are validated against is printed instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if declaration {
				_, err := app.stdout.Write(treefile.Schema())
				return err
			}
			return printGrammar(cmd.Context(), app, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "yaml", "output format (json, yaml)")
	cmd.Flags().BoolVar(&declaration, "declaration", false, "print the declaration file schema")
	return cmd
}

func printGrammar(ctx context.Context, app *App, output string) error {
	if output != "json" && output != "yaml" {
		return app.reportError(fmt.Errorf("%w: unsupported output format %q (want json or yaml)", argv.ErrUsage, output))
	}
	s, err := app.openSession(ctx, sessionOptions{})
	if err != nil {
		return app.reportError(err)
	}
	return writeGrammar(app.stdout, s.unit.Grammar, output)
}

func writeGrammar(w io.Writer, g *schema.Grammar, output string) error {
	doc := grammarDoc{Unit: g.Unit, Parent: g.ExternalParent, Root: describeScope(g.Root)}
	if output == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}

func describeScope(n *schema.ScopeNode) scopeDoc {
	doc := scopeDoc{
		Name:     n.Name,
		Path:     n.Path,
		Help:     n.Help,
		Type:     n.Type,
		Default:  n.Default,
		Trailing: n.AllowTrailing,
		Fields:   describeArgs(n.Fields),
	}
	for _, alt := range n.Alternatives {
		switch a := alt.(type) {
		case *schema.OperationAlt:
			doc.Operations = append(doc.Operations, opDoc{
				Name:   a.Op.Name,
				Usage:  a.Usage(),
				Help:   a.Op.Help,
				Hidden: a.Op.Hidden,
				Args:   describeArgs(a.Args),
			})
		case *schema.ScopeAlt:
			doc.Scopes = append(doc.Scopes, describeScope(a.Node))
		case *schema.LinkAlt:
			doc.Links = append(doc.Links, linkDoc{Alias: a.Alias, Unit: a.Target, Help: a.Help})
		}
	}
	return doc
}

func describeArgs(decls []*schema.ArgDecl) []argDoc {
	var out []argDoc
	for _, d := range decls {
		out = append(out, argDoc{
			Name:       d.Name,
			Type:       d.TypeTag,
			Short:      d.Short,
			Positional: d.Positional,
			Flag:       d.Flag,
			Required:   d.Required,
			Min:        d.Min,
			Max:        d.Max,
			Default:    d.Default,
			Enum:       d.Enum,
			Help:       d.Help,
		})
	}
	return out
}
