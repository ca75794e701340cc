// SPDX-License-Identifier: MPL-2.0

package argv

import (
	"strings"

	"github.com/invowk/tusks/pkg/schema"
)

// splitLink scans args for a link alias on the selected scope path. head
// ends with the alias; rest is everything after it, unparsed. When no link
// is selected head is args and link is nil.
func splitLink(g *schema.Grammar, args []string) (head []string, link *schema.LinkAlt, rest []string) {
	node := g.Root
	visible := newFlagIndex(node.Fields)
	for i := 0; i < len(args); i++ {
		tok := args[i]
		if tok == "--" {
			break
		}
		if strings.HasPrefix(tok, "-") && tok != "-" {
			if visible.takesValue(tok) {
				i++
			}
			continue
		}
		switch a := node.Find(tok).(type) {
		case *schema.ScopeAlt:
			node = a.Node
			visible.add(node.Fields)
		case *schema.LinkAlt:
			return args[:i+1], a, args[i+1:]
		default:
			return args, nil, nil
		}
	}
	return args, nil, nil
}

type flagIndex struct {
	longs  map[string]*schema.ArgDecl
	shorts map[string]*schema.ArgDecl
}

func newFlagIndex(decls []*schema.ArgDecl) *flagIndex {
	idx := &flagIndex{longs: map[string]*schema.ArgDecl{}, shorts: map[string]*schema.ArgDecl{}}
	idx.add(decls)
	return idx
}

func (x *flagIndex) add(decls []*schema.ArgDecl) {
	for _, d := range decls {
		x.longs[d.Name] = d
		if d.Short != "" {
			x.shorts[d.Short] = d
		}
	}
}

// takesValue reports whether tok is a known value option whose value is the
// next token.
func (x *flagIndex) takesValue(tok string) bool {
	var d *schema.ArgDecl
	switch {
	case strings.HasPrefix(tok, "--"):
		if strings.Contains(tok, "=") {
			return false
		}
		d = x.longs[tok[2:]]
	case len(tok) == 2:
		d = x.shorts[tok[1:]]
	}
	return d != nil && !d.Flag
}
