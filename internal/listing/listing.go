// SPDX-License-Identifier: MPL-2.0

package listing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/invowk/tusks/pkg/schema"
)

type (
	// Options controls how a grammar is flattened into tasks.
	Options struct {
		// Separator joins path tokens into a task name.
		Separator string
		// MaxGroupSize is the largest group listed entry by entry; larger
		// groups are collapsed unless Expand is set.
		MaxGroupSize int
		// MaxDepth caps the number of scope levels below the root that are listed.
		MaxDepth int
		// Expand disables collapsing.
		Expand bool
		// Prefix restricts the listing to the subtree under these tokens.
		Prefix []string
	}

	// Task is one runnable operation.
	Task struct {
		// Name is the token path joined with the separator.
		Name    string
		Path    []string
		Usage   string
		Help    string
		Default bool
	}

	// Group holds the tasks declared directly in one scope.
	Group struct {
		// Name is the scope path joined with the separator; empty for the root.
		Name string
		Help string
		// Link names the unit when the group is the root of a linked unit.
		Link      string
		Tasks     []Task
		Collapsed bool
	}

	// List is the flattened, grouped task listing of one grammar.
	List struct {
		Unit   string
		Groups []Group
		// Truncated counts the scopes cut off at MaxDepth.
		Truncated int
	}
)

// Build flattens the grammar into groups in declaration order: a scope's
// own operations form its group, followed by the groups of its child scopes
// and links. Hidden operations are omitted.
func Build(g *schema.Grammar, opts Options) (*List, error) {
	if opts.Separator == "" {
		return nil, errors.New("listing separator must not be empty")
	}
	root, link, err := descend(g, opts.Prefix)
	if err != nil {
		return nil, err
	}

	l := &List{Unit: g.Unit}
	b := &builder{opts: opts, list: l}
	b.scope(root, opts.Prefix, link, 0, map[*schema.Grammar]bool{g: true})
	return l, nil
}

// descend follows prefix tokens to a scope node, entering linked units.
func descend(g *schema.Grammar, prefix []string) (*schema.ScopeNode, string, error) {
	node, link := g.Root, ""
	for i, tok := range prefix {
		switch a := node.Find(tok).(type) {
		case *schema.ScopeAlt:
			node, link = a.Node, ""
		case *schema.LinkAlt:
			if a.Foreign == nil {
				return nil, "", fmt.Errorf("link '%s' is not resolved", tok)
			}
			node, link = a.Foreign.Root, a.Target
		case *schema.OperationAlt:
			return nil, "", fmt.Errorf("'%s' is an operation, not a scope", strings.Join(prefix[:i+1], " "))
		default:
			return nil, "", schema.NewUnknownCommandError(node, tok)
		}
	}
	return node, link, nil
}

type builder struct {
	opts Options
	list *List
}

func (b *builder) scope(n *schema.ScopeNode, path []string, link string, depth int, seen map[*schema.Grammar]bool) {
	grp := Group{Name: strings.Join(path, b.opts.Separator), Help: n.Help, Link: link}

	var nested []func()
	for _, alt := range n.Alternatives {
		p := append(append([]string(nil), path...), alt.Token())
		switch a := alt.(type) {
		case *schema.OperationAlt:
			if a.Op.Hidden {
				continue
			}
			grp.Tasks = append(grp.Tasks, Task{
				Name:    strings.Join(p, b.opts.Separator),
				Path:    p,
				Usage:   a.Usage(),
				Help:    a.Op.Help,
				Default: a.Op.Default,
			})
		case *schema.ScopeAlt:
			if b.tooDeep(depth + 1) {
				continue
			}
			nested = append(nested, func() { b.scope(a.Node, p, "", depth+1, seen) })
		case *schema.LinkAlt:
			if a.Foreign == nil || seen[a.Foreign] || b.tooDeep(depth+1) {
				continue
			}
			nested = append(nested, func() {
				seen[a.Foreign] = true
				b.scope(a.Foreign.Root, p, a.Target, depth+1, seen)
				delete(seen, a.Foreign)
			})
		}
	}

	grp.Collapsed = !b.opts.Expand && b.opts.MaxGroupSize > 0 && len(grp.Tasks) > b.opts.MaxGroupSize
	if len(grp.Tasks) > 0 {
		b.list.Groups = append(b.list.Groups, grp)
	}
	for _, fn := range nested {
		fn()
	}
}

func (b *builder) tooDeep(depth int) bool {
	if b.opts.MaxDepth > 0 && depth > b.opts.MaxDepth {
		b.list.Truncated++
		return true
	}
	return false
}

// Tasks returns every task of the list in order, collapsed groups included.
func (l *List) Tasks() []Task {
	var out []Task
	for _, g := range l.Groups {
		out = append(out, g.Tasks...)
	}
	return out
}

// SplitTask expands a task name into path tokens when it is not itself a
// token of the root scope. "db.migrate" with separator "." becomes
// ["db", "migrate"]; every other argument is returned unchanged.
func SplitTask(g *schema.Grammar, args []string, separator string) []string {
	if len(args) == 0 || separator == "" || g.Root.Find(args[0]) != nil {
		return args
	}
	if strings.HasPrefix(args[0], "-") || !strings.Contains(args[0], separator) {
		return args
	}
	parts := strings.Split(args[0], separator)
	if g.Root.Find(parts[0]) == nil {
		return args
	}
	return append(parts, args[1:]...)
}
