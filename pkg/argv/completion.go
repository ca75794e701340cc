// SPDX-License-Identifier: MPL-2.0

package argv

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/invowk/tusks/pkg/schema"
	"github.com/invowk/tusks/pkg/tree"
)

// Complete returns shell completions for the token being typed after args.
// Tokens following a link alias complete against the linked grammar.
func (p *Parser) Complete(args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	head, link, rest := splitLink(p.grammar, args)
	if link != nil && link.Foreign != nil {
		return New(link.Foreign).Complete(rest, toComplete)
	}

	var out bytes.Buffer
	root := p.command(&session{})
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append(append([]string{cobra.ShellCompRequestCmd}, head...), toComplete))
	if err := root.Execute(); err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	return parseCompletionOutput(&out)
}

// parseCompletionOutput reads the candidate lines and the trailing
// ":<directive>" line cobra writes for completion requests.
func parseCompletionOutput(r io.Reader) ([]string, cobra.ShellCompDirective) {
	var candidates []string
	directive := cobra.ShellCompDirectiveDefault
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		if d, ok := strings.CutPrefix(line, ":"); ok {
			if n, err := strconv.Atoi(d); err == nil {
				directive = cobra.ShellCompDirective(n)
			}
			break
		}
		if line != "" {
			candidates = append(candidates, line)
		}
	}
	return candidates, directive
}

func completePositional(decls []*schema.ArgDecl, args []string) ([]string, cobra.ShellCompDirective) {
	idx := len(args)
	for _, d := range decls {
		if d.Multi || d.Slot == idx {
			return completionFor(d)
		}
	}
	return nil, cobra.ShellCompDirectiveNoFileComp
}

func registerFlagCompletion(cmd *cobra.Command, d *schema.ArgDecl) {
	if d.Flag {
		return
	}
	_ = cmd.RegisterFlagCompletionFunc(d.Name, func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
		return completionFor(d)
	})
}

// completionFor maps enum values and value hints onto cobra directives.
func completionFor(d *schema.ArgDecl) ([]string, cobra.ShellCompDirective) {
	if len(d.Enum) > 0 {
		return d.Enum, cobra.ShellCompDirectiveNoFileComp
	}
	switch d.Hint {
	case tree.HintDirPath:
		return nil, cobra.ShellCompDirectiveFilterDirs
	case tree.HintNone, tree.HintAnyPath, tree.HintFilePath, tree.HintExecutablePath,
		tree.HintCommandName, tree.HintCommandString, tree.HintCommandWithArguments:
		return nil, cobra.ShellCompDirectiveDefault
	default:
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
}
