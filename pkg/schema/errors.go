// SPDX-License-Identifier: MPL-2.0

package schema

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/agnivade/levenshtein"
)

// maxSuggestionDistance bounds the edit distance of "did you mean" hints.
const maxSuggestionDistance = 2

var (
	// ErrSchemaBuild is wrapped by every schema compilation failure.
	ErrSchemaBuild = errors.New("schema build failed")
	// ErrUnknownCommand is wrapped by UnknownCommandError.
	ErrUnknownCommand = errors.New("unknown command")
)

// UnknownCommandError reports input that selects no alternative. It means
// the input was structurally invalid, unlike a valid but incomplete
// selection which dispatches to NothingMatched.
type UnknownCommandError struct {
	// Path is the scope path where matching failed.
	Path []string
	// Token is the unmatched input token.
	Token string
	// Suggestions are close alternatives, nearest first.
	Suggestions []string
}

// NewUnknownCommandError builds the error for token at node, with suggestions
// drawn from the node's alternatives.
func NewUnknownCommandError(node *ScopeNode, token string) *UnknownCommandError {
	return &UnknownCommandError{
		Path:        node.Path,
		Token:       token,
		Suggestions: Suggest(token, node.Tokens()),
	}
}

// Error implements the error interface.
func (e *UnknownCommandError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "unknown command %q", e.Token)
	if len(e.Path) > 0 {
		fmt.Fprintf(&b, " in %q", strings.Join(e.Path, " "))
	}
	if len(e.Suggestions) > 0 {
		fmt.Fprintf(&b, " (did you mean %s?)", strings.Join(e.Suggestions, ", "))
	}
	return b.String()
}

// Unwrap returns ErrUnknownCommand for errors.Is() compatibility.
func (e *UnknownCommandError) Unwrap() error { return ErrUnknownCommand }

// Suggest returns candidates within a small edit distance of token, or
// sharing it as a prefix, nearest first.
func Suggest(token string, candidates []string) []string {
	type scored struct {
		name string
		dist int
	}
	var hits []scored
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(token, c)
		if d <= maxSuggestionDistance || (token != "" && strings.HasPrefix(c, token)) {
			hits = append(hits, scored{c, d})
		}
	}
	slices.SortStableFunc(hits, func(a, b scored) int { return a.dist - b.dist })
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.name
	}
	return out
}
