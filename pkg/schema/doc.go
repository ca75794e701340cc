// SPDX-License-Identifier: MPL-2.0

// Package schema compiles a command tree into a parsing grammar and defines
// the parsed selection a parser hands to the dispatcher.
//
// A Grammar mirrors the tree: every scope becomes a ScopeNode whose
// alternatives are its operations, child scopes and external links, in that
// order. Link alternatives point at the foreign unit's own Grammar; it is
// shared, never copied. Compile is a pure function of the tree, so compiling
// the same tree twice yields grammars that accept the same inputs.
package schema
