// SPDX-License-Identifier: MPL-2.0

// Package dispatch compiles a grammar into a Dispatcher: the routine that
// takes a parsed selection, materializes the parameter scope of every scope
// along the selected path, resolves the target operation's arguments and
// invokes its handler exactly once.
//
// Parameter scope values form a chain through their Parent pointers. A
// child's Parent is the very value materialized for its parent scope during
// the same dispatch, never a copy, and no value outlives the dispatch call.
//
// External links are forwarded through a Forwarder, which re-enters the
// linked unit's own Dispatcher with the remaining tokens and the current
// scope value as the foreign root's ancestor.
package dispatch
