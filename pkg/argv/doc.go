// SPDX-License-Identifier: MPL-2.0

// Package argv turns raw command-line tokens into a schema.Selection.
//
// A cobra command tree is generated from the grammar on every parse: scopes
// become commands whose parameter scope fields are persistent flags,
// operations become leaf commands with their option arguments as local flags
// and their positional arguments as command arguments. Tokens after a link
// alias are not parsed at all; they are handed over verbatim so the linked
// unit can parse them against its own grammar.
package argv
