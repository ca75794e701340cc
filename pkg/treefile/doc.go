// SPDX-License-Identifier: MPL-2.0

// Package treefile reads unit declarations from files.
//
// A declaration is a nested record of scopes, operations, arguments and
// links, written in CUE, YAML, TOML or JSON. Every format is validated
// against the same embedded CUE schema before it is converted into a
// tree.Scope, so unknown keys and malformed names are reported with the
// path of the offending value.
package treefile
