// SPDX-License-Identifier: MPL-2.0

// Package listing flattens a compiled grammar into named tasks and renders
// them for the terminal.
//
// A task name is the token path of an operation joined with a separator
// ("db.migrate"). Tasks are grouped by the scope that declares them. Groups
// with more tasks than the configured maximum are collapsed to a summary
// line, and scopes nested deeper than the maximum depth are left out.
package listing
