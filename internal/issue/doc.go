// SPDX-License-Identifier: MPL-2.0

// Package issue provides actionable errors and a catalog of Markdown guidance.
//
// ActionableError carries the failed operation, the resource involved and
// short suggestions. Each failure class of the CLI (missing declaration,
// inconsistent tree, link cycle, unknown command) has a catalog entry that is
// rendered with glamour when the error reaches the user.
package issue
