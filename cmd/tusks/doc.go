// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the CLI commands of tusks.
//
// The commands load the configured declaration file, compile it together
// with every unit it links to, and then run, list, validate or describe
// the resulting command tree.
package cmd
