// SPDX-License-Identifier: MPL-2.0

// Package types defines value types shared by the dispatch core and the CLI.
//
// This package is a leaf dependency: it imports only the standard library.
package types
