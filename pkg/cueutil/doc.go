// SPDX-License-Identifier: MPL-2.0

// Package cueutil provides the CUE parsing helpers shared by declaration
// files, the application config and CUE-backed argument validators.
//
// Every input is checked the same way:
//
//  1. Compile the embedded schema and look up its root definition
//  2. Compile (CUE source) or encode (YAML, TOML, JSON data) the user input
//     and unify it with the definition
//  3. Validate and decode to a Go value
//
// # Usage
//
//	//go:embed tusks_schema.cue
//	var schemaBytes []byte
//
//	result, err := cueutil.ParseAndDecode[fileUnit](
//	    schemaBytes,
//	    userFileBytes,
//	    "#Unit",
//	    cueutil.WithFilename("tusks.cue"),
//	)
//	if err != nil {
//	    return nil, err // error names the CUE path of every problem
//	}
//	return result.Value, nil
package cueutil
