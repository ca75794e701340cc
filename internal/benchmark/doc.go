// SPDX-License-Identifier: MPL-2.0

// Package benchmark holds benchmarks of the tusks hot paths, used to
// generate PGO profiles:
//   - declaration decoding against the CUE schema
//   - grammar and dispatcher compilation
//   - command-line parsing and dispatch, scripts included
//   - linked-unit compilation through the registry
//
// Run them with:
//
//	go test -run '^$' -bench . -cpuprofile default.pgo ./internal/benchmark
package benchmark
