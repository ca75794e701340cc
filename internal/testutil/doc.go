// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers for tests that touch process state:
// the working directory, environment variables and fixture files. Each
// helper fails the test on error and hands back a cleanup function where
// there is state to restore.
package testutil
