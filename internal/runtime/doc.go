// SPDX-License-Identifier: MPL-2.0

// Package runtime runs operation scripts in an embedded shell interpreter (mvdan/sh).
//
// VirtualRuntime.Factory plugs into dispatch as a HandlerFactory: every
// operation carrying a script gets a handler that runs it in-process. The
// script sees its resolved arguments as TUSKS_ARG_<NAME> and as the positional
// parameters $1..$n, and the fields of its parameter scope and every ancestor
// scope as TUSKS_SCOPE_<NAME>, nearest scope first. The shell exit status
// becomes the operation's result code.
//
// Environment precedence, lowest to highest: host environment (with leaked
// invocation variables removed), --env-file files, invocation variables.
package runtime
