// SPDX-License-Identifier: MPL-2.0

// Package resolve turns the parsed value-or-absence of one argument into a
// typed value.
//
// Resolution applies, in order: flag presence, supplied value (enum check,
// type conversion, validator), default value, optional absence, and finally
// the required-missing error. Every error names the offending argument and
// wraps one of the Err* sentinels.
package resolve
