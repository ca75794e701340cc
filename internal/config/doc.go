// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from config.cue in the platform config directory
// (~/.config/tusks on Linux, ~/Library/Application Support/tusks on macOS,
// %APPDATA%\tusks on Windows), falling back to ./config.cue. Files are validated
// against the embedded config_schema.cue and merged over built-in defaults;
// TUSKS_-prefixed environment variables override both (TUSKS_LISTING_MAX_DEPTH).
package config
