// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// setupLogging routes slog through a charm logger on stderr. Library code
// only logs at debug and warn level, so warnings are always shown and
// verbose adds the debug diagnostics.
func setupLogging(w io.Writer, verbose bool) {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(w, log.Options{
		Prefix: "tusks",
		Level:  level,
	})
	slog.SetDefault(slog.New(logger))
}
