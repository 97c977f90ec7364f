// SPDX-License-Identifier: MPL-2.0

// Package logging builds the slog logger used across ot. Records and payloads
// own stdout, so log output always goes to stderr through a charmbracelet/log
// handler.
package logging

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

const prefix = "ot"

// New returns a logger writing to w at debug level when verbose is set and
// warn level otherwise.
func New(w io.Writer, verbose bool) *slog.Logger {
	return slog.New(NewHandler(w, verbose))
}

// NewHandler returns the charmbracelet/log handler behind New.
func NewHandler(w io.Writer, verbose bool) *log.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          prefix,
		Level:           level,
		ReportTimestamp: verbose,
	})
}

// Install makes New(w, verbose) the process-wide slog default and returns it.
func Install(w io.Writer, verbose bool) *slog.Logger {
	logger := New(w, verbose)
	slog.SetDefault(logger)
	return logger
}
