// Package logging builds the go-kit loggers used across the simulator.
package logging

import (
	"io"

	kitlog "github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
)

// New returns a logfmt logger on w. Debug lines are dropped unless verbose.
func New(w io.Writer, verbose bool) kitlog.Logger {
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w))
	if verbose {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}
	return kitlog.With(logger, "ts", kitlog.DefaultTimestampUTC)
}

// Nop discards everything.
func Nop() kitlog.Logger { return kitlog.NewNopLogger() }

// Component tags every line of logger with the emitting component.
func Component(logger kitlog.Logger, name string) kitlog.Logger {
	return kitlog.With(logger, "component", name)
}
