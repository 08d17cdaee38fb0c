// Package logging builds the structured logger used across todowork.
package logging

import (
	"io"

	"github.com/charmbracelet/log"
)

// Options holds logger configuration.
type Options struct {
	Level           log.Level
	Formatter       log.Formatter
	ReportTimestamp bool
	Prefix          string
}

// DefaultOptions returns options for short-lived commands: warnings and up,
// human-readable, no timestamps.
func DefaultOptions() Options {
	return Options{
		Level:     log.WarnLevel,
		Formatter: log.TextFormatter,
		Prefix:    "todowork",
	}
}

// New returns a logger writing to w.
func New(w io.Writer, opts Options) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:           opts.Level,
		Formatter:       opts.Formatter,
		ReportTimestamp: opts.ReportTimestamp,
		Prefix:          opts.Prefix,
	})
}

// FromConfig builds a logger from configuration strings. Unknown values
// fall back to the defaults.
func FromConfig(w io.Writer, level, format string, timestamps bool) *log.Logger {
	opts := DefaultOptions()
	opts.Level = ParseLevel(level)
	opts.Formatter = ParseFormatter(format)
	opts.ReportTimestamp = timestamps

	return New(w, opts)
}

// Discard returns a logger that drops everything.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// ParseLevel parses a level name with [log.ParseLevel]. Unknown names map
// to warn.
func ParseLevel(level string) log.Level {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return log.WarnLevel
	}

	return lvl
}

// ParseFormatter parses a formatter name. Unknown names map to text.
func ParseFormatter(format string) log.Formatter {
	switch format {
	case "json":
		return log.JSONFormatter
	case "logfmt":
		return log.LogfmtFormatter
	default:
		return log.TextFormatter
	}
}
