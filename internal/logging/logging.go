// Package logging builds the process logger every component derives its
// own component logger from.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures New
type Options struct {
	Level  string
	Format string // "console" or "json"
	Output io.Writer
}

// New returns a zerolog logger writing to opts.Output, stderr by default.
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.Format != "json" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: "15:04:05",
			NoColor:    opts.Output != nil,
		}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	return zerolog.New(out).
		With().
		Timestamp().
		Str("service", "registry").
		Logger().
		Level(ParseLevel(opts.Level))
}

// ParseLevel parses a level name, falling back to info.
func ParseLevel(value string) zerolog.Level {
	s := strings.ToLower(strings.TrimSpace(value))
	if s == "" {
		return zerolog.InfoLevel
	}
	if lvl, err := zerolog.ParseLevel(s); err == nil {
		return lvl
	}
	return zerolog.InfoLevel
}
