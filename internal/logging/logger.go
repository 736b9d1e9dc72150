// Package logging builds the structured loggers used across the service.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options configures New.
type Options struct {
	// Level is a slog level name. Unknown values select info.
	Level string
	// Format is "json" or "text". Anything else selects json.
	Format string
	// Service is attached to every record when set.
	Service string
	Env     string
}

// New creates a logger writing to stdout.
func New(opts Options) *slog.Logger {
	return NewWithWriter(os.Stdout, opts)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(w io.Writer, opts Options) *slog.Logger {
	lvl := new(slog.LevelVar)
	if err := lvl.UnmarshalText([]byte(opts.Level)); err != nil {
		lvl.Set(slog.LevelInfo)
	}
	handlerOpts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		handler = slog.NewTextHandler(w, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(w, handlerOpts)
	}

	logger := slog.New(handler)
	if opts.Service != "" {
		logger = logger.With(slog.String("service", opts.Service))
	}
	if opts.Env != "" {
		logger = logger.With(slog.String("env", opts.Env))
	}
	return logger
}

// Discard returns a logger that drops all output.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}
