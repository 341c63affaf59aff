package slogutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
)

// LevelSilent is above every standard level.
const LevelSilent = slog.Level(100)

// NewLogger creates a logger in the mbsearch line format.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewLineHandler(w, &HandlerOptions{Level: level}))
}

// NewFileLogger creates a logger appending to path.
func NewFileLogger(path string, level slog.Level) (*slog.Logger, *os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, err
	}
	return NewLogger(f, level), f, nil
}

// NewDiscardLogger creates a logger that discards all output.
func NewDiscardLogger() *slog.Logger {
	return slog.New(NewLineHandler(io.Discard, &HandlerOptions{Level: LevelSilent}))
}

// LevelFromString converts debug, info, warn or error (any case) to a
// level; anything else is info.
func LevelFromString(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LevelFromVerbosity maps -v counts to a level: none is warn, -v info,
// -vv debug. quiet silences everything.
func LevelFromVerbosity(verbosity int, quiet bool) slog.Level {
	if quiet {
		return LevelSilent
	}
	switch verbosity {
	case 0:
		return slog.LevelWarn
	case 1:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// Options describes the CLI logging setup.
type Options struct {
	// Stderr receives console logs; nil means os.Stderr.
	Stderr io.Writer
	// Level applies to the console.
	Level slog.Level
	// File optionally receives a copy of every record at FileLevel.
	File       string
	FileLevel  slog.Level
	MaxSize    string
	MaxBackups int
}

// Setup builds the CLI logger. The returned closer is never nil.
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	w := opts.Stderr
	if w == nil {
		w = os.Stderr
	}
	console := NewLineHandler(w, &HandlerOptions{Level: opts.Level, Color: w == os.Stderr && !color.NoColor})
	if opts.File == "" {
		return slog.New(console), nopCloser{}, nil
	}

	var out io.WriteCloser
	if size := ParseSize(opts.MaxSize); size > 0 {
		rf, err := OpenRotatingFile(opts.File, size, opts.MaxBackups)
		if err != nil {
			return nil, nil, err
		}
		out = rf
	} else {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, err
		}
		out = f
	}
	file := NewLineHandler(out, &HandlerOptions{Level: opts.FileLevel})
	return NewTeeLogger(console, file), out, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// TeeHandler writes records to several handlers.
type TeeHandler struct {
	handlers []slog.Handler
}

// NewTeeHandler creates a handler that writes to all provided handlers.
func NewTeeHandler(handlers ...slog.Handler) *TeeHandler {
	return &TeeHandler{handlers: handlers}
}

// Enabled returns true if any handler is enabled for the level.
func (t *TeeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes the record to every enabled handler and returns the first
// error.
func (t *TeeHandler) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range t.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WithAttrs implements slog.Handler.
func (t *TeeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithAttrs(attrs)
	}
	return &TeeHandler{handlers: next}
}

// WithGroup implements slog.Handler.
func (t *TeeHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, len(t.handlers))
	for i, h := range t.handlers {
		next[i] = h.WithGroup(name)
	}
	return &TeeHandler{handlers: next}
}

// NewTeeLogger creates a logger that writes to multiple destinations.
func NewTeeLogger(handlers ...slog.Handler) *slog.Logger {
	return slog.New(NewTeeHandler(handlers...))
}
