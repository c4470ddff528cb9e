package logging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

var state struct {
	mu      sync.Mutex
	level   slog.Level
	console slog.Handler
	file    slog.Handler
	attrs   []slog.Attr
	logFile *os.File
}

// Configure installs a process-wide slog default logger writing text to stderr.
//
// Supported levels: debug, info, warn, error. Attributes bound with Bind and a
// file handler added with AddFileHandler survive reconfiguration.
func Configure(level string) error {
	parsed, err := parseLevel(level)
	if err != nil {
		return err
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	state.level = parsed
	state.console = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parsed})
	install()
	return nil
}

// Bind attaches attributes to every subsequent record of the default logger
// for the remainder of the process lifetime.
func Bind(args ...any) {
	r := slog.Record{}
	r.Add(args...)

	state.mu.Lock()
	defer state.mu.Unlock()
	r.Attrs(func(a slog.Attr) bool {
		state.attrs = append(state.attrs, a)
		return true
	})
	install()
}

// AddFileHandler additionally writes JSON records to path. It is used on the
// fatal startup path so the failure survives a reboot.
func AddFileHandler(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	if state.logFile != nil {
		_ = state.logFile.Close()
	}
	state.logFile = f
	state.file = slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})
	install()
	return nil
}

// Close flushes and closes the file handler, if any.
func Close() error {
	state.mu.Lock()
	defer state.mu.Unlock()
	if state.logFile == nil {
		return nil
	}
	err := state.logFile.Close()
	state.logFile = nil
	state.file = nil
	install()
	return err
}

// install rebuilds the default logger. Callers hold state.mu.
func install() {
	console := state.console
	if console == nil {
		console = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: state.level})
	}
	var h slog.Handler = console
	if state.file != nil {
		h = fanout{console, state.file}
	}
	if len(state.attrs) > 0 {
		h = h.WithAttrs(state.attrs)
	}
	slog.SetDefault(slog.New(h))
}

// fanout sends every record to each handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range f {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (f fanout) WithGroup(name string) slog.Handler {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = h.WithGroup(name)
	}
	return out
}

func parseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "", LevelInfo:
		return slog.LevelInfo, nil
	case LevelDebug:
		return slog.LevelDebug, nil
	case LevelWarn:
		return slog.LevelWarn, nil
	case LevelError:
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", level)
	}
}
