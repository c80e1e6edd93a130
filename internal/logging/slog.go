package logging

import (
	"context"
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

type SlogLogger struct {
	l *slog.Logger
}

func NewSlogLogger(l *slog.Logger) *SlogLogger {
	return &SlogLogger{l: l}
}

// Options configures New.
type Options struct {
	// Level is the minimum level written.
	Level slog.Level
	// File, when set, receives a JSON copy of every record. The file is
	// rotated by size.
	File string
	// MaxSizeMB and MaxBackups bound the rotated files. Zero means lumberjack defaults.
	MaxSizeMB  int
	MaxBackups int
	// Stderr overrides os.Stderr, mostly for tests.
	Stderr io.Writer
}

// New builds a logger writing human readable text when stderr is a terminal
// and JSON lines otherwise. The returned closer releases the log file.
func New(opts Options) (*SlogLogger, io.Closer) {
	out := opts.Stderr
	tty := false
	if out == nil {
		out = os.Stderr
		tty = term.IsTerminal(int(os.Stderr.Fd()))
	}

	hopts := &slog.HandlerOptions{Level: opts.Level}

	var console slog.Handler
	if tty {
		console = slog.NewTextHandler(out, hopts)
	} else {
		console = slog.NewJSONHandler(out, hopts)
	}

	if opts.File == "" {
		return NewSlogLogger(slog.New(console)), nopCloser{}
	}

	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		Compress:   true,
	}
	file := slog.NewJSONHandler(rotator, hopts)

	return NewSlogLogger(slog.New(fanout{console, file})), rotator
}

func (s *SlogLogger) Debug(ctx context.Context, msg string, args ...any) {
	s.l.DebugContext(ctx, msg, args...)
}

func (s *SlogLogger) Info(ctx context.Context, msg string, args ...any) {
	s.l.InfoContext(ctx, msg, args...)
}

func (s *SlogLogger) Warn(ctx context.Context, msg string, args ...any) {
	s.l.WarnContext(ctx, msg, args...)
}

func (s *SlogLogger) Error(ctx context.Context, msg string, args ...any) {
	s.l.ErrorContext(ctx, msg, args...)
}

func (s *SlogLogger) With(args ...any) Logger {
	return &SlogLogger{l: s.l.With(args...)}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fanout sends every record to all handlers.
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
	var first error
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
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

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
