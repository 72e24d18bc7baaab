package client

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// Logger is the logging capability a [Client] needs. A *slog.Logger
// satisfies it. Debug is only called when [Config.Debug] is set.
type Logger interface {
	Error(msg string, args ...any)
	Debug(msg string, args ...any)
}

// NewDefaultLogger returns the logger used when none is supplied: errors go to
// stderr, debug records go to stdout and only when debug is true.
func NewDefaultLogger(debug bool) *slog.Logger {
	return newSplitLogger(os.Stdout, os.Stderr, debug)
}

func newSplitLogger(out, errOut io.Writer, debug bool) *slog.Logger {
	outLevel := slog.LevelWarn
	if debug {
		outLevel = slog.LevelDebug
	}

	return slog.New(&splitHandler{
		out: slog.NewTextHandler(out, &slog.HandlerOptions{Level: outLevel}),
		err: slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: slog.LevelWarn}),
	})
}

// splitHandler routes warnings and errors to err and everything below to out.
type splitHandler struct {
	out slog.Handler
	err slog.Handler
}

func (h *splitHandler) pick(l slog.Level) slog.Handler {
	if l >= slog.LevelWarn {
		return h.err
	}
	return h.out
}

func (h *splitHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.pick(l).Enabled(ctx, l)
}

func (h *splitHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.pick(r.Level).Handle(ctx, r)
}

func (h *splitHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &splitHandler{out: h.out.WithAttrs(attrs), err: h.err.WithAttrs(attrs)}
}

func (h *splitHandler) WithGroup(name string) slog.Handler {
	return &splitHandler{out: h.out.WithGroup(name), err: h.err.WithGroup(name)}
}
