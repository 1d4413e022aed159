// Package telemetry provides the structured logging adapter used by
// fix/codec and by the fix package's registry initialization: a slog.Logger with optional file rotation
// (lumberjack) and OpenTelemetry trace-context injection, trimmed from
// the ambient logging stack to the handful of knobs a codec service
// needs.
package telemetry

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"go.opentelemetry.io/otel/trace"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls how a Logger writes and rotates its output.
type Config struct {
	Service    string
	Level      string // debug, info, warn, error
	File       string // rotated log file path; empty means stdout only
	MaxSize    int    // MB per file before rotation
	MaxBackups int
	MaxAge     int // days
	Compress   bool
}

// Logger wraps *slog.Logger with the service name pre-bound.
type Logger struct {
	*slog.Logger
	Service string
}

// traceHandler injects the active OpenTelemetry span's trace_id/span_id
// into every record, when one is present in the record's context.
type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

// New builds a Logger from cfg, writing JSON records to cfg.File (with
// lumberjack rotation) if set, else to stdout.
func New(cfg Config) *Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.File != "" {
		handler = slog.NewJSONHandler(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	logger := slog.New(&traceHandler{Handler: handler}).With(
		slog.String("service", cfg.Service),
	)
	return &Logger{Logger: logger, Service: cfg.Service}
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Default returns the process-wide fallback logger, initializing it to
// an info-level stdout logger on first use.
func Default() *Logger {
	once.Do(func() {
		defaultLogger = New(Config{Service: "fixcodec", Level: "info"})
	})
	return defaultLogger
}
