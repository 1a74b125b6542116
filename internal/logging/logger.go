// Package logging provides structured logging configuration using log/slog.
//
// This package integrates with chi's RequestID middleware and with the
// table engine's operation IDs, so every log line written while serving a
// request or running a mutation can be correlated.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

type contextKey string

const ctxKeyOpID contextKey = "op_id"

// Setup installs the process-wide slog logger writing to stdout.
//
// Level is one of debug, info, warn or error and defaults to info. Format
// "json" selects the JSON handler, anything else the text handler.
func Setup(level, format string) {
	slog.SetDefault(New(level, format, os.Stdout))
}

// New builds a logger writing to w.
func New(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// parseLevel accepts the slog level names plus "warning". Unknown names
// fall back to info.
func parseLevel(level string) slog.Level {
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// WithOpID attaches a mutation's operation ID to ctx.
func WithOpID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyOpID, id)
}

// OpIDFromContext returns the operation ID attached to ctx, if any.
func OpIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyOpID).(string); ok {
		return v
	}
	return ""
}

// FromContext returns the default logger enriched with request context.
//
// Usage:
//
//	func handleRequest(w http.ResponseWriter, r *http.Request) {
//	    logger := logging.FromContext(r.Context())
//	    logger.Info("processing request", "table", tableKey)
//	}
func FromContext(ctx context.Context) *slog.Logger {
	return Enrich(ctx, slog.Default())
}

// Enrich adds the request_id and op_id found in ctx to logger.
func Enrich(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if opID := OpIDFromContext(ctx); opID != "" {
		logger = logger.With("op_id", opID)
	}
	return logger
}

// WithFields returns a logger with additional structured fields.
//
// Usage:
//
//	opLogger := logging.WithFields(ctx, "table", name)
//	opLogger.Info("row saved", "position", pos)
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
