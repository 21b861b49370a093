package devconnector

import (
	"context"

	"github.com/Junni007/Devconnector/devconnector/log"
)

type contextKey string

const (
	loggerKey    contextKey = "logger"
	requestIDKey contextKey = "request_id"
)

// ContextWithLogger returns a copy of ctx carrying logger.
func ContextWithLogger(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// NewLoggerFromContext returns the logger stored in ctx, or a no-op logger.
//
//nolint:ireturn
func NewLoggerFromContext(ctx context.Context) log.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey).(log.Logger); ok && logger != nil {
			return logger
		}
	}

	return log.NewNop()
}

// ContextWithRequestID returns a copy of ctx carrying the request correlation id.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request correlation id stored in ctx.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	id, _ := ctx.Value(requestIDKey).(string)

	return id
}
