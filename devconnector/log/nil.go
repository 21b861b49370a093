package log

import "context"

// NopLogger discards every entry.
type NopLogger struct{}

// NewNop returns a Logger that discards every entry.
func NewNop() Logger {
	return &NopLogger{}
}

// Log drops the entry.
func (l *NopLogger) Log(_ context.Context, _ Level, _ string, _ ...Field) {}

// With returns the same logger.
//
//nolint:ireturn
func (l *NopLogger) With(_ ...Field) Logger {
	return l
}

// Enabled always reports false.
func (l *NopLogger) Enabled(_ Level) bool {
	return false
}

// Sync is a no-op.
func (l *NopLogger) Sync(_ context.Context) error { return nil }
