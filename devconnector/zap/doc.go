// Package zap adapts go.uber.org/zap to the devconnector log.Logger interface.
//
// The logger profile follows NODE_ENV: development and local run at debug level,
// everything else at info. Entries are also forwarded to the OpenTelemetry log
// bridge so they reach the collector when telemetry is enabled.
package zap
