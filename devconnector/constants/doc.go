// Package constant holds environment variable names, defaults and telemetry keys.
package constant
