// Package opentelemetry builds the tracer, meter and logger providers for the service.
//
// NewTelemetry runs in disabled mode when no collector is configured, returning
// SDK providers without exporters so instrumented code keeps working unchanged.
package opentelemetry
