// Package log defines the logging interface and typed fields used across devconnector.
//
// Backends (see the zap package) implement Logger so the connection manager,
// HTTP layer and shutdown manager never depend on a concrete logging library.
package log
