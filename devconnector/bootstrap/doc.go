// Package bootstrap wires configuration, logging, telemetry, the MongoDB
// connection manager and the HTTP server into one process lifecycle.
//
// The database connection is established before any listener is bound, so a
// process that cannot reach its store never accepts traffic. Run returns the
// process exit code; the caller passes it to os.Exit.
package bootstrap
