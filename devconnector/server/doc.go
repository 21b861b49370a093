// Package server provides the HTTP server lifecycle and graceful shutdown.
//
// ServerManager starts the listener, waits for SIGINT, SIGTERM or a shutdown
// channel, stops the listener and then runs registered shutdown hooks in
// order, each bounded by the shutdown timeout.
package server
