// Package mongo owns the process-wide MongoDB connection.
//
// A Manager resolves the connection string, dials with bounded timeouts over
// IPv4, tracks the connection through its lifecycle states and notifies
// subscribed observers of every transition. Close releases the connection and
// is terminal: a closed Manager never connects again.
package mongo
