package mongo

import "errors"

var (
	// ErrNilManager is returned when a *Manager receiver is nil.
	ErrNilManager = errors.New("mongo manager is nil")
	// ErrNilResolver is returned by NewManager when no resolver is given.
	ErrNilResolver = errors.New("mongo connection string resolver is nil")
	// ErrNilDependency is returned when an Option sets a required dependency to nil.
	ErrNilDependency = errors.New("mongo option set a required dependency to nil")
	// ErrConnect wraps connection establishment failures.
	ErrConnect = errors.New("mongo connect failed")
	// ErrPing wraps connectivity probe failures.
	ErrPing = errors.New("mongo ping failed")
	// ErrDisconnect wraps disconnection failures.
	ErrDisconnect = errors.New("mongo disconnect failed")
	// ErrNilMongoClient is returned when the driver returns a nil client.
	ErrNilMongoClient = errors.New("mongo driver returned nil client")
	// ErrNotConnected is returned by handle accessors before Connect succeeds or after Close.
	ErrNotConnected = errors.New("mongo connection is not open")
	// ErrConnectInProgress is returned when Connect is called while another attempt is in flight.
	ErrConnectInProgress = errors.New("mongo connect already in progress")
	// ErrConnectFailed is returned when Connect is called after a failed attempt.
	ErrConnectFailed = errors.New("mongo connect previously failed")
	// ErrManagerClosed is returned when Connect is called after Close.
	ErrManagerClosed = errors.New("mongo manager is closed")
)

// ConnectionError reports a network, authentication or timeout failure while connecting.
type ConnectionError struct {
	Op  string
	Err error
}

func (e *ConnectionError) Error() string {
	if e == nil || e.Err == nil {
		return ErrConnect.Error()
	}

	return "mongo " + e.Op + ": " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

// ShutdownError reports a failure while releasing the connection.
type ShutdownError struct {
	Err error
}

func (e *ShutdownError) Error() string {
	if e == nil || e.Err == nil {
		return ErrDisconnect.Error()
	}

	return "mongo shutdown: " + e.Err.Error()
}

func (e *ShutdownError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}
