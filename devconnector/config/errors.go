package config

import "errors"

// ErrConnectionStringUndefined is the cause carried by a resolution failure.
var ErrConnectionStringUndefined = errors.New("connection string not defined in environment or configuration")

// ErrInvalidConfig wraps configuration validation failures.
var ErrInvalidConfig = errors.New("invalid configuration")

// ConfigurationError reports that the connection string could not be resolved.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	if e == nil || e.Err == nil {
		return ErrConnectionStringUndefined.Error()
	}

	return "configuration error: " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}
