// Package config loads the backend configuration and resolves the MongoDB
// connection string.
//
// Resolution order for the connection string is the MONGO_URI environment
// variable, then the `mongoURI` key of the layered configuration files
// (<dir>/default.* overlaid by <dir>/<NODE_ENV>.*). When neither yields a
// value, Resolve returns a *ConfigurationError.
package config
