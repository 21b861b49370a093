// Package devconnector holds process-wide helpers shared by the backend packages:
// environment variable readers, struct population from `env` tags, local .env
// loading, and request-scoped logger propagation through context.Context.
package devconnector
