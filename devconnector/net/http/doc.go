// Package http builds the Fiber application that fronts the API.
//
// NewApp wires recovery, request ids, tracing, access logging and CORS, gates
// /api on database readiness, mounts the route groups and, in production,
// serves the single-page client with an index.html fallback.
package http
