// Package api defines wire-format types and converters for the daemon's HTTP
// API, plus the client the CLI uses to drive it. It translates internal
// session models into transport-friendly DTOs so consumers can render them
// without coupling to internal types.
//
// # Key Types
//
// Session: transport representation of a capture session with its staged
// artifact metadata, lifecycle state, and analysis pointer.
//
// DaemonStatus: aggregated runtime information including dependency and
// preflight check results.
//
// Results: the stored heart-rate analysis for a completed session.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript/TypeScript consumers. Internal
// enums (session.State, session.Mode) are exposed as lowercase strings.
// Timestamps use RFC3339 with milliseconds.
package api
