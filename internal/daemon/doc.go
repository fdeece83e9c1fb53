// Package daemon coordinates the long-running Hriday process and system
// integration points.
//
// It wires configuration, session storage, the orchestrator, the HTTP API,
// and the camera hotplug monitor into a single lifecycle with flock-based
// locking to prevent multiple instances. The daemon exposes session
// maintenance helpers, runs the startup recovery sweep, and emits dependency
// health summaries.
//
// Keep coordination logic here: session semantics live in the orchestrator
// while the daemon focuses on startup, shutdown, and the API surface.
package daemon
