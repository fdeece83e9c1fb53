// Package media models captured video artifacts and validates candidate
// files before a session accepts them.
//
// Validation is pure and synchronous: callers pass the declared MIME type,
// file name, and byte size, and receive an accept/reject result with a
// human-readable reason. The accepted format allow-list and the 100 MiB
// ceiling are the only contract surfaced to users, so keep them in sync with
// the backend's server-side checks.
package media
