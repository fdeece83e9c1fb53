// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The acquisition workflow uses it to probe the real duration of staged
// payloads when capture.probe_duration is enabled, and to confirm an
// imported file actually carries a video stream before surfacing diagnostics.
//
// Primary entry point:
//   - Inspect: executes ffprobe and returns a parsed Result
package ffprobe
