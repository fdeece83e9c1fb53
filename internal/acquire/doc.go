// Package acquire produces the single validated artifact a session carries:
// either a live camera capture through ffmpeg or a file selected for import.
// Both paths validate against the same format and size constraints and stage
// accepted payloads under the session's staging directory.
package acquire
