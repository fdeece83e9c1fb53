package media

import (
	"path/filepath"
	"strings"
)

// MaxUploadBytes is the hard payload ceiling enforced before any upload or
// recording is accepted into a session.
const MaxUploadBytes int64 = 100 * 1024 * 1024

var acceptedMIMETypes = map[string]struct{}{
	"video/mp4":       {},
	"video/webm":      {},
	"video/quicktime": {},
	"video/x-msvideo": {},
}

var acceptedExtensions = map[string]struct{}{
	".mp4":  {},
	".webm": {},
	".mov":  {},
	".avi":  {},
}

// ValidationResult reports whether a candidate file may enter a session.
// Reason is set only on rejection.
type ValidationResult struct {
	Accepted bool
	Reason   string
}

// Validate checks a candidate video's declared MIME type, file name, and
// size. Format acceptance is a logical OR: a recognized MIME type or a
// recognized extension suffices. Files over MaxUploadBytes are rejected
// regardless of format. Pure and idempotent.
func Validate(fileName, mimeType string, sizeBytes int64) ValidationResult {
	if sizeBytes > MaxUploadBytes {
		return ValidationResult{Reason: "file too large: maximum size is 100 MB"}
	}
	if !formatAccepted(fileName, mimeType) {
		return ValidationResult{Reason: "unsupported format: expected MP4, WebM, MOV, or AVI"}
	}
	return ValidationResult{Accepted: true}
}

func formatAccepted(fileName, mimeType string) bool {
	if _, ok := acceptedMIMETypes[normalizeMIME(mimeType)]; ok {
		return true
	}
	ext := strings.ToLower(filepath.Ext(fileName))
	_, ok := acceptedExtensions[ext]
	return ok
}

var extensionMIMEs = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mov":  "video/quicktime",
	".avi":  "video/x-msvideo",
}

// MIMEForFileName maps a file name's extension onto the canonical declared
// MIME type, or returns empty when the extension is not a recognized video
// container. The Go mime tables do not cover video containers reliably, so
// acquisition surfaces use this mapping when declaring types.
func MIMEForFileName(fileName string) string {
	return extensionMIMEs[strings.ToLower(filepath.Ext(fileName))]
}

func normalizeMIME(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	// Declared types may carry parameters such as "video/webm;codecs=vp9".
	if idx := strings.IndexByte(mimeType, ';'); idx >= 0 {
		mimeType = strings.TrimSpace(mimeType[:idx])
	}
	return mimeType
}
