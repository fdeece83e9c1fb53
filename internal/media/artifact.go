package media

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SourceKind identifies how an artifact entered the session.
type SourceKind string

const (
	SourceRecorded SourceKind = "recorded"
	SourceUploaded SourceKind = "uploaded"
)

var allSourceKinds = []SourceKind{SourceRecorded, SourceUploaded}

// ParseSourceKind converts stored text into a SourceKind.
func ParseSourceKind(value string) (SourceKind, error) {
	normalized := SourceKind(strings.ToLower(strings.TrimSpace(value)))
	for _, kind := range allSourceKinds {
		if kind == normalized {
			return kind, nil
		}
	}
	return "", fmt.Errorf("unknown source kind %q", value)
}

func (k SourceKind) String() string { return string(k) }

// Artifact is the single captured or selected video payload flowing through
// a session. The payload lives at Path inside the session's staging
// directory. Artifacts are immutable once created; replacing one means
// building a new value.
type Artifact struct {
	Path      string
	FileName  string
	MIMEType  string
	SizeBytes int64
	Source    SourceKind
}

// DisplayName returns the artifact's original file name, falling back to the
// staged payload's base name.
func (a Artifact) DisplayName() string {
	if name := strings.TrimSpace(a.FileName); name != "" {
		return name
	}
	return filepath.Base(a.Path)
}

// DisplaySizeMB renders the payload size in megabytes rounded to two
// decimals, matching what acquisition surfaces show next to the file name.
func (a Artifact) DisplaySizeMB() float64 {
	mb := float64(a.SizeBytes) / (1024 * 1024)
	return math.Round(mb*100) / 100
}

// DeriveTitle produces a session display title from a file name or path.
func DeriveTitle(sourcePath string) string {
	if sourcePath == "" {
		return "Untitled Recording"
	}
	base := filepath.Base(sourcePath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range base {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Untitled Recording"
	}
	return cases.Title(language.Und).String(title)
}
