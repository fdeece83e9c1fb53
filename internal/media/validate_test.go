package media_test

import (
	"strings"
	"testing"

	"github.com/mohdateeqmarch2-spec/hriday/internal/media"
)

func TestValidateAcceptsRecognizedFormatsWithinLimit(t *testing.T) {
	cases := []struct {
		name     string
		fileName string
		mimeType string
		size     int64
	}{
		{"mp4 mime and extension", "clip.mp4", "video/mp4", 50 * 1024 * 1024},
		{"webm mime and extension", "clip.webm", "video/webm", 1024},
		{"quicktime", "clip.mov", "video/quicktime", 1024},
		{"avi", "clip.avi", "video/x-msvideo", 1024},
		{"mime only carries the format", "capture.bin", "video/mp4", 1024},
		{"extension only carries the format", "clip.mp4", "application/octet-stream", 1024},
		{"extension with no declared mime", "clip.MOV", "", 1024},
		{"mime parameters are ignored", "capture.raw", "video/webm;codecs=vp9", 1024},
		{"exactly at the ceiling", "clip.mp4", "video/mp4", media.MaxUploadBytes},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := media.Validate(tc.fileName, tc.mimeType, tc.size)
			if !result.Accepted {
				t.Fatalf("expected acceptance, got reason %q", result.Reason)
			}
			if result.Reason != "" {
				t.Fatalf("expected empty reason on acceptance, got %q", result.Reason)
			}
		})
	}
}

func TestValidateRejectsOversizeRegardlessOfFormat(t *testing.T) {
	oversize := media.MaxUploadBytes + 1
	for _, tc := range []struct {
		name     string
		fileName string
		mimeType string
	}{
		{"recognized format", "clip.mov", "video/quicktime"},
		{"unrecognized format", "notes.txt", "text/plain"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			result := media.Validate(tc.fileName, tc.mimeType, oversize)
			if result.Accepted {
				t.Fatal("expected rejection for oversize file")
			}
			if !strings.Contains(result.Reason, "too large") {
				t.Fatalf("expected size-specific reason, got %q", result.Reason)
			}
		})
	}
}

func TestValidateRejectsUnrecognizedFormat(t *testing.T) {
	result := media.Validate("notes.txt", "text/plain", 1024)
	if result.Accepted {
		t.Fatal("expected rejection for unrecognized format")
	}
	if !strings.Contains(result.Reason, "format") {
		t.Fatalf("expected format-specific reason, got %q", result.Reason)
	}
	if strings.Contains(result.Reason, "too large") {
		t.Fatalf("expected format reason, not size reason: %q", result.Reason)
	}
}

func TestValidateExtensionMatchingIsCaseInsensitive(t *testing.T) {
	for _, name := range []string{"CLIP.MP4", "clip.WebM", "Clip.Mov", "CLIP.avi"} {
		result := media.Validate(name, "", 1024)
		if !result.Accepted {
			t.Fatalf("expected %q to be accepted, got reason %q", name, result.Reason)
		}
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	first := media.Validate("clip.mp4", "video/mp4", 2048)
	second := media.Validate("clip.mp4", "video/mp4", 2048)
	if first != second {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
}
