package acquire

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/mohdateeqmarch2-spec/hriday/internal/config"
	"github.com/mohdateeqmarch2-spec/hriday/internal/media"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services"
)

// Uploader validates user-selected files and stages accepted payloads.
type Uploader struct {
	stagingRoot string
}

// NewUploader constructs an uploader rooted at the configured staging
// directory.
func NewUploader(cfg *config.Config) *Uploader {
	return &Uploader{stagingRoot: cfg.Paths.StagingDir}
}

// Select considers only the first of the candidate paths, mirroring
// single-file capture surfaces, validates it, and stages an accepted payload
// for the session. The declared MIME type may be empty; extension mapping
// fills it when recognized. Rejection returns a validation error carrying
// the reason and stages nothing.
func (u *Uploader) Select(ctx context.Context, sessionID int64, paths []string) (media.Artifact, error) {
	var empty media.Artifact
	if err := ctx.Err(); err != nil {
		return empty, err
	}
	if len(paths) == 0 {
		return empty, services.Wrap(services.ErrValidation, "uploader", "select", "no file selected", nil)
	}

	source := strings.TrimSpace(paths[0])
	if source == "" {
		return empty, services.Wrap(services.ErrValidation, "uploader", "select", "no file selected", nil)
	}

	info, err := os.Stat(source)
	if errors.Is(err, os.ErrNotExist) {
		return empty, services.Wrap(services.ErrNotFound, "uploader", "select", "file not found: "+source, nil)
	}
	if err != nil {
		return empty, services.Wrap(services.ErrUnexpected, "uploader", "select", "inspect file", err)
	}
	if info.IsDir() {
		return empty, services.Wrap(services.ErrValidation, "uploader", "select", source+" is a directory", nil)
	}

	fileName := filepath.Base(source)
	mimeType := media.MIMEForFileName(fileName)

	if result := media.Validate(fileName, mimeType, info.Size()); !result.Accepted {
		return empty, services.Wrap(services.ErrValidation, "uploader", "select", result.Reason, nil)
	}

	dest := filepath.Join(SessionDir(u.stagingRoot, sessionID), fileName)
	written, err := copyFile(source, dest)
	if err != nil {
		return empty, services.Wrap(services.ErrUnexpected, "uploader", "select", "stage payload", err)
	}

	return media.Artifact{
		Path:      dest,
		FileName:  fileName,
		MIMEType:  mimeType,
		SizeBytes: written,
		Source:    media.SourceUploaded,
	}, nil
}
