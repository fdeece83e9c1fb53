package acquire

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// SessionDir returns the staging directory holding one session's payloads.
func SessionDir(stagingRoot string, sessionID int64) string {
	return filepath.Join(stagingRoot, fmt.Sprintf("session-%d", sessionID))
}

// Discard removes a session's staged payloads. Missing directories are not
// an error; reset must be callable from any state.
func Discard(stagingRoot string, sessionID int64) error {
	dir := SessionDir(stagingRoot, sessionID)
	if err := os.RemoveAll(dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("discard staged payloads: %w", err)
	}
	return nil
}

// copyFile copies src into dest through a partial file so readers never see
// a half-written payload.
func copyFile(src, dest string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, fmt.Errorf("create staging dir: %w", err)
	}

	partial := dest + ".partial"
	out, err := os.Create(partial)
	if err != nil {
		return 0, fmt.Errorf("create staged file: %w", err)
	}

	written, err := io.Copy(out, in)
	if err != nil {
		out.Close()
		_ = os.Remove(partial)
		return 0, fmt.Errorf("copy payload: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		_ = os.Remove(partial)
		return 0, fmt.Errorf("sync staged file: %w", err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(partial)
		return 0, fmt.Errorf("close staged file: %w", err)
	}
	if err := os.Rename(partial, dest); err != nil {
		_ = os.Remove(partial)
		return 0, fmt.Errorf("finalize staged file: %w", err)
	}
	return written, nil
}
