package preflight

import (
	"context"

	"github.com/mohdateeqmarch2-spec/hriday/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding setting is present.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Staging and data directories (always checked)
	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))

	// Log directory (when configured)
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	results = append(results, CheckFreeSpace(cfg.Paths.StagingDir))
	results = append(results, CheckCaptureDevices(cfg.Capture.VideoDevice, cfg.Capture.AudioDevice)...)

	// Services backend
	if cfg.Services.BaseURL != "" {
		results = append(results, CheckBackend(ctx, cfg.Services.BaseURL, cfg.Services.APIKey))
	}

	return results
}
