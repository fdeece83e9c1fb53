// Package inference abstracts the heart-rate series and risk prediction
// boundary. Generation is an opaque, potentially slow, potentially failing
// remote call; the daemon ships a local simulator and an HTTP client for a
// real inference service, selected by configuration. Callers depend on the
// Generator interface so either can be substituted without touching the
// pipeline.
package inference

import (
	"context"
	"fmt"
	"strings"

	"github.com/mohdateeqmarch2-spec/hriday/internal/config"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services/vitals"
)

// SeriesRequest asks for a derived heart-rate series for one recording.
type SeriesRequest struct {
	RecordingID     string
	DurationSeconds int
	SourceName      string
}

// PredictionRequest asks for a risk prediction over a generated series.
type PredictionRequest struct {
	RecordingID string
	SourceName  string
	Samples     []vitals.Sample
}

// Generator produces derived vitals for a recording.
type Generator interface {
	GenerateSeries(ctx context.Context, req SeriesRequest) ([]vitals.Sample, error)
	GeneratePrediction(ctx context.Context, req PredictionRequest) (vitals.Prediction, error)
}

// Modes accepted by configuration.
const (
	ModeSimulated = "simulated"
	ModeRemote    = "remote"
)

// NewFromConfig selects the generator implementation for the configured mode.
func NewFromConfig(cfg *config.Config) (Generator, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Inference.Mode))
	switch mode {
	case "", ModeSimulated:
		return NewSimulator(), nil
	case ModeRemote:
		return NewRemote(cfg), nil
	default:
		return nil, fmt.Errorf("unknown inference mode %q", cfg.Inference.Mode)
	}
}
