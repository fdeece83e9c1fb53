package vitals

import (
	"strings"
	"time"
)

// Risk levels assigned by the prediction boundary.
const (
	RiskLow      = "low"
	RiskModerate = "moderate"
	RiskHigh     = "high"
)

// Sample is one heart-rate measurement in a derived series. ID and CreatedAt
// are assigned by the backend on persistence; locally generated samples leave
// them zero and the client strips them from save requests regardless.
type Sample struct {
	ID          string    `json:"id,omitempty"`
	RecordingID string    `json:"recordingId,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	BPM         float64   `json:"bpm"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// Prediction is a cardiovascular risk assessment derived from a heart-rate
// series. As with Sample, identity and row timestamps belong to the backend.
type Prediction struct {
	ID          string    `json:"id,omitempty"`
	RecordingID string    `json:"recordingId"`
	RiskLevel   string    `json:"riskLevel"`
	RiskScore   float64   `json:"riskScore"`
	AverageBPM  float64   `json:"averageBpm"`
	MinBPM      float64   `json:"minBpm"`
	MaxBPM      float64   `json:"maxBpm"`
	Insights    []string  `json:"insights,omitempty"`
	Model       string    `json:"model,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// NormalizeRiskLevel maps free-form level text onto the known set, falling
// back to moderate for anything unrecognized.
func NormalizeRiskLevel(level string) string {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case RiskLow:
		return RiskLow
	case RiskHigh:
		return RiskHigh
	default:
		return RiskModerate
	}
}

// SeriesStats summarizes a sample sequence for prediction and display.
type SeriesStats struct {
	Count   int
	Average float64
	Min     float64
	Max     float64
}

// ComputeStats derives summary statistics from a series. An empty series
// yields a zero value.
func ComputeStats(samples []Sample) SeriesStats {
	stats := SeriesStats{Count: len(samples)}
	if len(samples) == 0 {
		return stats
	}
	stats.Min = samples[0].BPM
	stats.Max = samples[0].BPM
	var sum float64
	for _, sample := range samples {
		sum += sample.BPM
		if sample.BPM < stats.Min {
			stats.Min = sample.BPM
		}
		if sample.BPM > stats.Max {
			stats.Max = sample.BPM
		}
	}
	stats.Average = sum / float64(len(samples))
	return stats
}
