package inference

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/mohdateeqmarch2-spec/hriday/internal/services"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services/vitals"
)

const simulatorModel = "hriday-sim-v1"

// Simulator is a local stand-in for the remote inference service. It
// synthesizes a plausible resting heart-rate series and scores risk from
// simple statistics over that series.
type Simulator struct {
	rng *rand.Rand
	now func() time.Time
}

// SimulatorOption customizes the simulator.
type SimulatorOption func(*Simulator)

// WithSeed fixes the random source so generated series are reproducible.
func WithSeed(seed int64) SimulatorOption {
	return func(s *Simulator) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

// WithNow overrides the clock used for sample timestamps.
func WithNow(now func() time.Time) SimulatorOption {
	return func(s *Simulator) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSimulator constructs a simulated generator.
func NewSimulator(opts ...SimulatorOption) *Simulator {
	sim := &Simulator{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(sim)
	}
	return sim
}

// GenerateSeries synthesizes one sample per second: a per-recording resting
// baseline with slow sinusoidal drift and small jitter, clamped to a
// physiologically plausible band.
func (s *Simulator) GenerateSeries(ctx context.Context, req SeriesRequest) ([]vitals.Sample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req.DurationSeconds <= 0 {
		return nil, services.Wrap(services.ErrValidation, "inference", "generate-series", "duration must be positive", nil)
	}

	baseline := 62 + s.rng.Float64()*26
	start := s.now().UTC()

	samples := make([]vitals.Sample, 0, req.DurationSeconds)
	for i := 0; i < req.DurationSeconds; i++ {
		drift := 4 * math.Sin(2*math.Pi*float64(i)/20)
		jitter := (s.rng.Float64() - 0.5) * 4
		bpm := baseline + drift + jitter
		if bpm < 45 {
			bpm = 45
		}
		if bpm > 150 {
			bpm = 150
		}
		samples = append(samples, vitals.Sample{
			RecordingID: req.RecordingID,
			Timestamp:   start.Add(time.Duration(i) * time.Second),
			BPM:         math.Round(bpm*10) / 10,
		})
	}
	return samples, nil
}

// GeneratePrediction scores risk from series statistics: distance of the
// average from a resting norm plus the spread of the series.
func (s *Simulator) GeneratePrediction(ctx context.Context, req PredictionRequest) (vitals.Prediction, error) {
	var empty vitals.Prediction
	if err := ctx.Err(); err != nil {
		return empty, err
	}
	if len(req.Samples) == 0 {
		return empty, services.Wrap(services.ErrValidation, "inference", "generate-prediction", "series is empty", nil)
	}

	stats := vitals.ComputeStats(req.Samples)

	deviation := math.Abs(stats.Average-70) / 40
	spread := (stats.Max - stats.Min) / 60
	score := deviation + spread*0.5
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	score = math.Round(score*100) / 100

	level := vitals.RiskLow
	switch {
	case score >= 0.66:
		level = vitals.RiskHigh
	case score >= 0.33:
		level = vitals.RiskModerate
	}

	insights := []string{
		fmt.Sprintf("average heart rate %.1f bpm over %d samples", stats.Average, stats.Count),
		fmt.Sprintf("range %.1f to %.1f bpm", stats.Min, stats.Max),
	}

	return vitals.Prediction{
		RecordingID: req.RecordingID,
		RiskLevel:   level,
		RiskScore:   score,
		AverageBPM:  math.Round(stats.Average*10) / 10,
		MinBPM:      stats.Min,
		MaxBPM:      stats.Max,
		Insights:    insights,
		Model:       simulatorModel,
	}, nil
}
