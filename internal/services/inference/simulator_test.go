package inference_test

import (
	"context"
	"testing"
	"time"

	"github.com/mohdateeqmarch2-spec/hriday/internal/services/inference"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services/vitals"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
}

func TestSimulatorGeneratesOrderedSeries(t *testing.T) {
	sim := inference.NewSimulator(inference.WithSeed(1), inference.WithNow(fixedNow))

	samples, err := sim.GenerateSeries(context.Background(), inference.SeriesRequest{
		RecordingID:     "rec-1",
		DurationSeconds: 60,
		SourceName:      "clip.mp4",
	})
	if err != nil {
		t.Fatalf("GenerateSeries failed: %v", err)
	}
	if len(samples) != 60 {
		t.Fatalf("expected 60 samples, got %d", len(samples))
	}
	for i, sample := range samples {
		if sample.RecordingID != "rec-1" {
			t.Fatalf("sample %d: expected recording id, got %q", i, sample.RecordingID)
		}
		if sample.BPM < 45 || sample.BPM > 150 {
			t.Fatalf("sample %d: bpm %f outside plausible band", i, sample.BPM)
		}
		expected := fixedNow().Add(time.Duration(i) * time.Second)
		if !sample.Timestamp.Equal(expected) {
			t.Fatalf("sample %d: expected timestamp %v, got %v", i, expected, sample.Timestamp)
		}
	}
}

func TestSimulatorSeriesIsReproducibleWithSeed(t *testing.T) {
	req := inference.SeriesRequest{RecordingID: "rec-1", DurationSeconds: 10}

	first, err := inference.NewSimulator(inference.WithSeed(42), inference.WithNow(fixedNow)).
		GenerateSeries(context.Background(), req)
	if err != nil {
		t.Fatalf("GenerateSeries failed: %v", err)
	}
	second, err := inference.NewSimulator(inference.WithSeed(42), inference.WithNow(fixedNow)).
		GenerateSeries(context.Background(), req)
	if err != nil {
		t.Fatalf("GenerateSeries failed: %v", err)
	}
	for i := range first {
		if first[i].BPM != second[i].BPM {
			t.Fatalf("sample %d: expected identical series for identical seed", i)
		}
	}
}

func TestSimulatorRejectsNonPositiveDuration(t *testing.T) {
	sim := inference.NewSimulator(inference.WithSeed(1))
	if _, err := sim.GenerateSeries(context.Background(), inference.SeriesRequest{RecordingID: "rec-1"}); err == nil {
		t.Fatal("expected error for zero duration")
	}
}

func TestSimulatorPrediction(t *testing.T) {
	sim := inference.NewSimulator(inference.WithSeed(7))

	samples := []vitals.Sample{{BPM: 68}, {BPM: 72}, {BPM: 70}}
	prediction, err := sim.GeneratePrediction(context.Background(), inference.PredictionRequest{
		RecordingID: "rec-1",
		Samples:     samples,
	})
	if err != nil {
		t.Fatalf("GeneratePrediction failed: %v", err)
	}
	if prediction.RecordingID != "rec-1" {
		t.Fatalf("expected recording id carried, got %#v", prediction)
	}
	if prediction.RiskLevel != vitals.RiskLow {
		t.Fatalf("expected low risk for resting series, got %s (score %f)", prediction.RiskLevel, prediction.RiskScore)
	}
	if prediction.RiskScore < 0 || prediction.RiskScore > 1 {
		t.Fatalf("risk score out of range: %f", prediction.RiskScore)
	}
	if prediction.AverageBPM != 70 {
		t.Fatalf("expected average 70, got %f", prediction.AverageBPM)
	}
	if len(prediction.Insights) == 0 {
		t.Fatal("expected insights")
	}
	if prediction.Model == "" {
		t.Fatal("expected model identifier")
	}
}

func TestSimulatorPredictionEscalatesWithDeviation(t *testing.T) {
	sim := inference.NewSimulator(inference.WithSeed(7))

	samples := []vitals.Sample{{BPM: 120}, {BPM: 145}, {BPM: 132}}
	prediction, err := sim.GeneratePrediction(context.Background(), inference.PredictionRequest{
		RecordingID: "rec-1",
		Samples:     samples,
	})
	if err != nil {
		t.Fatalf("GeneratePrediction failed: %v", err)
	}
	if prediction.RiskLevel == vitals.RiskLow {
		t.Fatalf("expected elevated risk for tachycardic series, got %s (score %f)", prediction.RiskLevel, prediction.RiskScore)
	}
}

func TestSimulatorPredictionRequiresSamples(t *testing.T) {
	sim := inference.NewSimulator()
	if _, err := sim.GeneratePrediction(context.Background(), inference.PredictionRequest{RecordingID: "rec-1"}); err == nil {
		t.Fatal("expected error for empty series")
	}
}
