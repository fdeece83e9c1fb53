package inference_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mohdateeqmarch2-spec/hriday/internal/services/inference"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services/vitals"
	"github.com/mohdateeqmarch2-spec/hriday/internal/testsupport"
)

func TestRemoteGenerateSeries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/heart-rate-series" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["recordingId"] != "rec-1" || req["durationSeconds"] != float64(60) {
			t.Errorf("unexpected request: %#v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"samples": []vitals.Sample{{BPM: 71}, {BPM: 72}},
		})
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Inference.Mode = inference.ModeRemote
	cfg.Inference.BaseURL = server.URL

	remote := inference.NewRemote(cfg)
	samples, err := remote.GenerateSeries(context.Background(), inference.SeriesRequest{
		RecordingID:     "rec-1",
		DurationSeconds: 60,
	})
	if err != nil {
		t.Fatalf("GenerateSeries failed: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
}

func TestRemoteGenerateSeriesRejectsEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"samples": []vitals.Sample{}})
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Inference.BaseURL = server.URL

	remote := inference.NewRemote(cfg)
	if _, err := remote.GenerateSeries(context.Background(), inference.SeriesRequest{RecordingID: "rec-1", DurationSeconds: 60}); err == nil {
		t.Fatal("expected error for empty series response")
	}
}

func TestRemoteGeneratePredictionNormalizesLevel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/risk-prediction" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"riskLevel": "HIGH",
			"riskScore": 0.81,
		})
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Inference.BaseURL = server.URL

	remote := inference.NewRemote(cfg)
	prediction, err := remote.GeneratePrediction(context.Background(), inference.PredictionRequest{
		RecordingID: "rec-2",
		Samples:     []vitals.Sample{{BPM: 130}},
	})
	if err != nil {
		t.Fatalf("GeneratePrediction failed: %v", err)
	}
	if prediction.RiskLevel != vitals.RiskHigh {
		t.Fatalf("expected normalized high level, got %q", prediction.RiskLevel)
	}
	if prediction.RecordingID != "rec-2" {
		t.Fatalf("expected recording id backfilled, got %#v", prediction)
	}
}

func TestNewFromConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	generator, err := inference.NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewFromConfig failed: %v", err)
	}
	if _, ok := generator.(*inference.Simulator); !ok {
		t.Fatalf("expected simulator for default mode, got %T", generator)
	}

	cfg.Inference.Mode = inference.ModeRemote
	cfg.Inference.BaseURL = "http://127.0.0.1:0"
	generator, err = inference.NewFromConfig(cfg)
	if err != nil {
		t.Fatalf("NewFromConfig remote failed: %v", err)
	}
	if _, ok := generator.(*inference.Remote); !ok {
		t.Fatalf("expected remote generator, got %T", generator)
	}

	cfg.Inference.Mode = "hybrid"
	if _, err := inference.NewFromConfig(cfg); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}
