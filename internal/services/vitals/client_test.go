package vitals_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mohdateeqmarch2-spec/hriday/internal/services/vitals"
	"github.com/mohdateeqmarch2-spec/hriday/internal/testsupport"
)

func TestSaveSeriesStripsServerFields(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/recordings/rec-1/series" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]int{"saved": 2})
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithServicesURL(server.URL))
	client := vitals.NewClient(cfg)

	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	samples := []vitals.Sample{
		{ID: "local-1", RecordingID: "rec-1", Timestamp: base, BPM: 72, CreatedAt: base},
		{ID: "local-2", RecordingID: "rec-1", Timestamp: base.Add(time.Second), BPM: 74, CreatedAt: base},
	}

	saved, err := client.SaveSeries(context.Background(), "rec-1", samples)
	if err != nil {
		t.Fatalf("SaveSeries failed: %v", err)
	}
	if saved != 2 {
		t.Fatalf("expected 2 rows saved, got %d", saved)
	}

	rows, ok := raw["samples"].([]any)
	if !ok || len(rows) != 2 {
		t.Fatalf("unexpected request payload: %#v", raw)
	}
	for i, entry := range rows {
		row := entry.(map[string]any)
		if _, present := row["id"]; present {
			t.Errorf("row %d: expected id stripped, got %#v", i, row)
		}
		if _, present := row["createdAt"]; present {
			t.Errorf("row %d: expected createdAt stripped, got %#v", i, row)
		}
		if _, present := row["bpm"]; !present {
			t.Errorf("row %d: expected bpm present, got %#v", i, row)
		}
	}
}

func TestSaveSeriesRejectsEmptySeries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	client := vitals.NewClient(cfg)

	if _, err := client.SaveSeries(context.Background(), "rec-1", nil); err == nil {
		t.Fatal("expected error for empty series")
	}
}

func TestSavePredictionStripsServerFields(t *testing.T) {
	var raw map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/recordings/rec-1/prediction" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(vitals.Prediction{
			ID:          "pred-1",
			RecordingID: "rec-1",
			RiskLevel:   vitals.RiskLow,
			RiskScore:   0.12,
			CreatedAt:   time.Now().UTC(),
		})
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithServicesURL(server.URL))
	client := vitals.NewClient(cfg)

	stored, err := client.SavePrediction(context.Background(), vitals.Prediction{
		ID:          "local-id",
		RecordingID: "rec-1",
		RiskLevel:   "LOW",
		RiskScore:   0.12,
		AverageBPM:  71.5,
		MinBPM:      64,
		MaxBPM:      88,
		CreatedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("SavePrediction failed: %v", err)
	}
	if stored.ID != "pred-1" {
		t.Fatalf("expected backend id, got %#v", stored)
	}

	if _, present := raw["id"]; present {
		t.Errorf("expected id stripped from request, got %#v", raw)
	}
	if _, present := raw["createdAt"]; present {
		t.Errorf("expected createdAt stripped from request, got %#v", raw)
	}
	if raw["riskLevel"] != vitals.RiskLow {
		t.Errorf("expected normalized risk level, got %#v", raw["riskLevel"])
	}
}

func TestSeriesAndPredictionReads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/recordings/rec-2/series":
			json.NewEncoder(w).Encode(map[string]any{
				"samples": []vitals.Sample{{ID: "s-1", RecordingID: "rec-2", BPM: 70}},
			})
		case "/api/recordings/rec-2/prediction":
			json.NewEncoder(w).Encode(vitals.Prediction{ID: "p-1", RecordingID: "rec-2", RiskLevel: vitals.RiskModerate})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithServicesURL(server.URL))
	client := vitals.NewClient(cfg)

	samples, err := client.SeriesForRecording(context.Background(), "rec-2")
	if err != nil {
		t.Fatalf("SeriesForRecording failed: %v", err)
	}
	if len(samples) != 1 || samples[0].BPM != 70 {
		t.Fatalf("unexpected series: %#v", samples)
	}

	prediction, err := client.PredictionForRecording(context.Background(), "rec-2")
	if err != nil {
		t.Fatalf("PredictionForRecording failed: %v", err)
	}
	if prediction.ID != "p-1" || prediction.RiskLevel != vitals.RiskModerate {
		t.Fatalf("unexpected prediction: %#v", prediction)
	}
}

func TestComputeStats(t *testing.T) {
	if stats := vitals.ComputeStats(nil); stats.Count != 0 || stats.Average != 0 {
		t.Fatalf("expected zero stats for empty series, got %#v", stats)
	}

	samples := []vitals.Sample{{BPM: 60}, {BPM: 80}, {BPM: 70}}
	stats := vitals.ComputeStats(samples)
	if stats.Count != 3 {
		t.Fatalf("expected count 3, got %d", stats.Count)
	}
	if stats.Min != 60 || stats.Max != 80 {
		t.Fatalf("unexpected min/max: %#v", stats)
	}
	if stats.Average != 70 {
		t.Fatalf("expected average 70, got %f", stats.Average)
	}
}

func TestNormalizeRiskLevel(t *testing.T) {
	cases := map[string]string{
		"low":      vitals.RiskLow,
		" HIGH ":   vitals.RiskHigh,
		"moderate": vitals.RiskModerate,
		"elevated": vitals.RiskModerate,
		"":         vitals.RiskModerate,
	}
	for raw, want := range cases {
		if got := vitals.NormalizeRiskLevel(raw); got != want {
			t.Errorf("NormalizeRiskLevel(%q) = %s, want %s", raw, got, want)
		}
	}
}
