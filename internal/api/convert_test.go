package api_test

import (
	"testing"
	"time"

	"github.com/mohdateeqmarch2-spec/hriday/internal/api"
	"github.com/mohdateeqmarch2-spec/hriday/internal/media"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services/vitals"
	"github.com/mohdateeqmarch2-spec/hriday/internal/session"
)

func TestFromSessionIncludesArtifact(t *testing.T) {
	created := time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)
	sess := &session.Session{
		ID:             7,
		State:          session.StateReviewing,
		Title:          "Morning Check",
		ArtifactPath:   "/staging/session-7/clip.mp4",
		ArtifactName:   "clip.mp4",
		ArtifactMIME:   "video/mp4",
		ArtifactSize:   50 * 1024 * 1024,
		ArtifactSource: string(media.SourceUploaded),
		RecordingID:    "rec-9",
		CreatedAt:      created,
		UpdatedAt:      created.Add(time.Minute),
	}

	dto := api.FromSession(sess)
	if dto.ID != 7 || dto.State != "reviewing" {
		t.Fatalf("unexpected identity fields: %+v", dto)
	}
	if dto.Mode != "upload" {
		t.Fatalf("expected upload mode, got %q", dto.Mode)
	}
	if dto.FileName != "clip.mp4" || dto.MIMEType != "video/mp4" {
		t.Fatalf("unexpected artifact fields: %+v", dto)
	}
	if dto.DisplaySizeMB != 50 {
		t.Fatalf("expected display size 50, got %v", dto.DisplaySizeMB)
	}
	if dto.RecordingID != "rec-9" {
		t.Fatalf("unexpected recording id %q", dto.RecordingID)
	}
	if dto.CreatedAt != "2026-03-02T09:30:00.000Z" {
		t.Fatalf("unexpected createdAt %q", dto.CreatedAt)
	}
}

func TestFromSessionWithoutArtifact(t *testing.T) {
	dto := api.FromSession(&session.Session{ID: 1, State: session.StateUnselected})
	if dto.FileName != "" || dto.StagedPath != "" || dto.SizeBytes != 0 {
		t.Fatalf("expected empty artifact fields, got %+v", dto)
	}
	if dto.Mode != "none" {
		t.Fatalf("expected mode none, got %q", dto.Mode)
	}

	if got := api.FromSession(nil); got != (api.Session{}) {
		t.Fatalf("expected zero DTO for nil session, got %+v", got)
	}
}

func TestFromHealth(t *testing.T) {
	stats := api.FromHealth(session.HealthSummary{Total: 5, Active: 1, Reviewing: 2, Processing: 1, Complete: 1})
	if stats.Total != 5 || stats.Reviewing != 2 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestFromPredictionIncludesSamples(t *testing.T) {
	when := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	prediction := vitals.Prediction{
		RecordingID: "rec-9",
		RiskLevel:   "low",
		RiskScore:   0.12,
		AverageBPM:  71.5,
		Insights:    []string{"within normal range"},
	}
	samples := []vitals.Sample{
		{Timestamp: when, BPM: 70},
		{Timestamp: when.Add(time.Second), BPM: 73},
	}

	results := api.FromPrediction(prediction, samples)
	if results.RiskLevel != "low" || results.RecordingID != "rec-9" {
		t.Fatalf("unexpected results: %+v", results)
	}
	if len(results.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(results.Samples))
	}
	if results.Samples[0].BPM != 70 || results.Samples[0].Timestamp != "2026-03-02T10:00:00.000Z" {
		t.Fatalf("unexpected first sample: %+v", results.Samples[0])
	}
}
