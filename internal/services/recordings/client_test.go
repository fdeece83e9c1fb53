package recordings_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mohdateeqmarch2-spec/hriday/internal/services/recordings"
	"github.com/mohdateeqmarch2-spec/hriday/internal/testsupport"
)

func TestCreateReturnsAssignedID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/recordings" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var got recordings.CreateRequest
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if got.DurationSeconds != 60 {
			t.Errorf("expected 60 second duration, got %d", got.DurationSeconds)
		}
		json.NewEncoder(w).Encode(recordings.Recording{
			ID:              "rec-9",
			UserID:          got.UserID,
			FileName:        got.FileName,
			DurationSeconds: got.DurationSeconds,
		})
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithServicesURL(server.URL))
	client := recordings.NewClient(cfg)

	rec, err := client.Create(context.Background(), recordings.CreateRequest{
		UserID:          "user-1",
		FileName:        "clip.mp4",
		DurationSeconds: 60,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if rec.ID != "rec-9" {
		t.Fatalf("expected assigned id, got %#v", rec)
	}
}

func TestCreateRejectsMissingFields(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	client := recordings.NewClient(cfg)

	cases := []recordings.CreateRequest{
		{FileName: "clip.mp4", DurationSeconds: 60},
		{UserID: "user-1", DurationSeconds: 60},
		{UserID: "user-1", FileName: "clip.mp4"},
	}
	for i, create := range cases {
		if _, err := client.Create(context.Background(), create); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestCreateFailsWhenBackendOmitsID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"userId": "user-1"})
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithServicesURL(server.URL))
	client := recordings.NewClient(cfg)

	if _, err := client.Create(context.Background(), recordings.CreateRequest{
		UserID:          "user-1",
		FileName:        "clip.mp4",
		DurationSeconds: 60,
	}); err == nil {
		t.Fatal("expected error when backend omits id")
	}
}

func TestGetFetchesByID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/recordings/rec-3" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(recordings.Recording{ID: "rec-3", UserID: "user-1", FileName: "clip.mp4", DurationSeconds: 60})
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithServicesURL(server.URL))
	client := recordings.NewClient(cfg)

	rec, err := client.Get(context.Background(), "rec-3")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.FileName != "clip.mp4" {
		t.Fatalf("unexpected recording: %#v", rec)
	}
}
