package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mohdateeqmarch2-spec/hriday/internal/api"
	"github.com/mohdateeqmarch2-spec/hriday/internal/config"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services"
)

func clientForServer(srv *httptest.Server, token string) *api.Client {
	cfg := config.Default()
	cfg.Paths.APIBind = strings.TrimPrefix(srv.URL, "http://")
	cfg.Paths.APIToken = token
	return api.NewClient(&cfg)
}

func TestClientSendsAuthAndDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.Method + " " + r.URL.Path {
		case "POST /api/sessions":
			json.NewEncoder(w).Encode(api.SessionResponse{Session: api.Session{ID: 3, State: "unselected"}})
		case "POST /api/sessions/3/record":
			var req api.RecordRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.MaxSeconds != 15 {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			json.NewEncoder(w).Encode(api.SessionResponse{Session: api.Session{ID: 3, State: "recording"}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := clientForServer(srv, "secret")
	sess, err := client.StartSession(context.Background())
	if err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if sess.ID != 3 || sess.State != "unselected" {
		t.Fatalf("unexpected session: %+v", sess)
	}

	sess, err = client.StartRecording(context.Background(), 3, 15)
	if err != nil {
		t.Fatalf("StartRecording: %v", err)
	}
	if sess.State != "recording" {
		t.Fatalf("unexpected state %q", sess.State)
	}
}

func TestClientMapsErrorStatuses(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, services.ErrValidation},
		{http.StatusNotFound, services.ErrNotFound},
		{http.StatusConflict, services.ErrBusy},
		{http.StatusForbidden, services.ErrPermission},
		{http.StatusInternalServerError, services.ErrUnexpected},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.status)
			json.NewEncoder(w).Encode(api.ErrorResponse{Error: "boom"})
		}))
		client := clientForServer(srv, "")
		_, err := client.Session(context.Background(), 1)
		srv.Close()
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: expected %v, got %v", tc.status, tc.want, err)
		}
		if err == nil || !strings.Contains(err.Error(), "boom") {
			t.Errorf("status %d: expected server message in error, got %v", tc.status, err)
		}
	}
}

func TestClientReportsDaemonUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	client := clientForServer(srv, "")
	srv.Close()

	err := client.Health(context.Background())
	if !errors.Is(err, api.ErrDaemonUnavailable) {
		t.Fatalf("expected ErrDaemonUnavailable, got %v", err)
	}
}

func TestClientSessionsFilter(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(api.SessionListResponse{Sessions: []api.Session{{ID: 1}, {ID: 2}}})
	}))
	defer srv.Close()

	client := clientForServer(srv, "")
	sessions, err := client.Sessions(context.Background(), "reviewing", "complete")
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if !strings.Contains(gotQuery, "state=reviewing") || !strings.Contains(gotQuery, "state=complete") {
		t.Fatalf("unexpected query %q", gotQuery)
	}
}
