package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/mohdateeqmarch2-spec/hriday/internal/api"
	"github.com/mohdateeqmarch2-spec/hriday/internal/config"
	"github.com/mohdateeqmarch2-spec/hriday/internal/identity"
	"github.com/mohdateeqmarch2-spec/hriday/internal/logging"
	"github.com/mohdateeqmarch2-spec/hriday/internal/media"
	"github.com/mohdateeqmarch2-spec/hriday/internal/orchestrator"
	"github.com/mohdateeqmarch2-spec/hriday/internal/pipeline"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services"
	"github.com/mohdateeqmarch2-spec/hriday/internal/session"
	"github.com/mohdateeqmarch2-spec/hriday/internal/testsupport"
)

type stubProcessor struct{}

func (stubProcessor) Process(context.Context, identity.User, media.Artifact) (pipeline.Result, error) {
	return pipeline.Result{RecordingID: "rec-api"}, nil
}

type serverFixture struct {
	cfg   *config.Config
	store *session.Store
	d     *Daemon
	srv   *apiServer
}

func newServerFixture(t *testing.T, mutate func(*config.Config)) *serverFixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if mutate != nil {
		mutate(cfg)
	}
	store := testsupport.MustOpenStore(t, cfg)
	orch, err := orchestrator.New(cfg, store, logging.NewNop(),
		orchestrator.WithProcessor(stubProcessor{}))
	if err != nil {
		t.Fatalf("orchestrator.New: %v", err)
	}
	t.Cleanup(orch.Stop)
	d, err := New(cfg, store, logging.NewNop(), orch)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if d.api == nil {
		t.Fatal("expected daemon to carry an api server")
	}
	return &serverFixture{cfg: cfg, store: store, d: d, srv: d.api}
}

// do routes a request through the full handler chain without a listener.
func (f *serverFixture) do(t *testing.T, method, path string, body io.Reader, mutate func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := f.cfg.Paths.APIToken; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if mutate != nil {
		mutate(req)
	}
	rec := httptest.NewRecorder()
	f.srv.server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) api.Session {
	t.Helper()
	var resp api.SessionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode session response: %v (body %s)", err, rec.Body.String())
	}
	return resp.Session
}

func (f *serverFixture) waitForState(t *testing.T, id int64, want session.State) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		sess, err := f.store.GetByID(context.Background(), id)
		if err != nil {
			t.Fatalf("GetByID: %v", err)
		}
		if sess != nil && sess.State == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("session %d never reached %s", id, want)
}

func TestAPIServerHealthSkipsAuth(t *testing.T) {
	f := newServerFixture(t, func(cfg *config.Config) {
		cfg.Paths.APIToken = "secret-token"
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	f.srv.server.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for unauthenticated health check, got %d", rec.Code)
	}
}

func TestAPIServerRequiresToken(t *testing.T) {
	f := newServerFixture(t, func(cfg *config.Config) {
		cfg.Paths.APIToken = "secret-token"
	})

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic secret-token", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer secret-token", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			f.srv.server.Handler.ServeHTTP(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d (body %s)", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAPIServerStatus(t *testing.T) {
	f := newServerFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/status", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", rec.Code, rec.Body.String())
	}

	var status api.DaemonStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.PID <= 0 {
		t.Fatalf("expected positive pid, got %d", status.PID)
	}
	if status.Running {
		t.Fatal("daemon was never started; expected running=false")
	}
	if len(status.Checks) == 0 {
		t.Fatal("expected preflight checks in status payload")
	}
}

func TestAPIServerSessionLifecycle(t *testing.T) {
	f := newServerFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/sessions", nil, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (body %s)", rec.Code, rec.Body.String())
	}
	created := decodeSession(t, rec)
	if created.ID <= 0 {
		t.Fatalf("expected session id, got %d", created.ID)
	}
	if created.State != string(session.StateUnselected) {
		t.Fatalf("expected unselected, got %s", created.State)
	}

	source := filepath.Join(testsupport.BaseDir(f.cfg), "incoming", "clip.mp4")
	testsupport.WriteFile(t, source, 2048)

	body, err := json.Marshal(api.UploadRequest{Paths: []string{source}})
	if err != nil {
		t.Fatalf("marshal upload request: %v", err)
	}
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/sessions/%d/upload", created.ID), bytes.NewReader(body), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d (body %s)", rec.Code, rec.Body.String())
	}
	staged := decodeSession(t, rec)
	if staged.State != string(session.StateReviewing) {
		t.Fatalf("expected reviewing, got %s", staged.State)
	}
	if staged.FileName != "clip.mp4" {
		t.Fatalf("expected clip.mp4, got %q", staged.FileName)
	}
	if staged.Mode != string(session.ModeUpload) {
		t.Fatalf("expected upload mode, got %q", staged.Mode)
	}

	rec = f.do(t, http.MethodGet, "/api/sessions?state=reviewing", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var list api.SessionListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Sessions) != 1 {
		t.Fatalf("expected 1 reviewing session, got %d", len(list.Sessions))
	}

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/sessions/%d/confirm", created.ID), nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("confirm: expected 200, got %d (body %s)", rec.Code, rec.Body.String())
	}
	confirmed := decodeSession(t, rec)
	if confirmed.State != string(session.StateProcessing) {
		t.Fatalf("expected processing, got %s", confirmed.State)
	}

	f.waitForState(t, created.ID, session.StateComplete)

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/sessions/%d", created.ID), nil, nil)
	final := decodeSession(t, rec)
	if final.RecordingID != "rec-api" {
		t.Fatalf("expected recording id rec-api, got %q", final.RecordingID)
	}

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/api/sessions/%d/progress", created.ID), nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("progress: expected 200, got %d", rec.Code)
	}
	var progress api.ProgressResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &progress); err != nil {
		t.Fatalf("decode progress: %v", err)
	}
	if progress.Progress.Active {
		t.Fatal("expected no active capture")
	}
}

func TestAPIServerUploadMultipart(t *testing.T) {
	f := newServerFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/sessions", nil, nil)
	created := decodeSession(t, rec)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "walkthrough.mp4")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte{0x42}, 4096)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/sessions/%d/upload", created.ID), &buf, func(req *http.Request) {
		req.Header.Set("Content-Type", writer.FormDataContentType())
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("multipart upload: expected 200, got %d (body %s)", rec.Code, rec.Body.String())
	}
	staged := decodeSession(t, rec)
	if staged.State != string(session.StateReviewing) {
		t.Fatalf("expected reviewing, got %s", staged.State)
	}
	if staged.FileName != "walkthrough.mp4" {
		t.Fatalf("expected walkthrough.mp4, got %q", staged.FileName)
	}

	// The spool directory must be gone once the artifact is staged.
	leftovers, err := filepath.Glob(filepath.Join(f.cfg.Paths.StagingDir, "incoming-*"))
	if err != nil {
		t.Fatalf("glob staging dir: %v", err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("expected spool cleanup, found %v", leftovers)
	}
}

func TestAPIServerUploadRejectsWrongFormat(t *testing.T) {
	f := newServerFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/sessions", nil, nil)
	created := decodeSession(t, rec)

	source := filepath.Join(testsupport.BaseDir(f.cfg), "incoming", "notes.txt")
	testsupport.WriteFile(t, source, 64)

	body, err := json.Marshal(api.UploadRequest{Paths: []string{source}})
	if err != nil {
		t.Fatalf("marshal upload request: %v", err)
	}
	rec = f.do(t, http.MethodPost, fmt.Sprintf("/api/sessions/%d/upload", created.ID), bytes.NewReader(body), nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for wrong format, got %d (body %s)", rec.Code, rec.Body.String())
	}
	var errResp api.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if errResp.Error == "" {
		t.Fatal("expected an error message")
	}
}

func TestAPIServerValidationErrors(t *testing.T) {
	f := newServerFixture(t, nil)

	cases := []struct {
		name   string
		method string
		path   string
		want   int
	}{
		{"bad state filter", http.MethodGet, "/api/sessions?state=bogus", http.StatusBadRequest},
		{"bad session id", http.MethodGet, "/api/sessions/abc", http.StatusBadRequest},
		{"unknown action", http.MethodGet, "/api/sessions/1/bogus", http.StatusNotFound},
		{"missing session", http.MethodGet, "/api/sessions/9999", http.StatusNotFound},
		{"method on collection", http.MethodPut, "/api/sessions", http.StatusMethodNotAllowed},
		{"get on confirm", http.MethodGet, "/api/sessions/1/confirm", http.StatusMethodNotAllowed},
		{"results without analysis", http.MethodGet, "/api/sessions/9999/results", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := f.do(t, tc.method, tc.path, nil, nil)
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d (body %s)", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAPIServerActiveSession(t *testing.T) {
	f := newServerFixture(t, nil)

	rec := f.do(t, http.MethodGet, "/api/sessions/active", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body %s)", rec.Code, rec.Body.String())
	}
	first := decodeSession(t, rec)
	if first.ID <= 0 {
		t.Fatal("expected active session to be created on demand")
	}

	rec = f.do(t, http.MethodGet, "/api/sessions/active", nil, nil)
	second := decodeSession(t, rec)
	if second.ID != first.ID {
		t.Fatalf("expected stable active session, got %d then %d", first.ID, second.ID)
	}
}

func TestAPIServerShutdown(t *testing.T) {
	f := newServerFixture(t, nil)

	rec := f.do(t, http.MethodPost, "/api/shutdown", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp api.ShutdownResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode shutdown response: %v", err)
	}
	if !resp.Stopping {
		t.Fatal("expected stopping=true")
	}

	select {
	case <-f.d.ShutdownRequested():
	default:
		t.Fatal("expected shutdown channel to be closed")
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = services.RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	handler.ServeHTTP(rec, req)

	if seen != "req-42" {
		t.Fatalf("expected propagated request id, got %q", seen)
	}
	if rec.Header().Get("X-Request-ID") != "req-42" {
		t.Fatalf("expected echoed request id header, got %q", rec.Header().Get("X-Request-ID"))
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	handler.ServeHTTP(rec, req)

	if seen == "" || seen == "req-42" {
		t.Fatalf("expected generated request id, got %q", seen)
	}
	if rec.Header().Get("X-Request-ID") != seen {
		t.Fatal("expected generated id echoed in response header")
	}
}
