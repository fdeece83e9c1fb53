package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mohdateeqmarch2-spec/hriday/internal/api"
	"github.com/mohdateeqmarch2-spec/hriday/internal/config"
	"github.com/mohdateeqmarch2-spec/hriday/internal/logging"
	"github.com/mohdateeqmarch2-spec/hriday/internal/media"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services"
	"github.com/mohdateeqmarch2-spec/hriday/internal/session"
)

type apiServer struct {
	bind    string
	staging string
	logger  *slog.Logger
	daemon  *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:    bind,
		staging: cfg.Paths.StagingDir,
		logger:  logger,
		daemon:  d,
	}

	token := strings.TrimSpace(cfg.Paths.APIToken)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", srv.handleHealth)
	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/sessions", authMiddleware(token, srv.handleSessions))
	mux.HandleFunc("/api/sessions/", authMiddleware(token, srv.handleSessionTree))
	mux.HandleFunc("/api/notify/test", authMiddleware(token, srv.handleNotifyTest))
	mux.HandleFunc("/api/shutdown", authMiddleware(token, srv.handleShutdown))

	srv.server = &http.Server{
		Handler:           requestIDMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       time.Minute,
	}
	return srv, nil
}

// requestIDMiddleware tags every request with a correlation id so handler
// logs can be tied back to the caller.
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// addr reports the bound listen address, which may differ from the
// configured bind when the port was chosen by the kernel.
func (s *apiServer) addr() string {
	if s == nil {
		return ""
	}
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:       status.Running,
		PID:           status.PID,
		SessionDBPath: status.SessionDBPath,
		LockFilePath:  status.LockFilePath,
		CameraPresent: status.CameraPresent,
		Sessions:      api.FromHealth(status.Sessions),
		Dependencies:  api.FromDependencyStatuses(status.Dependencies),
		Checks:        api.FromCheckResults(status.Checks),
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		var states []session.State
		for _, value := range r.URL.Query()["state"] {
			state, err := session.ParseState(value)
			if err != nil {
				s.writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			states = append(states, state)
		}
		sessions, err := s.daemon.orch.Sessions(r.Context(), states...)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.SessionListResponse{Sessions: api.FromSessions(sessions)})
	case http.MethodPost:
		sess, err := s.daemon.orch.StartSession(r.Context())
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, api.SessionResponse{Session: api.FromSession(sess)})
	case http.MethodDelete:
		removed, err := s.daemon.ClearCompleted(r.Context())
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.ClearedResponse{Removed: removed})
	default:
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *apiServer) handleSessionTree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	if rest == "active" {
		s.handleActiveSession(w, r)
		return
	}

	idStr, action, _ := strings.Cut(rest, "/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid session id")
		return
	}

	switch action {
	case "":
		switch r.Method {
		case http.MethodGet:
			sess, err := s.daemon.orch.Session(r.Context(), id)
			s.respondSession(w, r, sess, err)
		case http.MethodDelete:
			if err := s.daemon.RemoveSession(r.Context(), id); err != nil {
				s.writeServiceError(w, r, err)
				return
			}
			s.writeJSON(w, http.StatusOK, map[string]bool{"removed": true})
		default:
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	case "record":
		if !s.requirePost(w, r) {
			return
		}
		var req api.RecordRequest
		if !s.decodeJSON(w, r, &req, true) {
			return
		}
		sess, err := s.daemon.orch.StartRecording(r.Context(), id, req.MaxSeconds)
		s.respondSession(w, r, sess, err)
	case "record/stop":
		if !s.requirePost(w, r) {
			return
		}
		if err := s.daemon.orch.StopRecording(r.Context(), id); err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		sess, err := s.daemon.orch.Session(r.Context(), id)
		s.respondSession(w, r, sess, err)
	case "upload":
		if !s.requirePost(w, r) {
			return
		}
		s.handleUpload(w, r, id)
	case "confirm":
		if !s.requirePost(w, r) {
			return
		}
		sess, err := s.daemon.orch.Confirm(r.Context(), id)
		s.respondSession(w, r, sess, err)
	case "reset":
		if !s.requirePost(w, r) {
			return
		}
		sess, err := s.daemon.orch.Reset(r.Context(), id)
		s.respondSession(w, r, sess, err)
	case "progress":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		update, active := s.daemon.orch.CaptureProgress(id)
		s.writeJSON(w, http.StatusOK, api.ProgressResponse{Progress: api.FromProgress(update, active)})
	case "results":
		if r.Method != http.MethodGet {
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		prediction, samples, err := s.daemon.Results(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, api.ResultsResponse{Results: api.FromPrediction(prediction, samples)})
	default:
		s.writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *apiServer) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	sess, err := s.daemon.orch.ActiveSession(r.Context())
	s.respondSession(w, r, sess, err)
}

// handleUpload accepts either a JSON body naming files already on this host
// or a multipart form carrying the payloads themselves. Multipart parts are
// spooled into the staging directory so the uploader can validate and stage
// them like any local file, then removed.
func (s *apiServer) handleUpload(w http.ResponseWriter, r *http.Request, id int64) {
	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var paths []string
	if strings.HasPrefix(contentType, "multipart/") {
		spooled, cleanup, err := s.spoolMultipart(r)
		if cleanup != nil {
			defer cleanup()
		}
		if err != nil {
			s.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		paths = spooled
	} else {
		var req api.UploadRequest
		if !s.decodeJSON(w, r, &req, false) {
			return
		}
		paths = req.Paths
	}

	sess, err := s.daemon.orch.SelectUpload(r.Context(), id, paths)
	s.respondSession(w, r, sess, err)
}

func (s *apiServer) spoolMultipart(r *http.Request) ([]string, func(), error) {
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, nil, fmt.Errorf("parse multipart body: %w", err)
	}

	dir, err := os.MkdirTemp(s.staging, "incoming-")
	if err != nil {
		return nil, nil, fmt.Errorf("create spool directory: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	var paths []string
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, cleanup, fmt.Errorf("read multipart part: %w", err)
		}
		if part.FormName() != "file" || part.FileName() == "" {
			continue
		}

		dest := filepath.Join(dir, filepath.Base(part.FileName()))
		out, err := os.Create(dest)
		if err != nil {
			return nil, cleanup, fmt.Errorf("spool upload: %w", err)
		}
		// Cap the spool at one byte over the upload ceiling; an oversize
		// payload still trips the size validation without filling the disk.
		_, err = io.Copy(out, io.LimitReader(part, media.MaxUploadBytes+1))
		closeErr := out.Close()
		if err != nil {
			return nil, cleanup, fmt.Errorf("spool upload: %w", err)
		}
		if closeErr != nil {
			return nil, cleanup, fmt.Errorf("spool upload: %w", closeErr)
		}
		paths = append(paths, dest)
	}
	return paths, cleanup, nil
}

func (s *apiServer) handleNotifyTest(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}
	sent, message, err := s.daemon.TestNotification(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.NotifyTestResponse{Sent: sent, Message: message})
}

func (s *apiServer) handleShutdown(w http.ResponseWriter, r *http.Request) {
	if !s.requirePost(w, r) {
		return
	}
	s.log().Info("shutdown requested over api")
	s.daemon.RequestShutdown()
	s.writeJSON(w, http.StatusOK, api.ShutdownResponse{Stopping: true})
}

func (s *apiServer) respondSession(w http.ResponseWriter, r *http.Request, sess *session.Session, err error) {
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if sess == nil {
		s.writeError(w, http.StatusNotFound, "session not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.SessionResponse{Session: api.FromSession(sess)})
}

func (s *apiServer) requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	return true
}

// decodeJSON reads the request body into out. When optional is true an empty
// body succeeds and leaves out untouched.
func (s *apiServer) decodeJSON(w http.ResponseWriter, r *http.Request, out any, optional bool) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "read request body")
		return false
	}
	if len(body) == 0 {
		if optional {
			return true
		}
		s.writeError(w, http.StatusBadRequest, "request body is required")
		return false
	}
	if err := json.Unmarshal(body, out); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *apiServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	message := services.UserMessage(err)
	switch {
	case errors.Is(err, services.ErrNotFound):
		s.writeError(w, http.StatusNotFound, message)
	case errors.Is(err, services.ErrValidation):
		s.writeError(w, http.StatusBadRequest, message)
	case errors.Is(err, services.ErrBusy):
		s.writeError(w, http.StatusConflict, message)
	case errors.Is(err, services.ErrPermission):
		s.writeError(w, http.StatusForbidden, message)
	default:
		logging.WithContext(r.Context(), s.log()).Error("request failed",
			logging.Error(err),
			logging.String("path", r.URL.Path))
		s.writeError(w, http.StatusInternalServerError, message)
	}
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
