package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mohdateeqmarch2-spec/hriday/internal/config"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services"
)

// ErrDaemonUnavailable marks connection failures so callers can suggest
// starting the daemon.
var ErrDaemonUnavailable = errors.New("daemon unavailable")

// Client drives the daemon's HTTP API on behalf of the CLI.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// ClientOption customizes the API client.
type ClientOption func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithBaseURL overrides the bind-derived base URL.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/"); trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient constructs a daemon API client from configuration.
func NewClient(cfg *config.Config, opts ...ClientOption) *Client {
	client := &Client{httpClient: &http.Client{Timeout: 30 * time.Second}}
	if cfg != nil {
		if bind := strings.TrimSpace(cfg.Paths.APIBind); bind != "" {
			client.baseURL = "http://" + bind
		}
		client.token = strings.TrimSpace(cfg.Paths.APIToken)
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Health reports whether the daemon answers on its API address.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/health", nil, nil)
}

// Status retrieves aggregated daemon runtime information.
func (c *Client) Status(ctx context.Context) (DaemonStatus, error) {
	var status DaemonStatus
	err := c.do(ctx, http.MethodGet, "/api/status", nil, &status)
	return status, err
}

// StartSession creates a fresh session.
func (c *Client) StartSession(ctx context.Context) (Session, error) {
	var resp SessionResponse
	err := c.do(ctx, http.MethodPost, "/api/sessions", nil, &resp)
	return resp.Session, err
}

// ActiveSession returns the most recent session, creating one when the
// store is empty.
func (c *Client) ActiveSession(ctx context.Context) (Session, error) {
	var resp SessionResponse
	err := c.do(ctx, http.MethodGet, "/api/sessions/active", nil, &resp)
	return resp.Session, err
}

// Session fetches one session by id.
func (c *Client) Session(ctx context.Context, id int64) (Session, error) {
	var resp SessionResponse
	err := c.do(ctx, http.MethodGet, c.sessionPath(id, ""), nil, &resp)
	return resp.Session, err
}

// Sessions lists sessions, optionally filtered by state.
func (c *Client) Sessions(ctx context.Context, states ...string) ([]Session, error) {
	path := "/api/sessions"
	if len(states) > 0 {
		values := url.Values{}
		for _, state := range states {
			if trimmed := strings.TrimSpace(state); trimmed != "" {
				values.Add("state", trimmed)
			}
		}
		if encoded := values.Encode(); encoded != "" {
			path += "?" + encoded
		}
	}
	var resp SessionListResponse
	err := c.do(ctx, http.MethodGet, path, nil, &resp)
	return resp.Sessions, err
}

// StartRecording begins a camera capture for the session.
func (c *Client) StartRecording(ctx context.Context, id int64, maxSeconds int) (Session, error) {
	var resp SessionResponse
	err := c.do(ctx, http.MethodPost, c.sessionPath(id, "record"), RecordRequest{MaxSeconds: maxSeconds}, &resp)
	return resp.Session, err
}

// StopRecording ends the session's capture, keeping footage recorded so far.
func (c *Client) StopRecording(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPost, c.sessionPath(id, "record/stop"), nil, nil)
}

// Progress reports live capture progress for the session.
func (c *Client) Progress(ctx context.Context, id int64) (CaptureProgress, error) {
	var resp ProgressResponse
	err := c.do(ctx, http.MethodGet, c.sessionPath(id, "progress"), nil, &resp)
	return resp.Progress, err
}

// Upload selects files on the daemon host for import into the session.
func (c *Client) Upload(ctx context.Context, id int64, paths []string) (Session, error) {
	var resp SessionResponse
	err := c.do(ctx, http.MethodPost, c.sessionPath(id, "upload"), UploadRequest{Paths: paths}, &resp)
	return resp.Session, err
}

// Confirm submits the session's staged artifact for processing.
func (c *Client) Confirm(ctx context.Context, id int64) (Session, error) {
	var resp SessionResponse
	err := c.do(ctx, http.MethodPost, c.sessionPath(id, "confirm"), nil, &resp)
	return resp.Session, err
}

// Reset returns the session to its initial state, discarding any artifact.
func (c *Client) Reset(ctx context.Context, id int64) (Session, error) {
	var resp SessionResponse
	err := c.do(ctx, http.MethodPost, c.sessionPath(id, "reset"), nil, &resp)
	return resp.Session, err
}

// Remove deletes a session row.
func (c *Client) Remove(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, c.sessionPath(id, ""), nil, nil)
}

// ClearCompleted removes completed sessions and reports how many were
// deleted.
func (c *Client) ClearCompleted(ctx context.Context) (int64, error) {
	var resp ClearedResponse
	err := c.do(ctx, http.MethodDelete, "/api/sessions", nil, &resp)
	return resp.Removed, err
}

// Results fetches the stored analysis for a completed session.
func (c *Client) Results(ctx context.Context, id int64) (Results, error) {
	var resp ResultsResponse
	err := c.do(ctx, http.MethodGet, c.sessionPath(id, "results"), nil, &resp)
	return resp.Results, err
}

// TestNotification asks the daemon to send a test notification.
func (c *Client) TestNotification(ctx context.Context) (NotifyTestResponse, error) {
	var resp NotifyTestResponse
	err := c.do(ctx, http.MethodPost, "/api/notify/test", nil, &resp)
	return resp, err
}

// Shutdown requests a graceful daemon stop.
func (c *Client) Shutdown(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/shutdown", nil, nil)
}

func (c *Client) sessionPath(id int64, action string) string {
	path := "/api/sessions/" + strconv.FormatInt(id, 10)
	if action != "" {
		path += "/" + action
	}
	return path
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	if strings.TrimSpace(c.baseURL) == "" {
		return fmt.Errorf("%w: api bind address is not configured", ErrDaemonUnavailable)
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isConnectionError(err) {
			return fmt.Errorf("%w: %v", ErrDaemonUnavailable, err)
		}
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return statusError(resp.StatusCode, payload)
	}
	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusError rebuilds the service error taxonomy from an HTTP status so CLI
// handling matches in-process orchestrator calls.
func statusError(status int, payload []byte) error {
	message := strings.TrimSpace(string(payload))
	var errResp ErrorResponse
	if json.Unmarshal(payload, &errResp) == nil && errResp.Error != "" {
		message = errResp.Error
	}
	if message == "" {
		message = http.StatusText(status)
	}

	switch status {
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", services.ErrValidation, message)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", services.ErrPermission, message)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", services.ErrNotFound, message)
	case http.StatusConflict:
		return fmt.Errorf("%w: %s", services.ErrBusy, message)
	default:
		return fmt.Errorf("%w: http %d: %s", services.ErrUnexpected, status, message)
	}
}

func isConnectionError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		var opErr *net.OpError
		if errors.As(urlErr.Err, &opErr) {
			return true
		}
		if urlErr.Timeout() {
			return true
		}
	}
	return false
}
