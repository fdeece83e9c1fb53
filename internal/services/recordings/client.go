// Package recordings talks to the backend recording metadata service.
package recordings

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mohdateeqmarch2-spec/hriday/internal/config"
	"github.com/mohdateeqmarch2-spec/hriday/internal/services"
)

// Recording is the backend's metadata record for one captured video.
type Recording struct {
	ID              string    `json:"id"`
	UserID          string    `json:"userId"`
	FileName        string    `json:"fileName"`
	DurationSeconds int       `json:"durationSeconds"`
	CreatedAt       time.Time `json:"createdAt,omitempty"`
}

// CreateRequest describes a new recording record.
type CreateRequest struct {
	UserID          string `json:"userId"`
	FileName        string `json:"fileName"`
	DurationSeconds int    `json:"durationSeconds"`
}

// Client wraps the recording endpoints of the services backend.
type Client struct {
	baseURL    string
	apiKey     string
	maxRetries int
	httpClient services.HTTPDoer
}

// Option customizes the recordings client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client services.HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a recordings client from configuration.
func NewClient(cfg *config.Config, opts ...Option) *Client {
	client := &Client{}
	if cfg != nil {
		client.baseURL = strings.TrimRight(strings.TrimSpace(cfg.Services.BaseURL), "/")
		client.apiKey = strings.TrimSpace(cfg.Services.APIKey)
		client.maxRetries = cfg.Services.MaxRetries
		client.httpClient = &http.Client{Timeout: time.Duration(cfg.Services.RequestTimeout) * time.Second}
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.httpClient == nil {
		client.httpClient = http.DefaultClient
	}
	return client
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// Create registers a recording record and returns the backend's copy,
// including its assigned identifier.
func (c *Client) Create(ctx context.Context, create CreateRequest) (Recording, error) {
	var empty Recording
	create.UserID = strings.TrimSpace(create.UserID)
	create.FileName = strings.TrimSpace(create.FileName)
	if create.UserID == "" {
		return empty, services.Wrap(services.ErrValidation, "recordings", "create", "user id required", nil)
	}
	if create.FileName == "" {
		return empty, services.Wrap(services.ErrValidation, "recordings", "create", "file name required", nil)
	}
	if create.DurationSeconds <= 0 {
		return empty, services.Wrap(services.ErrValidation, "recordings", "create", "duration must be positive", nil)
	}

	endpoint, err := url.JoinPath(c.baseURL, "/api/recordings")
	if err != nil {
		return empty, services.Wrap(services.ErrConfiguration, "recordings", "create", "build url", err)
	}
	payload, err := json.Marshal(create)
	if err != nil {
		return empty, services.Wrap(services.ErrUnexpected, "recordings", "create", "encode request", err)
	}

	var result Recording
	err = services.DoJSON(ctx, c.httpClient, c.maxRetries, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		c.authorize(req)
		return req, nil
	}, &result)
	if err != nil {
		return empty, services.Wrap(services.ErrPipelineStep, "recordings", "create", "create recording record", err)
	}
	if result.ID == "" {
		return empty, services.Wrap(services.ErrPipelineStep, "recordings", "create", "backend returned no recording id", nil)
	}
	return result, nil
}

// Get fetches a recording record by its backend identifier.
func (c *Client) Get(ctx context.Context, id string) (Recording, error) {
	var empty Recording
	id = strings.TrimSpace(id)
	if id == "" {
		return empty, services.Wrap(services.ErrValidation, "recordings", "get", "recording id required", nil)
	}

	endpoint, err := url.JoinPath(c.baseURL, "/api/recordings", id)
	if err != nil {
		return empty, services.Wrap(services.ErrConfiguration, "recordings", "get", "build url", err)
	}

	var result Recording
	err = services.DoJSON(ctx, c.httpClient, c.maxRetries, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		c.authorize(req)
		return req, nil
	}, &result)
	if err != nil {
		return empty, services.Wrap(services.ErrNotFound, "recordings", "get", "fetch recording record", err)
	}
	return result, nil
}
