// Package profile talks to the backend profile service. Profiles attribute
// recordings and predictions to a user; provisioning is an idempotent upsert
// keyed by user id and email.
package profile

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

// Profile is the backend's view of a user.
type Profile struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

// Client wraps the profile endpoints of the services backend.
type Client struct {
	baseURL    string
	apiKey     string
	maxRetries int
	httpClient services.HTTPDoer
}

// Option customizes the profile client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client services.HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a profile client from configuration.
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

type ensureRequest struct {
	UserID      string `json:"userId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
}

// Ensure provisions a profile row for the user, creating it when absent.
// Calling it repeatedly with the same identity is safe.
func (c *Client) Ensure(ctx context.Context, userID, email, displayName string) (Profile, error) {
	var empty Profile
	userID = strings.TrimSpace(userID)
	email = strings.TrimSpace(email)
	if userID == "" || email == "" {
		return empty, services.Wrap(services.ErrValidation, "profile", "ensure", "user id and email required", nil)
	}

	endpoint, err := url.JoinPath(c.baseURL, "/api/profiles/ensure")
	if err != nil {
		return empty, services.Wrap(services.ErrConfiguration, "profile", "ensure", "build url", err)
	}
	payload, err := json.Marshal(ensureRequest{UserID: userID, Email: email, DisplayName: displayName})
	if err != nil {
		return empty, services.Wrap(services.ErrUnexpected, "profile", "ensure", "encode request", err)
	}

	var result Profile
	err = services.DoJSON(ctx, c.httpClient, c.maxRetries, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}
		return req, nil
	}, &result)
	if err != nil {
		return empty, services.Wrap(services.ErrPipelineStep, "profile", "ensure", "ensure user profile", err)
	}
	return result, nil
}
