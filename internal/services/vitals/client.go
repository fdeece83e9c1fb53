// Package vitals persists and retrieves heart-rate series and risk
// predictions through the services backend.
package vitals

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

// Client wraps the vitals endpoints of the services backend.
type Client struct {
	baseURL    string
	apiKey     string
	maxRetries int
	httpClient services.HTTPDoer
}

// Option customizes the vitals client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client services.HTTPDoer) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a vitals client from configuration.
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

// sampleRow is the wire shape for persisting one sample. The backend assigns
// row identity and creation timestamps, so only measurement data goes out.
type sampleRow struct {
	Timestamp time.Time `json:"timestamp"`
	BPM       float64   `json:"bpm"`
}

type saveSeriesRequest struct {
	Samples []sampleRow `json:"samples"`
}

type saveSeriesResponse struct {
	Saved int `json:"saved"`
}

// SaveSeries persists a heart-rate series for a recording and returns the
// number of rows the backend stored. Any identity or row-timestamp fields on
// the samples are dropped before submission.
func (c *Client) SaveSeries(ctx context.Context, recordingID string, samples []Sample) (int, error) {
	recordingID = strings.TrimSpace(recordingID)
	if recordingID == "" {
		return 0, services.Wrap(services.ErrValidation, "vitals", "save-series", "recording id required", nil)
	}
	if len(samples) == 0 {
		return 0, services.Wrap(services.ErrValidation, "vitals", "save-series", "series is empty", nil)
	}

	rows := make([]sampleRow, len(samples))
	for i, sample := range samples {
		rows[i] = sampleRow{Timestamp: sample.Timestamp, BPM: sample.BPM}
	}
	payload, err := json.Marshal(saveSeriesRequest{Samples: rows})
	if err != nil {
		return 0, services.Wrap(services.ErrUnexpected, "vitals", "save-series", "encode request", err)
	}

	endpoint, err := url.JoinPath(c.baseURL, "/api/recordings", recordingID, "series")
	if err != nil {
		return 0, services.Wrap(services.ErrConfiguration, "vitals", "save-series", "build url", err)
	}

	var result saveSeriesResponse
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
		return 0, services.Wrap(services.ErrPipelineStep, "vitals", "save-series", "persist heart rate series", err)
	}
	if result.Saved == 0 {
		result.Saved = len(rows)
	}
	return result.Saved, nil
}

// predictionRow is the wire shape for persisting a prediction.
type predictionRow struct {
	RiskLevel  string   `json:"riskLevel"`
	RiskScore  float64  `json:"riskScore"`
	AverageBPM float64  `json:"averageBpm"`
	MinBPM     float64  `json:"minBpm"`
	MaxBPM     float64  `json:"maxBpm"`
	Insights   []string `json:"insights,omitempty"`
	Model      string   `json:"model,omitempty"`
}

// SavePrediction persists a risk prediction for a recording and returns the
// stored row, including backend-assigned identity.
func (c *Client) SavePrediction(ctx context.Context, prediction Prediction) (Prediction, error) {
	var empty Prediction
	recordingID := strings.TrimSpace(prediction.RecordingID)
	if recordingID == "" {
		return empty, services.Wrap(services.ErrValidation, "vitals", "save-prediction", "recording id required", nil)
	}

	payload, err := json.Marshal(predictionRow{
		RiskLevel:  NormalizeRiskLevel(prediction.RiskLevel),
		RiskScore:  prediction.RiskScore,
		AverageBPM: prediction.AverageBPM,
		MinBPM:     prediction.MinBPM,
		MaxBPM:     prediction.MaxBPM,
		Insights:   prediction.Insights,
		Model:      prediction.Model,
	})
	if err != nil {
		return empty, services.Wrap(services.ErrUnexpected, "vitals", "save-prediction", "encode request", err)
	}

	endpoint, err := url.JoinPath(c.baseURL, "/api/recordings", recordingID, "prediction")
	if err != nil {
		return empty, services.Wrap(services.ErrConfiguration, "vitals", "save-prediction", "build url", err)
	}

	var result Prediction
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
		return empty, services.Wrap(services.ErrPipelineStep, "vitals", "save-prediction", "persist risk prediction", err)
	}
	if result.RecordingID == "" {
		result.RecordingID = recordingID
	}
	return result, nil
}

// SeriesForRecording fetches the stored heart-rate series for a recording.
func (c *Client) SeriesForRecording(ctx context.Context, recordingID string) ([]Sample, error) {
	recordingID = strings.TrimSpace(recordingID)
	if recordingID == "" {
		return nil, services.Wrap(services.ErrValidation, "vitals", "series", "recording id required", nil)
	}

	endpoint, err := url.JoinPath(c.baseURL, "/api/recordings", recordingID, "series")
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "vitals", "series", "build url", err)
	}

	var result struct {
		Samples []Sample `json:"samples"`
	}
	err = services.DoJSON(ctx, c.httpClient, c.maxRetries, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		c.authorize(req)
		return req, nil
	}, &result)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "vitals", "series", "fetch heart rate series", err)
	}
	return result.Samples, nil
}

// PredictionForRecording fetches the stored risk prediction for a recording.
func (c *Client) PredictionForRecording(ctx context.Context, recordingID string) (Prediction, error) {
	var empty Prediction
	recordingID = strings.TrimSpace(recordingID)
	if recordingID == "" {
		return empty, services.Wrap(services.ErrValidation, "vitals", "prediction", "recording id required", nil)
	}

	endpoint, err := url.JoinPath(c.baseURL, "/api/recordings", recordingID, "prediction")
	if err != nil {
		return empty, services.Wrap(services.ErrConfiguration, "vitals", "prediction", "build url", err)
	}

	var result Prediction
	err = services.DoJSON(ctx, c.httpClient, c.maxRetries, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		c.authorize(req)
		return req, nil
	}, &result)
	if err != nil {
		return empty, services.Wrap(services.ErrNotFound, "vitals", "prediction", "fetch risk prediction", err)
	}
	return result, nil
}
