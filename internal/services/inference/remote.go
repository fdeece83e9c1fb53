package inference

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
	"github.com/mohdateeqmarch2-spec/hriday/internal/services/vitals"
)

// Remote calls an HTTP inference service for series and prediction
// generation.
type Remote struct {
	baseURL    string
	apiKey     string
	maxRetries int
	httpClient services.HTTPDoer
}

// RemoteOption customizes the remote generator.
type RemoteOption func(*Remote)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client services.HTTPDoer) RemoteOption {
	return func(r *Remote) {
		if client != nil {
			r.httpClient = client
		}
	}
}

// NewRemote constructs a remote generator from configuration.
func NewRemote(cfg *config.Config, opts ...RemoteOption) *Remote {
	remote := &Remote{}
	if cfg != nil {
		remote.baseURL = strings.TrimRight(strings.TrimSpace(cfg.Inference.BaseURL), "/")
		remote.apiKey = strings.TrimSpace(cfg.Inference.APIKey)
		remote.maxRetries = cfg.Inference.MaxRetries
		remote.httpClient = &http.Client{Timeout: time.Duration(cfg.Inference.TimeoutSeconds) * time.Second}
	}
	for _, opt := range opts {
		opt(remote)
	}
	if remote.httpClient == nil {
		remote.httpClient = http.DefaultClient
	}
	return remote
}

func (r *Remote) authorize(req *http.Request) {
	if r.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.apiKey)
	}
}

type remoteSeriesRequest struct {
	RecordingID     string `json:"recordingId"`
	DurationSeconds int    `json:"durationSeconds"`
	SourceName      string `json:"sourceName,omitempty"`
}

type remoteSeriesResponse struct {
	Samples []vitals.Sample `json:"samples"`
}

// GenerateSeries requests a heart-rate series from the inference service.
func (r *Remote) GenerateSeries(ctx context.Context, req SeriesRequest) ([]vitals.Sample, error) {
	if strings.TrimSpace(req.RecordingID) == "" {
		return nil, services.Wrap(services.ErrValidation, "inference", "generate-series", "recording id required", nil)
	}

	endpoint, err := url.JoinPath(r.baseURL, "/v1/heart-rate-series")
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "inference", "generate-series", "build url", err)
	}
	payload, err := json.Marshal(remoteSeriesRequest{
		RecordingID:     req.RecordingID,
		DurationSeconds: req.DurationSeconds,
		SourceName:      req.SourceName,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrUnexpected, "inference", "generate-series", "encode request", err)
	}

	var result remoteSeriesResponse
	err = services.DoJSON(ctx, r.httpClient, r.maxRetries, func(ctx context.Context) (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		r.authorize(httpReq)
		return httpReq, nil
	}, &result)
	if err != nil {
		return nil, services.Wrap(services.ErrPipelineStep, "inference", "generate-series", "generate heart rate series", err)
	}
	if len(result.Samples) == 0 {
		return nil, services.Wrap(services.ErrPipelineStep, "inference", "generate-series", "inference service returned an empty series", nil)
	}
	return result.Samples, nil
}

type remotePredictionRequest struct {
	RecordingID string          `json:"recordingId"`
	SourceName  string          `json:"sourceName,omitempty"`
	Samples     []vitals.Sample `json:"samples"`
}

// GeneratePrediction requests a risk prediction from the inference service.
func (r *Remote) GeneratePrediction(ctx context.Context, req PredictionRequest) (vitals.Prediction, error) {
	var empty vitals.Prediction
	if strings.TrimSpace(req.RecordingID) == "" {
		return empty, services.Wrap(services.ErrValidation, "inference", "generate-prediction", "recording id required", nil)
	}
	if len(req.Samples) == 0 {
		return empty, services.Wrap(services.ErrValidation, "inference", "generate-prediction", "series is empty", nil)
	}

	endpoint, err := url.JoinPath(r.baseURL, "/v1/risk-prediction")
	if err != nil {
		return empty, services.Wrap(services.ErrConfiguration, "inference", "generate-prediction", "build url", err)
	}
	payload, err := json.Marshal(remotePredictionRequest{
		RecordingID: req.RecordingID,
		SourceName:  req.SourceName,
		Samples:     req.Samples,
	})
	if err != nil {
		return empty, services.Wrap(services.ErrUnexpected, "inference", "generate-prediction", "encode request", err)
	}

	var result vitals.Prediction
	err = services.DoJSON(ctx, r.httpClient, r.maxRetries, func(ctx context.Context) (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		r.authorize(httpReq)
		return httpReq, nil
	}, &result)
	if err != nil {
		return empty, services.Wrap(services.ErrPipelineStep, "inference", "generate-prediction", "generate risk prediction", err)
	}
	result.RiskLevel = vitals.NormalizeRiskLevel(result.RiskLevel)
	if result.RecordingID == "" {
		result.RecordingID = req.RecordingID
	}
	return result, nil
}
