package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// HTTPDoer describes the HTTP client used by remote service integrations.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DoJSON performs a JSON exchange against a remote service. The build
// callback runs once per attempt so request bodies can be replayed safely.
// Network failures and 5xx responses are retried with exponential backoff up
// to maxRetries additional attempts; 4xx responses fail immediately. When out
// is non-nil the response body is decoded into it.
func DoJSON(ctx context.Context, client HTTPDoer, maxRetries int, build func(ctx context.Context) (*http.Request, error), out any) error {
	if client == nil {
		client = http.DefaultClient
	}
	if maxRetries < 0 {
		maxRetries = 0
	}

	op := func() error {
		req, err := build(ctx)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("build request: %w", err))
		}
		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrTransient, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("%w: read response: %v", ErrTransient, err)
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: http %d: %s", ErrTransient, resp.StatusCode, strings.TrimSpace(string(body)))
		}
		if resp.StatusCode >= http.StatusBadRequest {
			return backoff.Permanent(fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
		}
		if out == nil || len(body) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxRetries)), ctx)
	return backoff.Retry(op, policy)
}
