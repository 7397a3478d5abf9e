package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	agenterrors "github.com/orijen-udf/lifecycle-agent/pkg/errors"
	"github.com/orijen-udf/lifecycle-agent/pkg/retry"
)

const requestTimeout = 10 * time.Second

// Client reads from the local metadata service. Every read goes through the
// bounded backoff policy; the service is typically still initializing when
// the agent starts.
type Client struct {
	baseURL    string
	policy     retry.Policy
	httpClient *http.Client
}

func NewClient(baseURL string, policy retry.Policy) *Client {
	return &Client{
		baseURL:    baseURL,
		policy:     policy,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// getJSON performs a single GET with no retry. Any non-2xx status, transport
// error or undecodable body counts as a failure.
func getJSON[T any](ctx context.Context, c *Client, path string) (T, error) {
	var body T

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return body, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return body, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return body, fmt.Errorf("unexpected status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return body, fmt.Errorf("decode response: %w", err)
	}
	return body, nil
}

// fetch wraps getJSON with the client's retry policy, logging each failed
// attempt with its number.
func fetch[T any](ctx context.Context, c *Client, path string) (T, error) {
	attempt := 0
	body, err := retry.Do(ctx, c.policy, func() (T, error) {
		attempt++
		v, err := getJSON[T](ctx, c, path)
		if err != nil {
			zap.S().Named("metadata").Warnw("fetch attempt failed",
				"path", path, "attempt", attempt, "error", err)
		}
		return v, err
	})
	if err != nil {
		zap.S().Named("metadata").Errorw("giving up on metadata fetch",
			"path", path, "attempts", attempt)
		return body, agenterrors.NewTransportError(path, err)
	}
	return body, nil
}
