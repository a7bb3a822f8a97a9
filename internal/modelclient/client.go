// Package modelclient talks to the reasoning-model REST API. It owns
// transport, authentication, throttling, and transient-failure retries; the
// turn controller sees only the ModelClient boundary.
package modelclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/solarops/bua/api/schemas"
	"github.com/solarops/bua/internal/config"
)

// Client implements schemas.ModelClient over HTTP.
type Client struct {
	cfg        config.ModelConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// New builds a client from the model configuration. The endpoint and API key
// are required; a zero requests-per-minute setting disables throttling.
func New(cfg config.ModelConfig, logger *zap.Logger) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("model endpoint is required")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("model API key is required")
	}

	timeout := cfg.APITimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute/60.0), 1)
	}

	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
		logger:     logger.Named("model_client"),
	}, nil
}

// CreateResponse submits the conversation and returns the model's output
// items. Transient failures (network errors, 429, 5xx) are retried with
// exponential backoff; malformed responses and client errors are not.
func (c *Client) CreateResponse(ctx context.Context, req schemas.ModelRequest) (*schemas.ModelResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait aborted: %w", err)
		}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal model request: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 2 * time.Minute
	b.MaxInterval = 30 * time.Second

	var out *schemas.ModelResponse

	operation := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

		startTime := time.Now()
		resp, err := c.httpClient.Do(httpReq)
		duration := time.Since(startTime)

		if err != nil {
			c.logger.Warn("Network error during model request, retrying...", zap.Error(err))
			return fmt.Errorf("failed to execute HTTP request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return c.handleAPIError(resp.StatusCode, respBody)
		}

		var payload schemas.ModelResponse
		if err := json.Unmarshal(respBody, &payload); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response payload: %w", err))
		}
		if len(payload.Output) == 0 {
			return backoff.Permanent(fmt.Errorf("model returned no output items"))
		}

		if payload.Usage != nil {
			c.logger.Info("Model response received.",
				zap.Duration("duration", duration),
				zap.Int("input_tokens", payload.Usage.InputTokens),
				zap.Int("output_tokens", payload.Usage.OutputTokens),
				zap.Int("total_tokens", payload.Usage.TotalTokens),
			)
		}

		out = &payload
		return nil
	}

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) handleAPIError(statusCode int, body []byte) error {
	c.logger.Error("Model API returned error status",
		zap.Int("status", statusCode), zap.ByteString("response", body))
	err := fmt.Errorf("model API error: status %d, body: %s", statusCode, string(body))

	switch statusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return err // Transient, retry.
	default:
		return backoff.Permanent(err)
	}
}
