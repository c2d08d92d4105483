package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"cartsync/internal/config"

	"github.com/rs/zerolog"
)

// Client is a thin JSON client for the storefront REST API. Every response is
// wrapped in the standard {success, data, error} envelope; a transport error,
// a non-2xx status and a success=false envelope are all surfaced as errors so
// callers have a single failure signal.
type Client struct {
	baseURL      string
	sessionToken string
	httpClient   *http.Client
	logger       zerolog.Logger
}

// NewClient creates a storefront API client from the upstream configuration.
func NewClient(cfg config.UpstreamConfig, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:      cfg.BaseURL,
		sessionToken: cfg.SessionToken,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Timeout) * time.Second,
		},
		logger: logger.With().Str("component", "api-client").Logger(),
	}
}

// envelope is the standard response wrapper returned by the storefront API.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// get performs a GET request and decodes the response envelope.
func (c *Client) get(ctx context.Context, path string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	return c.do(req, path)
}

// post performs a POST request with a JSON body and decodes the response envelope.
func (c *Client) post(ctx context.Context, path string, body interface{}) (*envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body for %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, path)
}

func (c *Client) do(req *http.Request, path string) (*envelope, error) {
	if c.sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.sessionToken)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("path", path).
			Msg("upstream request failed")
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		c.logger.Warn().
			Err(err).
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("failed to decode upstream response")
		return nil, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}

	c.logger.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Bool("success", env.Success).
		Msg("upstream request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("request to %s returned status %d: %s", path, resp.StatusCode, env.Error)
	}

	if !env.Success {
		if env.Error == "" {
			return nil, fmt.Errorf("request to %s reported failure", path)
		}
		return nil, fmt.Errorf("request to %s reported failure: %s", path, env.Error)
	}

	return &env, nil
}
