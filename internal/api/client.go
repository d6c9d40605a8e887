// Package api provides the HTTP client for the analytics backend.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/datalens-ai/analytics-console/internal/model"
	"github.com/datalens-ai/analytics-console/pkg/logger"
)

const (
	// ChatPath is the streaming chat endpoint.
	ChatPath = "/api/analytics/chat"
	// DrillOptionsPath is the one-shot drill-options endpoint.
	DrillOptionsPath = "/api/analytics/drill-options"
	// DrillDownPath is the streaming drill execution endpoint.
	DrillDownPath = "/api/analytics/drill-down"
	// HealthPath is the liveness endpoint.
	HealthPath = "/health"
)

// Config holds client construction parameters.
type Config struct {
	BaseURL string

	// RequestTimeout bounds one-shot requests (drill options, health).
	RequestTimeout time.Duration

	// StreamTimeout bounds streaming requests end to end; zero means no
	// client-imposed timeout, the stream runs until the body ends.
	StreamTimeout time.Duration

	// JWTSecret enables bearer-token auth on outbound requests when set.
	JWTSecret     string
	JWTExpiration time.Duration
	JWTSubject    string
}

// Client talks to the analytics backend. Streaming endpoints return the
// response body for the caller to decode; one-shot endpoints decode in place.
type Client struct {
	baseURL  string
	requests *http.Client
	streams  *http.Client
	auth     *tokenMinter
	logger   *logger.Logger
	tracer   trace.Tracer
}

// NewClient creates an analytics backend client.
func NewClient(cfg Config, log *logger.Logger) *Client {
	requestTimeout := cfg.RequestTimeout
	if requestTimeout == 0 {
		requestTimeout = 15 * time.Second
	}

	var auth *tokenMinter
	if cfg.JWTSecret != "" {
		auth = newTokenMinter(cfg.JWTSecret, cfg.JWTSubject, cfg.JWTExpiration)
	}

	return &Client{
		baseURL:  cfg.BaseURL,
		requests: &http.Client{Timeout: requestTimeout},
		streams:  &http.Client{Timeout: cfg.StreamTimeout},
		auth:     auth,
		logger:   log,
		tracer:   otel.Tracer("analytics-console/api"),
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// StreamChat posts a chat query and returns the SSE response body. The caller
// owns closing it.
func (c *Client) StreamChat(ctx context.Context, req model.ChatRequest) (io.ReadCloser, error) {
	return c.openStream(ctx, ChatPath, req)
}

// StreamDrillDown posts a drill execution and returns the SSE response body.
func (c *Client) StreamDrillDown(ctx context.Context, req model.DrillDownRequest) (io.ReadCloser, error) {
	return c.openStream(ctx, DrillDownPath, req)
}

// DrillOptions fetches the refinement options for a clicked data point.
func (c *Client) DrillOptions(ctx context.Context, req model.DrillOptionsRequest) ([]model.DrillOption, error) {
	ctx, span := c.tracer.Start(ctx, "DrillOptions")
	defer span.End()

	httpReq, err := c.newRequest(ctx, DrillOptionsPath, req)
	if err != nil {
		return nil, err
	}

	resp, err := c.requests.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("drill options request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("drill options request failed: status %d", resp.StatusCode)
	}

	var out model.DrillOptionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode drill options: %w", err)
	}
	return out.Options, nil
}

// Health checks the backend liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+HealthPath, nil)
	if err != nil {
		return err
	}

	resp, err := c.requests.Do(httpReq)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) openStream(ctx context.Context, path string, body any) (io.ReadCloser, error) {
	ctx, span := c.tracer.Start(ctx, "Stream", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	httpReq, err := c.newRequest(ctx, path, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := c.streams.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("request to %s failed: status %d", path, resp.StatusCode)
	}

	c.logger.Debug("stream opened", zap.String("path", path))
	return resp.Body, nil
}

func (c *Client) newRequest(ctx context.Context, path string, body any) (*http.Request, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if c.auth != nil {
		token, err := c.auth.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to mint auth token: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}
