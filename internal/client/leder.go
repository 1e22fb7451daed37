// Package client provides the upstream HTTP client for the Leder Data API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"factiliza-proxy-go/internal/config"
	"factiliza-proxy-go/internal/metrics"
	"factiliza-proxy-go/internal/model"
)

const userAgent = "factiliza-proxy-go/1.0"

// LederClient sends requests to the upstream Leder Data API.
type LederClient struct {
	httpClient   *http.Client
	logger       *slog.Logger
	metrics      *metrics.Metrics
	maxBodyBytes int64
}

// NewLederClient creates a LederClient with connection pooling and timeouts.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewLederClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *LederClient {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &LederClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		},
		logger:       logger.With("component", "leder_client"),
		metrics:      m,
		maxBodyBytes: cfg.Upstream.MaxBodyBytes,
	}
}

// PostJSON encodes payload as JSON, POSTs it to url and reads the whole reply.
// endpoint is the upstream path used for logging and metrics labels.
func (c *LederClient) PostJSON(ctx context.Context, url, endpoint string, payload any) (*model.UpstreamResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode upstream payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	return c.Do(req, endpoint)
}

// Do executes an HTTP request against the upstream and returns the fully read response.
func (c *LederClient) Do(req *http.Request, endpoint string) (*model.UpstreamResponse, error) {
	c.logger.Debug("upstream request",
		"method", req.Method,
		"endpoint", endpoint,
	)

	label := metrics.NormalizeEndpoint(endpoint)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observe(label, start)
		return nil, fmt.Errorf("upstream request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var r io.Reader = resp.Body
	if c.maxBodyBytes > 0 {
		r = io.LimitReader(resp.Body, c.maxBodyBytes+1)
	}
	data, err := io.ReadAll(r)
	c.observe(label, start)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}
	if c.maxBodyBytes > 0 && int64(len(data)) > c.maxBodyBytes {
		return nil, fmt.Errorf("upstream response exceeds %d bytes", c.maxBodyBytes)
	}

	if c.metrics != nil {
		c.metrics.UpstreamResponses.WithLabelValues(label, strconv.Itoa(resp.StatusCode)).Inc()
	}

	return &model.UpstreamResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

func (c *LederClient) observe(endpoint string, start time.Time) {
	if c.metrics != nil {
		c.metrics.UpstreamDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}
}
