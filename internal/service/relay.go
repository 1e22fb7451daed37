// Package service implements the upstream relay logic.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"

	"factiliza-proxy-go/internal/client"
	"factiliza-proxy-go/internal/config"
	"factiliza-proxy-go/internal/model"
)

// allowedUpstreamHosts restricts which hosts the proxy will forward to.
var allowedUpstreamHosts = map[string]bool{
	"leder-data-api.ngrok.dev": true,
}

// RelayService forwards route parameters to the upstream API.
type RelayService struct {
	client  *client.LederClient
	cfg     *config.Config
	logger  *slog.Logger
	baseURL *url.URL
}

// NewRelayService creates a RelayService.
func NewRelayService(c *client.LederClient, cfg *config.Config, logger *slog.Logger) (*RelayService, error) {
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base_url: %w", err)
	}

	if !allowedUpstreamHosts[u.Hostname()] {
		return nil, fmt.Errorf("upstream host %q is not in the allowlist", u.Hostname())
	}

	return newRelayService(c, cfg, logger, u), nil
}

// NewRelayServiceForTest creates a RelayService without host allowlist validation.
// This is intended only for tests that use httptest servers on localhost.
func NewRelayServiceForTest(c *client.LederClient, cfg *config.Config, logger *slog.Logger) (*RelayService, error) {
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base_url: %w", err)
	}

	return newRelayService(c, cfg, logger, u), nil
}

func newRelayService(c *client.LederClient, cfg *config.Config, logger *slog.Logger, u *url.URL) *RelayService {
	return &RelayService{
		client:  c,
		cfg:     cfg,
		logger:  logger.With("component", "relay_service"),
		baseURL: u,
	}
}

// Relay sends the route's parameters plus the token upstream and returns the
// upstream JSON body byte for byte. The body is only checked to be valid JSON.
//
// The upstream status code is not propagated: a JSON body is a successful
// relay whatever status it came with.
func (s *RelayService) Relay(ctx context.Context, route model.Route, query url.Values) (json.RawMessage, error) {
	payload := route.Payload(query, s.cfg.Leder.Token)

	s.logger.Debug("relaying request",
		"route", route.Path,
		"upstream", route.Upstream,
	)

	resp, err := s.client.PostJSON(ctx, s.buildUpstreamURL(route.Upstream), route.Upstream, payload)
	if err != nil {
		return nil, fmt.Errorf("forward to upstream: %w", err)
	}

	if resp.StatusCode >= 400 {
		s.logger.Warn("upstream returned error status",
			"route", route.Path,
			"status", resp.StatusCode,
		)
	}

	var raw json.RawMessage
	if err := json.Unmarshal(resp.Body, &raw); err != nil {
		return nil, fmt.Errorf("decode upstream response: %w", err)
	}

	return resp.Body, nil
}

// UpstreamURL returns the absolute upstream URL of a route.
func (s *RelayService) UpstreamURL(route model.Route) string {
	return s.buildUpstreamURL(route.Upstream)
}

func (s *RelayService) buildUpstreamURL(path string) string {
	u := *s.baseURL
	u.Path = path
	u.RawQuery = ""
	return u.String()
}
