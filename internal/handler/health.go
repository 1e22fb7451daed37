package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"factiliza-proxy-go/internal/config"
	"factiliza-proxy-go/internal/model"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves health and status endpoints.
type HealthHandler struct {
	cfg     *config.Config
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(cfg *config.Config, v Version) *HealthHandler {
	return &HealthHandler{cfg: cfg, version: v}
}

// StatusResponse is the body of the status endpoint.
type StatusResponse struct {
	Status          string   `json:"status"`
	Version         string   `json:"version"`
	UpstreamURL     string   `json:"upstream_url"`
	TokenConfigured bool     `json:"token_configured"`
	Routes          []string `json:"routes"`
}

// Healthz returns a simple OK response for liveness probes.
func (h *HealthHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Status returns proxy status information.
func (h *HealthHandler) Status(c echo.Context) error {
	routes := model.AllRoutes()
	paths := make([]string, 0, len(routes))
	for _, r := range routes {
		paths = append(paths, r.Path)
	}

	return c.JSON(http.StatusOK, StatusResponse{
		Status:          "ok",
		Version:         string(h.version),
		UpstreamURL:     h.cfg.Upstream.BaseURL,
		TokenConfigured: h.cfg.Leder.Token != "",
		Routes:          paths,
	})
}
