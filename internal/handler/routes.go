package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"factiliza-proxy-go/internal/config"
	"factiliza-proxy-go/internal/metrics"
	"factiliza-proxy-go/internal/model"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
// Routes with a template are served by the image handler, the rest are relayed.
func RegisterRoutes(e *echo.Echo, relay *RelayHandler, image *ImageHandler, health *HealthHandler, cfg *config.Config, m *metrics.Metrics) {
	e.GET(model.HealthPath, health.Healthz)
	e.GET(model.StatusPath, health.Status)

	for _, r := range model.AllRoutes() {
		if r.Template != "" {
			e.GET(r.Path, image.Handle(r))
			continue
		}
		e.GET(r.Path, relay.Handle(r))
	}

	if cfg.Metrics.Enabled && m != nil {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
	}
}
