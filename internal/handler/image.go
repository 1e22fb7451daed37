package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"factiliza-proxy-go/internal/model"
	"factiliza-proxy-go/internal/render"
	"factiliza-proxy-go/internal/service"
)

// ImageHandler serves routes whose upstream record is rendered to PNG.
type ImageHandler struct {
	service  *service.RelayService
	pipeline *render.Pipeline
	logger   *slog.Logger
	token    Token
}

// NewImageHandler creates an ImageHandler.
func NewImageHandler(svc *service.RelayService, p *render.Pipeline, token Token, logger *slog.Logger) *ImageHandler {
	return &ImageHandler{
		service:  svc,
		pipeline: p,
		logger:   logger.With("component", "image_handler"),
		token:    token,
	}
}

// Handle returns the echo handler for a route with a template.
func (h *ImageHandler) Handle(route model.Route) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		raw, err := h.service.Relay(ctx, route, c.QueryParams())
		if err != nil {
			return h.fail(c, route, err)
		}

		record, err := render.PersonRecord(raw)
		if err != nil {
			return h.fail(c, route, err)
		}

		img, err := h.pipeline.RenderPNG(ctx, route.Template, record)
		if err != nil {
			return h.fail(c, route, err)
		}

		return c.Blob(http.StatusOK, "image/png", img)
	}
}

func (h *ImageHandler) fail(c echo.Context, route model.Route, err error) error {
	h.logger.Error("image render failed",
		"err", sanitizeError(err, h.token),
		"path", route.Path,
		"template", route.Template,
	)
	return respondError(c, errRenderFailed, err, h.token)
}
