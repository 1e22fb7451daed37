package handler

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"factiliza-proxy-go/internal/model"
	"factiliza-proxy-go/internal/service"
)

// RelayHandler serves the JSON passthrough routes.
type RelayHandler struct {
	service *service.RelayService
	logger  *slog.Logger
	token   Token
}

// NewRelayHandler creates a RelayHandler.
func NewRelayHandler(svc *service.RelayService, token Token, logger *slog.Logger) *RelayHandler {
	return &RelayHandler{
		service: svc,
		logger:  logger.With("component", "relay_handler"),
		token:   token,
	}
}

// Handle returns the echo handler for one route of the table.
func (h *RelayHandler) Handle(route model.Route) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw, err := h.service.Relay(c.Request().Context(), route, c.QueryParams())
		if err != nil {
			h.logger.Error("relay failed",
				"err", sanitizeError(err, h.token),
				"path", route.Path,
			)
			return respondError(c, errRelayFailed, err, h.token)
		}
		return c.JSONBlob(http.StatusOK, raw)
	}
}
