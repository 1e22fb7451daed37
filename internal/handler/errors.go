package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// Error envelope messages returned to clients.
const (
	errRelayFailed  = "Error al conectar con Leder Data"
	errRenderFailed = "Error generando imagen"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Detalle string `json:"detalle"`
}

// Token is a string type for dependency injection of the upstream token,
// used to keep it out of error messages.
type Token string

// respondError writes the 500 error envelope with the underlying message.
func respondError(c echo.Context, msg string, err error, token Token) error {
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   msg,
		Detalle: sanitizeError(err, token),
	})
}

// sanitizeError redacts the upstream token from error messages.
func sanitizeError(err error, token Token) string {
	msg := err.Error()
	if token == "" {
		return msg
	}
	return strings.ReplaceAll(msg, string(token), "[REDACTED]")
}
