package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

var kinds = []struct {
	err    error
	status int
}{
	{service.ErrValidation, http.StatusBadRequest},
	{service.ErrInvalidReference, http.StatusBadRequest},
	{service.ErrUnauthorized, http.StatusUnauthorized},
	{service.ErrNotFound, http.StatusNotFound},
	{service.ErrConflict, http.StatusConflict},
	{service.ErrUnavailable, http.StatusServiceUnavailable},
	{service.ErrStorage, http.StatusInternalServerError},
}

func classify(err error) (kind string, status int) {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.err.Error(), k.status
		}
	}
	return "internal", http.StatusInternalServerError
}

// serviceError logs err with its kind and turns it into the matching HTTP
// error. Server-side failures keep their detail in the message.
func serviceError(l *slog.Logger, event string, err error) error {
	kind, status := classify(err)
	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "kind", kind, "error", err)
	} else {
		l.Warn(event, "status", status, "kind", kind, "error", err)
	}
	return echo.NewHTTPError(status, err.Error())
}

func parseID(c echo.Context, name string) (uuid.UUID, error) {
	raw := c.Param(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s %q is not a valid id", service.ErrInvalidReference, name, raw)
	}
	return id, nil
}

func badBody(l *slog.Logger, event string, err error) error {
	l.Warn(event, "status", http.StatusBadRequest, "reason", "invalid body", "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
}

// ErrorHandler writes every error in the {"success": false, "message": ...}
// envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		msg = fmt.Sprint(he.Message)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = c.JSON(status, transport.StatusResponse{Success: false, Message: msg})
}
