package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/netbar/billing-system/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. The
// console reads either key, so both carry the same text.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<msg>", "message": "<msg>"}.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, errorResponse{Error: msg, Message: msg})
	}
}

// domainStatus lists sentinel errors by the status they map to. Errors that
// carry useful context (wrapped with %w) render their full text.
var domainStatus = []struct {
	err  error
	code int
}{
	{domain.ErrAdminNotFound, http.StatusNotFound},
	{domain.ErrUserNotFound, http.StatusNotFound},
	{domain.ErrZoneNotFound, http.StatusNotFound},
	{domain.ErrMachineNotFound, http.StatusNotFound},
	{domain.ErrCommodityNotFound, http.StatusNotFound},
	{domain.ErrOrderNotFound, http.StatusNotFound},
	{domain.ErrMessageNotFound, http.StatusNotFound},

	{domain.ErrInvalidCredentials, http.StatusUnauthorized},

	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrUserBanned, http.StatusForbidden},

	{domain.ErrAdminExists, http.StatusConflict},
	{domain.ErrUserExists, http.StatusConflict},
	{domain.ErrZoneExists, http.StatusConflict},
	{domain.ErrMachineExists, http.StatusConflict},
	{domain.ErrZoneNotEmpty, http.StatusConflict},
	{domain.ErrZoneFull, http.StatusConflict},
	{domain.ErrMachineBusy, http.StatusConflict},
	{domain.ErrUserOnline, http.StatusConflict},
	{domain.ErrUserOffline, http.StatusConflict},
	{domain.ErrPendingCallExists, http.StatusConflict},
	{domain.ErrDuplicateRequest, http.StatusConflict},

	{domain.ErrInvalidTransition, http.StatusUnprocessableEntity},
	{domain.ErrInsufficientBalance, http.StatusUnprocessableEntity},
	{domain.ErrInsufficientStock, http.StatusUnprocessableEntity},
	{domain.ErrInvalidInput, http.StatusUnprocessableEntity},
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	for _, m := range domainStatus {
		if errors.Is(err, m.err) {
			return m.code, err.Error()
		}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
