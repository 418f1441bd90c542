package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/loanportal/portal-client/internal/core/domain"
	"github.com/loanportal/portal-client/internal/infrastructure/remote"
)

// errorResponse is the canonical error envelope for all API errors.
type errorResponse struct {
	Error string `json:"error"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps session and backend errors to their HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope: {"error": "<message>"}.
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
		_ = c.JSON(code, errorResponse{Error: msg})
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) (int, string) {
	// Echo's own errors (bind failures, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Session errors carry user-facing messages.
	switch {
	case errors.Is(err, domain.ErrRoleMismatch):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, domain.ErrReloginProfile),
		errors.Is(err, domain.ErrReloginPassword),
		errors.Is(err, domain.ErrAuthRequired),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrMissingResetToken):
		return http.StatusUnprocessableEntity, err.Error()
	}

	// Backend rejections keep their status; anything else from the backend
	// is a bad gateway.
	var re *remote.Error
	if errors.As(err, &re) {
		if re.StatusCode >= 400 && re.StatusCode < 500 {
			return re.StatusCode, re.Message
		}
		log.Warn().
			Err(err).
			Str("op", re.Op).
			Int("upstream_status", re.StatusCode).
			Str("path", c.Path()).
			Msg("backend call failed")
		return http.StatusBadGateway, re.Message
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return http.StatusInternalServerError, "internal server error"
}
