package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/streamhub/account-service/internal/core/domain"
)

// ErrorResponse is the canonical error envelope for all API errors.
type ErrorResponse struct {
	StatusCode int               `json:"statusCode"`
	Message    string            `json:"message"`
	Error      map[string]string `json:"error,omitempty"`
	Success    bool              `json:"success"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their appropriate HTTP status codes.
//   - Logs unexpected errors internally without leaking details to the client.
//   - Renders a consistent JSON envelope with success=false.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		resp := resolveError(err, log, c)
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(resp.StatusCode)
			return
		}
		_ = c.JSON(resp.StatusCode, resp)
	}
}

func resolveError(err error, log zerolog.Logger, c echo.Context) ErrorResponse {
	// Echo's own errors (bind failures, 404 from router, guard rejections, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return ErrorResponse{StatusCode: he.Code, Message: fmt.Sprintf("%v", he.Message)}
	}

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		return ErrorResponse{StatusCode: http.StatusBadRequest, Message: verr.Error(), Error: verr.Fields}
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrDuplicateUser):
		return ErrorResponse{StatusCode: http.StatusBadRequest, Message: domain.ErrDuplicateUser.Error()}
	case errors.Is(err, domain.ErrUserNotFound):
		return ErrorResponse{StatusCode: http.StatusNotFound, Message: domain.ErrUserNotFound.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return ErrorResponse{StatusCode: http.StatusNotFound, Message: "channel does not exist"}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return ErrorResponse{StatusCode: http.StatusUnauthorized, Message: domain.ErrInvalidCredentials.Error()}
	case errors.Is(err, domain.ErrInvalidToken):
		return ErrorResponse{StatusCode: http.StatusUnauthorized, Message: domain.ErrInvalidToken.Error()}
	case errors.Is(err, domain.ErrUnauthorized):
		return ErrorResponse{StatusCode: http.StatusUnauthorized, Message: domain.ErrUnauthorized.Error()}
	case errors.Is(err, domain.ErrUploadFailure):
		// Cause is logged by the service; the client only learns which file failed.
		return ErrorResponse{StatusCode: http.StatusInternalServerError, Message: err.Error()}
	}

	// Unexpected error: log the real cause, return a generic message.
	log.Error().
		Err(err).
		Str("method", c.Request().Method).
		Str("path", c.Path()).
		Msg("unhandled error")

	return ErrorResponse{StatusCode: http.StatusInternalServerError, Message: "internal server error"}
}
