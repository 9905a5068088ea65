package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/streamhub/account-service/internal/api/middleware"
	"github.com/streamhub/account-service/internal/core/domain"
)

// ctxUser returns the user injected by the access guard. A missing user means
// the route was mounted without the guard, which is reported as 401.
func ctxUser(c echo.Context) (*domain.User, error) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized request")
	}
	return user, nil
}
