package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/streamhub/account-service/internal/api/middleware"
)

const sessionCookieMaxAge = 24 * time.Hour

// setSessionCookies writes the access and refresh tokens as httpOnly,
// SameSite=Strict cookies.
func setSessionCookies(c echo.Context, accessToken, refreshToken string, secure bool) {
	c.SetCookie(sessionCookie(middleware.AccessTokenCookie, accessToken, int(sessionCookieMaxAge.Seconds()), secure))
	c.SetCookie(sessionCookie(middleware.RefreshTokenCookie, refreshToken, int(sessionCookieMaxAge.Seconds()), secure))
}

func clearSessionCookies(c echo.Context, secure bool) {
	c.SetCookie(sessionCookie(middleware.AccessTokenCookie, "", -1, secure))
	c.SetCookie(sessionCookie(middleware.RefreshTokenCookie, "", -1, secure))
}

func sessionCookie(name, value string, maxAge int, secure bool) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteStrictMode,
	}
}
