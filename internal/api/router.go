package api

import (
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/streamhub/account-service/docs"
	"github.com/streamhub/account-service/internal/api/handler"
	"github.com/streamhub/account-service/internal/api/middleware"
	"github.com/streamhub/account-service/internal/core/ports"
)

// Options carries the HTTP-level settings of the router.
type Options struct {
	CORSOrigin     string
	MaxUploadSize  string
	SecureCookies  bool
	RateLimitRPS   float64
	RateLimitBurst int
}

// Dependencies are the services the routes delegate to.
type Dependencies struct {
	Sessions     ports.SessionService
	Accounts     ports.AccountService
	Profiles     ports.ProfileService
	AccessTokens ports.TokenCodec
	Users        ports.UserFinder
	Readiness    map[string]handler.Pinger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies, opts Options, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     []string{opts.CORSOrigin},
		AllowCredentials: opts.CORSOrigin != "*",
	}))
	e.Use(echoprometheus.NewMiddleware("accounts"))

	// --- Operational routes (no auth required) ---
	e.GET("/health", handler.Liveness)                                         // liveness  – is the process alive?
	e.GET("/health/ready", handler.NewHealthHandler(deps.Readiness).Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Handlers ---
	users := handler.NewUserHandler(deps.Sessions, deps.Accounts, opts.SecureCookies)
	profiles := handler.NewProfileHandler(deps.Profiles)
	guard := middleware.AccessGuard(deps.AccessTokens, deps.Users)
	limit := middleware.RateLimitPerIP(opts.RateLimitRPS, opts.RateLimitBurst, 0)

	g := e.Group("/api/v1/users", echomiddleware.BodyLimit(opts.MaxUploadSize))

	// --- Public routes ---
	g.POST("/register", users.Register, limit)
	g.POST("/login", users.Login, limit)
	g.POST("/refresh-token", users.RefreshToken, limit)

	// --- Authenticated routes ---
	g.POST("/logout", users.Logout, guard)
	g.POST("/change-password", users.ChangePassword, guard)
	g.GET("/current-user", users.CurrentUser, guard)
	g.PATCH("/update-account", users.UpdateAccount, guard)
	g.PATCH("/avatar", users.UpdateAvatar, guard)
	g.PATCH("/cover-images", users.UpdateCoverImage, guard)
	g.GET("/c/:username", profiles.Channel, guard)
	g.GET("/history", profiles.History, guard)

	return e
}

// requestLogger emits one zerolog line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Str("remote_ip", v.RemoteIP).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}
