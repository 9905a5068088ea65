package middleware

import (
	"net/http"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

const defaultVisitorCacheSize = 10_000

// RateLimitPerIP allows rps requests per second with the given burst for
// each client IP. The least recently seen IPs are evicted once cacheSize
// clients are tracked.
func RateLimitPerIP(rps float64, burst, cacheSize int) echo.MiddlewareFunc {
	if cacheSize <= 0 {
		cacheSize = defaultVisitorCacheSize
	}
	// lru.New only fails for a non-positive size.
	visitors, _ := lru.New[string, *rate.Limiter](cacheSize)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			limiter, ok := visitors.Get(ip)
			if !ok {
				limiter = rate.NewLimiter(rate.Limit(rps), burst)
				visitors.Add(ip, limiter)
			}

			if !limiter.Allow() {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
