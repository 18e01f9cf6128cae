package router // package router defines how HTTP routes are registered for the API

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/gch/gch-api-go/internal/config"
	"github.com/gch/gch-api-go/internal/handler"
	"github.com/gch/gch-api-go/internal/middleware"
)

// Register wires the single routing table for the whole API.  Earlier
// iterations of this service grew several near-identical route sets; keeping
// one registration point is deliberate.
//
// Route map:
//
//	GET  /healthz            public
//	POST /auth/register      public, rate limited
//	POST /auth/login         public, rate limited
//	POST /auth/refresh       public (refresh token in body)
//	POST /auth/logout        public (bearer or refresh token)
//	GET  /auth/me            required auth
//	POST /forms/submit       optional auth
//	GET  /forms              required auth + admin, response cached
//	GET  /forms/my           required auth
func Register(e *echo.Echo, cfg config.Config, a *handler.AuthHandler, f *handler.FormHandler, users middleware.UserLoader, rdb *redis.Client) {
	e.HTTPErrorHandler = errorHandler
	e.RouteNotFound("/*", notFound)

	e.GET("/healthz", handler.Health)

	// The token bucket guards only the credential endpoints; everything else
	// is authenticated, so brute force is not a concern there.
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	required := middleware.RequireAuth(cfg.JWTSecret, users)
	optional := middleware.OptionalAuth(cfg.JWTSecret, users)
	cached := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	auth := e.Group("/auth")
	auth.POST("/register", a.Register, limiter)
	auth.POST("/login", a.Login, limiter)
	auth.POST("/refresh", a.Refresh)
	auth.POST("/logout", a.Logout)
	auth.GET("/me", a.Me, required)

	forms := e.Group("/forms")
	forms.POST("/submit", f.Submit, optional)
	// Cache runs after the auth/admin gates: every request is authorized,
	// only the identical-for-all-admins render is shared.
	forms.GET("", f.ListAll, required, middleware.RequireAdmin(), cached)
	forms.GET("/my", f.ListMine, required)
}

// notFound echoes the path and method back so misrouted clients can see what
// they actually called.
func notFound(c echo.Context) error {
	return c.JSON(http.StatusNotFound, echo.Map{
		"error":  "route not found",
		"path":   c.Request().URL.Path,
		"method": c.Request().Method,
	})
}

// errorHandler translates uncaught handler errors.  Echo's own HTTP errors
// (method not allowed and friends) keep their status; anything else is
// logged with detail and surfaced as a generic 500 so internals never leak
// into response bodies.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	if he, ok := err.(*echo.HTTPError); ok {
		msg := he.Message
		if _, ok := msg.(string); !ok {
			msg = http.StatusText(he.Code)
		}
		_ = c.JSON(he.Code, echo.Map{"error": msg})
		return
	}
	c.Logger().Errorf("unhandled error: %v", err)
	_ = c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}
