package middleware

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/ryanuber/go-glob"

	"pdf-relay/internal/config"
)

// CORS returns Echo's CORS middleware configured from the relay policy.
// Allowed origins are always echoed back rather than answered with "*", which
// keeps credentialed requests valid under the open policy. Preflight requests
// are answered for every path, routed or not.
func CORS(cfg config.CORSConfig) echo.MiddlewareFunc {
	return echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOriginFunc:  OriginMatcher(cfg.AllowedOrigins),
		AllowMethods:     cfg.AllowedMethods,
		AllowHeaders:     cfg.AllowedHeaders,
		ExposeHeaders:    cfg.ExposeHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.PreflightMaxAgeSeconds,
	})
}

// OriginMatcher reports whether an origin matches one of the glob patterns.
func OriginMatcher(patterns []string) func(origin string) (bool, error) {
	return func(origin string) (bool, error) {
		for _, p := range patterns {
			if p == "*" || glob.Glob(p, origin) {
				return true, nil
			}
		}
		return false, nil
	}
}
