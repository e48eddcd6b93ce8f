package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	fibercors "github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/seu-repo/sigec-insights/pkg/config"
)

var (
	readOnlyMethods = []string{fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions}
	defaultHeaders  = []string{"Origin", "Content-Type", "Accept", "X-Request-ID"}
	defaultExpose   = []string{"Content-Length", "X-Run-ID"}
)

// NewCORS builds the CORS middleware for the read-only API. Configured write
// methods are dropped and X-Run-ID is always exposed so dashboards can
// correlate a page with its pipeline run.
func NewCORS(cfg config.CORSConfig) fiber.Handler {
	origins := orDefault(cfg.AllowedOrigins, []string{"*"})
	credentials := cfg.Credentials
	if credentials && contains(origins, "*") {
		// Browsers reject credentials with a wildcard origin.
		credentials = false
	}

	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 86400
	}

	return fibercors.New(fibercors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     strings.Join(readOnly(cfg.AllowedMethods), ","),
		AllowHeaders:     strings.Join(orDefault(cfg.AllowedHeaders, defaultHeaders), ","),
		ExposeHeaders:    strings.Join(withRunID(orDefault(cfg.ExposeHeaders, defaultExpose)), ","),
		AllowCredentials: credentials,
		MaxAge:           maxAge,
	})
}

func DefaultCORS() fiber.Handler {
	return NewCORS(config.CORSConfig{})
}

func orDefault(values, def []string) []string {
	if len(values) == 0 {
		return def
	}
	return values
}

func readOnly(methods []string) []string {
	out := make([]string, 0, len(readOnlyMethods))
	for _, m := range methods {
		m = strings.ToUpper(strings.TrimSpace(m))
		if contains(readOnlyMethods, m) && !contains(out, m) {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		return readOnlyMethods
	}
	return out
}

func withRunID(headers []string) []string {
	for _, h := range headers {
		if strings.EqualFold(h, "X-Run-ID") {
			return headers
		}
	}
	return append(append([]string{}, headers...), "X-Run-ID")
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
