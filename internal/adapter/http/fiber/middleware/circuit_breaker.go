package middleware

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-insights/internal/infrastructure/circuitbreaker"
)

// CircuitBreaker sheds API traffic while handlers keep failing with 5xx.
// Client errors such as an unknown location id never trip it.
func CircuitBreaker(settings circuitbreaker.Settings, log *zap.Logger) fiber.Handler {
	if settings.Name == "" {
		settings.Name = "sigec-api"
	}
	cb := circuitbreaker.New(settings, log)

	return func(c *fiber.Ctx) error {
		var handlerErr error
		_, err := cb.Execute(func() (interface{}, error) {
			handlerErr = c.Next()
			if StatusCode(handlerErr) >= fiber.StatusInternalServerError {
				return nil, handlerErr
			}
			return nil, nil
		})

		if circuitbreaker.IsCircuitOpen(err) && handlerErr == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Service temporarily unavailable",
			})
		}

		return handlerErr
	}
}
