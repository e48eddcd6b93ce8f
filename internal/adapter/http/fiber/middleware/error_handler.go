package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/seu-repo/sigec-insights/internal/infrastructure/circuitbreaker"
	"github.com/seu-repo/sigec-insights/internal/service/analytics"
)

// StatusCode maps an error returned by a handler to its HTTP status.
func StatusCode(err error) int {
	var fe *fiber.Error
	switch {
	case err == nil:
		return fiber.StatusOK
	case errors.As(err, &fe):
		return fe.Code
	case errors.Is(err, analytics.ErrNotFound):
		return fiber.StatusNotFound
	case circuitbreaker.IsCircuitOpen(err):
		return fiber.StatusServiceUnavailable
	case errors.Is(err, analytics.ErrFetchFailed):
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := StatusCode(err)

		if code >= fiber.StatusInternalServerError {
			log.Error("Request failed",
				zap.Error(err),
				zap.Int("status", code),
				zap.String("path", c.Path()),
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}
