package api

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ciclofficina/tracker/internal/logging"
)

// RequestLogger logs one line per request once the response is written.
func RequestLogger(log *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// the error handler has not run yet
			status, _ = errorStatus(err)
		}
		log.Info("http request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"ip", c.IP(),
			"duration", time.Since(start),
		)
		return err
	}
}
