package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const RequestIDHeader = fiber.HeaderXRequestID

// RequestID keeps an incoming X-Request-ID or generates one.
func RequestID() fiber.Handler {
	return requestid.New(requestid.Config{
		Header:     RequestIDHeader,
		Generator:  uuid.NewString,
		ContextKey: "request_id",
	})
}

func Logger(logger zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			// The app error handler has not run yet, so take the status from the error.
			status = statusOf(err)
		}

		evt := logger.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			evt = logger.Error().Err(err)
		case err != nil:
			evt = logger.Warn().Err(err)
		}

		rid, _ := c.Locals("request_id").(string)
		evt.
			Str("request_id", rid).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("remote_ip", c.IP()).
			Msg("request")

		return err
	}
}
