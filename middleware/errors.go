package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberutils "github.com/gofiber/fiber/v2/utils"
	"github.com/meinhoongagan/clinic-server/utils"
	"github.com/rs/zerolog"
)

func statusOf(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return utils.KindOf(err).StatusCode()
}

// ErrorHandler renders every error returned by a handler as an
// utils.ErrorResponse. Only the public message reaches the client.
func ErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(utils.ErrorResponse{
				Message: fe.Message,
				Error:   fiberutils.StatusMessage(fe.Code),
			})
		}

		kind := utils.KindOf(err)
		if kind == utils.KindInternal || kind == utils.KindUpstream {
			rid, _ := c.Locals("request_id").(string)
			logger.Error().Err(err).
				Str("request_id", rid).
				Str("path", c.Path()).
				Msg("request failed")
		}
		return c.Status(kind.StatusCode()).JSON(utils.ErrorResponse{
			Message: utils.PublicMessage(err),
			Error:   kind.String(),
		})
	}
}
