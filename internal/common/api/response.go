package api

import (
	"errors"

	"go-cms/internal/common/apperror"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// RespondError maps typed errors to their status; anything else is logged and surfaced as a 500.
func RespondError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		logger.Error("Unknown service error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Internal server error",
			"code":  "UNKNOWN_SERVICE_ERROR",
		})
	}

	status := apperror.HTTPStatus(appErr)
	if status >= fiber.StatusInternalServerError {
		logger.Error(appErr.Message, zap.String("code", appErr.Code), zap.Error(appErr.Unwrap()))
	}

	return c.Status(status).JSON(fiber.Map{
		"error": appErr.Message,
		"code":  appErr.Code,
	})
}
