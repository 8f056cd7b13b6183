package handlers

import (
	"errors"

	"phonebook/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var kindStatus = map[services.Kind]int{
	services.KindConflict:     fiber.StatusConflict,
	services.KindUnauthorized: fiber.StatusUnauthorized,
	services.KindNotFound:     fiber.StatusNotFound,
	services.KindBadRequest:   fiber.StatusBadRequest,
}

// writeError maps a service failure to its status; anything unexpected is a 500.
func writeError(c *fiber.Ctx, logger *zap.Logger, err error) error {
	var svcErr *services.Error
	if errors.As(err, &svcErr) {
		if status, ok := kindStatus[svcErr.Kind]; ok {
			return c.Status(status).JSON(fiber.Map{"message": svcErr.Message})
		}
	}
	logger.Error("request failed",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error"})
}

// ErrorHandler is the app-wide fallback for errors returned by handlers
// and for unmatched routes.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			message := fiberErr.Message
			if fiberErr.Code == fiber.StatusNotFound {
				message = "Not found"
			}
			return c.Status(fiberErr.Code).JSON(fiber.Map{"message": message})
		}
		return writeError(c, logger, err)
	}
}

// NotFound answers any request no route matched.
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Not found"})
}
