package server

import (
	"errors"
	"log/slog"

	"dailyprompt/internal/middleware"
	"dailyprompt/internal/models"

	"github.com/gofiber/fiber/v2"
)

// statusFor maps every error code to its HTTP status.
func statusFor(code models.ErrorCode) int {
	switch code {
	case models.CodeMalformedID,
		models.CodeMalformedBody,
		models.CodeFieldRequired,
		models.CodeAnswerRequired,
		models.CodeAnswerTooShort,
		models.CodeAnswerTooLong,
		models.CodeUsernameTaken,
		models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeInvalidCredentials,
		models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeNotFound,
		models.CodeUnknownEndpoint:
		return fiber.StatusNotFound
	case models.CodeRateLimited:
		return fiber.StatusTooManyRequests
	case models.CodeInternal:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler is the single place where errors returned by handlers and
// middleware become HTTP responses.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if appErr, ok := models.AsAppError(err); ok {
		status := statusFor(appErr.Code)
		if status >= fiber.StatusInternalServerError {
			logInternal(c, err)
			return models.RespondWithError(c, status, models.NewInternalError(err))
		}
		return models.RespondWithError(c, status, appErr)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		switch {
		case fiberErr.Code == fiber.StatusNotFound:
			return models.RespondWithError(c, fiber.StatusNotFound, models.ErrUnknownEndpoint)
		case fiberErr.Code < fiber.StatusInternalServerError:
			return c.Status(fiberErr.Code).JSON(models.ErrorResponse{Error: fiberErr.Message})
		}
	}

	logInternal(c, err)
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

func logInternal(c *fiber.Ctx, err error) {
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled error",
		slog.String("method", c.Method()),
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
}
