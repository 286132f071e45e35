package serverutils

import (
	"errors"

	"learnly-chat-be/pkg/chat/exchange"
	"learnly-chat-be/pkg/chat/session"
	"learnly-chat-be/pkg/docstore"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware turns handler errors into the JSON error envelope.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		return ErrorHandler(ctx, err)
	}
}

// ErrorHandler is also installed as fiber.Config.ErrorHandler.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		body := ErrorResponse(fiber.StatusUnprocessableEntity, "validation failed")
		body.Errors = validationErr.Fields
		return ctx.Status(fiber.StatusUnprocessableEntity).JSON(body)
	}

	status, message := StatusFor(err)
	return ctx.Status(status).JSON(ErrorResponse(status, message))
}

// StatusFor maps domain errors to an HTTP status and a client-safe message.
func StatusFor(err error) (int, string) {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, docstore.ErrNotFound):
		return fiber.StatusNotFound, "chat session not found"
	case errors.Is(err, exchange.ErrCompletionFailed):
		return fiber.StatusBadGateway, "the tutor could not answer right now"
	case errors.Is(err, session.ErrEmptyTitle):
		return fiber.StatusBadRequest, err.Error()
	default:
		return fiber.StatusInternalServerError, "internal server error"
	}
}
