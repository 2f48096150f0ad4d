package http

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/placeshare/internal/core/domain"
)

const (
	msgUnknownError  = "An unknown error occurred"
	msgRouteNotFound = "Could not find this route"
)

// errorResponse is the only error body the API returns.
type errorResponse struct {
	Message string `json:"message"`
}

// statusFor maps every error kind to its HTTP status.
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindValidation:
		return fiber.StatusUnprocessableEntity
	case domain.KindNotFound:
		return fiber.StatusNotFound
	case domain.KindUnauthorized:
		return fiber.StatusUnauthorized
	case domain.KindGeocoding, domain.KindPersistence:
		return fiber.StatusInternalServerError
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders any error returned by a handler as {"message": ...}.
// Unclassified errors become 500 with a generic message; causes are logged, never sent.
// If a body was already written the response is left as is.
func ErrorHandler(c *fiber.Ctx, err error) error {
	ctx := c.UserContext()

	if len(c.Response().Body()) > 0 || c.Response().IsBodyStream() {
		slog.ErrorContext(ctx, "error after response was written", "path", c.Path(), "error", err)
		return nil
	}

	status := fiber.StatusInternalServerError
	message := msgUnknownError

	var de *domain.Error
	var fe *fiber.Error
	switch {
	case errors.As(err, &de):
		status = statusFor(de.Kind)
		if de.Message != "" {
			message = de.Message
		}
	case errors.As(err, &fe):
		status = fe.Code
		switch {
		case fe.Code == fiber.StatusNotFound:
			message = msgRouteNotFound
		case fe.Code < fiber.StatusInternalServerError:
			message = fe.Message
		}
	}

	if status >= fiber.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed", "method", c.Method(), "path", c.Path(), "status", status, "error", err)
	} else {
		slog.DebugContext(ctx, "request rejected", "method", c.Method(), "path", c.Path(), "status", status, "error", err)
	}

	return c.Status(status).JSON(errorResponse{Message: message})
}

// NotFoundHandler terminates the chain for unmatched routes.
func NotFoundHandler(c *fiber.Ctx) error {
	return domain.NewError(domain.KindNotFound, msgRouteNotFound, nil)
}
