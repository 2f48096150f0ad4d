package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CachingMiddleware sets Cache-Control on GET responses unless the handler did.
// Place reads always revalidate against the ETag.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()
		if c.Method() != fiber.MethodGet || len(c.Response().Header.Peek(fiber.HeaderCacheControl)) > 0 {
			return err
		}

		path := c.Path()
		var value string
		switch {
		case path == "/api/health" || path == "/api/ready" || path == "/metrics":
			value = "no-cache"
		case strings.HasPrefix(path, "/api/users"):
			value = "private, no-store"
		case strings.HasPrefix(path, "/api/places"):
			value = "public, max-age=0, must-revalidate"
		case strings.HasPrefix(path, "/docs"):
			value = "public, max-age=3600"
		}

		if value != "" {
			c.Set(fiber.HeaderCacheControl, value)
		}
		return err
	}
}
