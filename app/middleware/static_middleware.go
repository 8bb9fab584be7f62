package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

// PlugStatic guards the static mount: browser probes for .well-known paths,
// at the root or under the static prefix, get a stub response instead of
// falling through to the API routes.
func PlugStatic(staticPrefix string) fiber.Handler {
	prefixed := staticPrefix + "/.well-known/"
	return func(c *fiber.Ctx) error {
		path := c.Path()

		if strings.HasPrefix(path, "/.well-known/") || strings.HasPrefix(path, prefixed) {
			return c.JSON(fiber.Map{
				"status": "ignored dynamic-static",
			})
		}

		return c.Next()
	}
}
