package middleware

import "github.com/gofiber/fiber/v2"

// NoStore marks the response as uncacheable by browsers and proxies.
func NoStore() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderCacheControl, "no-store")
		c.Set(fiber.HeaderPragma, "no-cache")
		return c.Next()
	}
}
