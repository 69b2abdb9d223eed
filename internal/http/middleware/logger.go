package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"

	"redactapi/internal/logging"
)

// Logger is a middleware that logs each HTTP request in JSON format through
// the process-wide logger.
// Fields:
// - ts
// - request_id (taken from context locals set by RequestID middleware)
// - method
// - path
// - status
// - latency (in milliseconds, as float)
func Logger() fiber.Handler {
	return loggerWith(logging.Default())
}

// LoggerWithWriter is Logger writing to w with timestamps in loc.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return loggerWith(logging.New(w, loc))
}

func loggerWith(l *logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		// Process request
		err := c.Next()

		// Collect fields after handler executed to capture final status
		rid, _ := c.Locals(RequestIDLocalKey).(string)
		status := c.Response().StatusCode()
		if fe, ok := err.(*fiber.Error); ok {
			status = fe.Code
		}

		fields := map[string]any{
			"request_id": rid,
			"method":     c.Method(),
			// Use only the path segment (no query string)
			"path":    c.Path(),
			"status":  status,
			"latency": float64(time.Since(start).Microseconds()) / 1000,
		}
		if status >= fiber.StatusInternalServerError {
			fields["level"] = "error"
		}
		l.Log(fields)

		return err
	}
}
