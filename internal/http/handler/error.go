package handler

import (
	"database/sql"
	"errors"

	"github.com/gofiber/fiber/v2"

	"redactapi/internal/http/middleware"
	"redactapi/internal/logging"
	"redactapi/internal/redact"
	"redactapi/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writeServiceError maps service and engine errors onto the HTTP error contract.
// Messages of engine errors describe the caller's input and are safe to return.
func writeServiceError(c *fiber.Ctx, err error) error {
	var (
		malformed   *redact.MalformedSourceError
		pageIndex   *redact.PageIndexError
		invalidRect *redact.InvalidRectangleError
		exhausted   *redact.ResourceExhaustionError
	)
	switch {
	case errors.Is(err, service.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
	case errors.Is(err, service.ErrInvalidPayload):
		return writeError(c, fiber.StatusBadRequest, "INVALID_PAYLOAD", err.Error())
	case errors.Is(err, service.ErrTitleRequired):
		return writeError(c, fiber.StatusBadRequest, "TITLE_REQUIRED", "title is required")
	case errors.As(err, &malformed):
		return writeError(c, fiber.StatusUnprocessableEntity, "MALFORMED_SOURCE", "document is not a valid PDF")
	case errors.As(err, &pageIndex):
		return writeError(c, fiber.StatusUnprocessableEntity, "PAGE_OUT_OF_RANGE", pageIndex.Error())
	case errors.As(err, &invalidRect):
		return writeError(c, fiber.StatusUnprocessableEntity, "INVALID_RECTANGLE", invalidRect.Error())
	case errors.As(err, &exhausted):
		return writeError(c, fiber.StatusRequestEntityTooLarge, "RESOURCE_EXHAUSTED", exhausted.Error())
	}

	logging.Default().Error("request_failed", map[string]any{
		"request_id": requestIDFromCtx(c),
		"method":     c.Method(),
		"path":       c.Path(),
		"error":      err,
	})
	return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var e *fiber.Error
		if errors.As(err, &e) {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "RESOURCE_EXHAUSTED", "request body too large")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
