package handler

import (
	"github.com/gofiber/fiber/v2"

	"redactapi/internal/service"
)

// ListRedactions returns the redactions of a document in creation order.
//
// @Summary  List redactions
// @Tags     redactions
// @Produce  json
// @Param    id path string true "document ID"
// @Success  200 {array}  model.Redaction
// @Failure  404 {object} errorPayload
// @Router   /documents/{id}/redactions [get]
func ListRedactions(redSvc service.RedactionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		items, err := redSvc.List(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(items)
	}
}

// CreateRedaction stores a new redaction for a document.
//
// @Summary  Create a redaction
// @Tags     redactions
// @Accept   json
// @Produce  json
// @Param    id   path string                       true "document ID"
// @Param    body body service.CreateRedactionInput true "redaction"
// @Success  201 {object} model.Redaction
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /documents/{id}/redactions [post]
func CreateRedaction(redSvc service.RedactionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}

		var in service.CreateRedactionInput
		if err := c.BodyParser(&in); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_PAYLOAD", "request body must be a JSON object")
		}

		r, err := redSvc.Create(c.UserContext(), id, in)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(r)
	}
}

// DownloadRedacted renders the document with every redaction burned in and
// serves it as "<title>_redacted.pdf".
//
// @Summary  Download the redacted PDF
// @Tags     redactions
// @Produce  application/pdf
// @Param    id path string true "document ID"
// @Success  200 {file} file
// @Failure  404 {object} errorPayload
// @Failure  413 {object} errorPayload
// @Failure  422 {object} errorPayload
// @Router   /documents/{id}/download [get]
func DownloadRedacted(redSvc service.RedactionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		out, err := redSvc.Render(c.UserContext(), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		c.Attachment(out.Filename)
		c.Set(fiber.HeaderContentType, out.ContentType)
		return c.Send(out.Content)
	}
}
