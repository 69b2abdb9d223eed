package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"redactapi/internal/logging"
	"redactapi/internal/model"
	"redactapi/internal/service"
)

// documentDetail is the body of GET /documents/:id.
type documentDetail struct {
	model.Document
	SourceURL  string            `json:"source_url,omitempty"`
	Redactions []model.Redaction `json:"redactions"`
}

// idParam validates the :id path segment as a UUID.
func idParam(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// ListDocuments returns documents newest first, paginated by limit & offset.
//
// @Summary  List documents
// @Tags     documents
// @Produce  json
// @Param    limit  query int false "page size" default(10)
// @Param    offset query int false "rows to skip" default(0)
// @Success  200 {object} service.DocumentListResult
// @Failure  400 {object} errorPayload
// @Router   /documents [get]
func ListDocuments(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", "10"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(c.Query("offset", "0"))
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := docSvc.List(c.UserContext(), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// UploadDocument stores a PDF sent as multipart/form-data (fields: file, title).
//
// @Summary  Upload a PDF
// @Tags     documents
// @Accept   multipart/form-data
// @Produce  json
// @Param    file  formData file   true  "PDF document"
// @Param    title formData string false "display title, defaults to the file name"
// @Success  201 {object} model.Document
// @Failure  400 {object} errorPayload
// @Failure  413 {object} errorPayload
// @Failure  422 {object} errorPayload
// @Router   /documents [post]
func UploadDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		doc, err := docSvc.Upload(c.UserContext(), f, c.FormValue("title"), fh.Filename, fh.Size)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument returns a document with its redactions and a short-lived
// link to the unredacted source.
//
// @Summary  Get a document
// @Tags     documents
// @Produce  json
// @Param    id path string true "document ID"
// @Success  200 {object} documentDetail
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /documents/{id} [get]
func GetDocument(docSvc service.DocumentService, redSvc service.RedactionService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		ctx := c.UserContext()

		doc, err := docSvc.Get(ctx, id)
		if err != nil {
			return writeServiceError(c, err)
		}
		items, err := redSvc.List(ctx, id)
		if err != nil {
			return writeServiceError(c, err)
		}

		detail := documentDetail{Document: *doc, Redactions: items}
		if u, err := docSvc.SourceURL(ctx, doc); err == nil {
			detail.SourceURL = u
		} else {
			logging.Default().Error("presign_failed", map[string]any{
				"request_id":  requestIDFromCtx(c),
				"document_id": id,
				"error":       err,
			})
		}
		return c.JSON(detail)
	}
}

// DeleteDocument removes a document, its stored source and its redactions.
//
// @Summary  Delete a document
// @Tags     documents
// @Param    id path string true "document ID"
// @Success  204
// @Failure  400 {object} errorPayload
// @Failure  404 {object} errorPayload
// @Router   /documents/{id} [delete]
func DeleteDocument(docSvc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := idParam(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := docSvc.Delete(c.UserContext(), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
