package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"

	"redactapi/internal/http/middleware"
	"redactapi/internal/service"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Handlers stay thin; business rules live in the service layer.
func RegisterRoutes(app *fiber.App, db *sql.DB, docSvc service.DocumentService, redSvc service.RedactionService) {
	// Swagger UI is mounted by the caller under /swagger/*
	app.Get("/docs", func(c *fiber.Ctx) error {
		return c.Redirect("/swagger/index.html", fiber.StatusFound)
	})

	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())

	app.Get("/documents", ListDocuments(docSvc))
	app.Post("/documents", UploadDocument(docSvc))
	app.Get("/documents/:id", GetDocument(docSvc, redSvc))
	app.Delete("/documents/:id", DeleteDocument(docSvc))

	app.Get("/documents/:id/redactions", ListRedactions(redSvc))
	app.Post("/documents/:id/redactions", CreateRedaction(redSvc))
	// Rendered output must not be cached.
	app.Get("/documents/:id/download", middleware.NoStore(), DownloadRedacted(redSvc))
}
