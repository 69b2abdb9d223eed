// Command seed replaces all documents with three generated legal samples.
package main

import (
	"bytes"
	"context"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"redactapi/internal/config"
	"redactapi/internal/database"
	"redactapi/internal/database/migration"
	"redactapi/internal/logging"
	"redactapi/internal/redact"
	"redactapi/internal/repository/postgres"
	"redactapi/internal/service"
	"redactapi/internal/storage"
)

func main() {
	cfg := config.Load()
	loc := cfg.Location()
	logging.SetDefault(logging.New(os.Stdout, loc))
	log := logging.Default()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		fatal(log, "failed to connect to database", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		fatal(log, "failed to migrate database", err)
	}

	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		fatal(log, "failed to initialize object storage", err)
	}

	burner := redact.NewBurner(redact.Limits{
		MaxSourceBytes: cfg.Redaction.MaxSourceBytes,
		MaxPages:       cfg.Redaction.MaxPages,
		MaxMarks:       cfg.Redaction.MaxMarks,
	})
	docSvc := service.NewDocumentService(objStore, postgres.NewDocumentPostgres(db), burner)

	if err := seed(ctx, docSvc, log); err != nil {
		fatal(log, "seed failed", err)
	}
}

func seed(ctx context.Context, docSvc service.DocumentService, log *logging.Logger) error {
	deleted, err := deleteAll(ctx, docSvc)
	if err != nil {
		return err
	}
	log.Info("seed_deleted_existing", map[string]any{"documents": deleted})

	for _, s := range samples {
		pdf := s.PDF()
		doc, err := docSvc.Upload(ctx, bytes.NewReader(pdf), s.Title, s.Filename, int64(len(pdf)))
		if err != nil {
			return err
		}
		log.Info("seed_document_created", map[string]any{
			"document_id": doc.ID,
			"title":       doc.Title,
			"page_count":  doc.PageCount,
		})
	}
	log.Info("seed_completed", map[string]any{"documents": len(samples)})
	return nil
}

func deleteAll(ctx context.Context, docSvc service.DocumentService) (int, error) {
	deleted := 0
	for {
		page, err := docSvc.List(ctx, 100, 0)
		if err != nil {
			return deleted, err
		}
		if len(page.Items) == 0 {
			return deleted, nil
		}
		for _, d := range page.Items {
			if err := docSvc.Delete(ctx, d.ID); err != nil {
				return deleted, err
			}
			deleted++
		}
	}
}

func fatal(log *logging.Logger, msg string, err error) {
	log.Error(msg, map[string]any{"error": err})
	os.Exit(1)
}
