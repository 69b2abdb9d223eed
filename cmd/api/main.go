package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"redactapi/docs"
	"redactapi/internal/config"
	"redactapi/internal/database"
	"redactapi/internal/database/migration"
	handlers "redactapi/internal/http/handler"
	"redactapi/internal/http/middleware"
	"redactapi/internal/logging"
	tracing "redactapi/internal/otel"
	"redactapi/internal/redact"
	"redactapi/internal/repository/postgres"
	"redactapi/internal/service"
	"redactapi/internal/storage"
)

// @title Redaction API
// @version 1.0
// @description Upload PDFs, record redactions, and download copies with the redactions burned into the page content.
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := cfg.Location()
	logging.SetDefault(logging.New(os.Stdout, loc))
	log := logging.Default()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, loc)
	if err != nil {
		fatal(log, "failed to initialize tracing", err)
	}

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		fatal(log, "failed to connect to database", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		fatal(log, "failed to migrate database", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	objStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		fatal(log, "failed to initialize object storage", err)
	}

	burner := redact.NewBurner(redact.Limits{
		MaxSourceBytes: cfg.Redaction.MaxSourceBytes,
		MaxPages:       cfg.Redaction.MaxPages,
		MaxMarks:       cfg.Redaction.MaxMarks,
	})

	// Initialize repositories and services
	docRepo := postgres.NewDocumentPostgres(db)
	redRepo := postgres.NewRedactionPostgres(db)
	docSvc := service.NewDocumentService(objStore, docRepo, burner)
	redSvc := service.NewRedactionService(objStore, docRepo, redRepo, burner)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    cfg.BodyLimit,
	})

	// Register global middleware
	app.Use(recover.New())
	app.Use(otelfiber.Middleware())
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())

	prom, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		fatal(log, "failed to register metrics", err)
	}
	app.Use(prom.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Register HTTP routes with injected services
	handlers.RegisterRoutes(app, db, docSvc, redSvc)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	go func() {
		<-ctx.Done()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			log.Error("server_shutdown_failed", map[string]any{"error": err})
		}
	}()

	addr := ":" + cfg.Port
	log.Info("server_starting", map[string]any{
		"addr":             addr,
		"max_source_bytes": burner.Limits().MaxSourceBytes,
		"max_pages":        burner.Limits().MaxPages,
		"max_marks":        burner.Limits().MaxMarks,
	})

	if err := app.Listen(addr); err != nil {
		fatal(log, "failed to start server", err)
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(flushCtx); err != nil {
		log.Error("tracing_shutdown_failed", map[string]any{"error": err})
	}
	log.Info("server_stopped", nil)
}

func fatal(log *logging.Logger, msg string, err error) {
	log.Error(msg, map[string]any{"error": err})
	os.Exit(1)
}
