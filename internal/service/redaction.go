package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"redactapi/internal/logging"
	"redactapi/internal/model"
	"redactapi/internal/redact"
	"redactapi/internal/repository"
	"redactapi/internal/storage"
)

// ErrInvalidPayload wraps every validation failure of a redaction request.
var ErrInvalidPayload = errors.New("invalid redaction payload")

var tracer = otel.Tracer("redactapi/internal/service")

// CoordinatesInput is the UI-space rectangle of a new redaction. Pointers
// tell a missing field apart from an explicit zero.
type CoordinatesInput struct {
	X      *float64 `json:"x" validate:"required,gte=0"`
	Y      *float64 `json:"y" validate:"required,gte=0"`
	Width  *float64 `json:"width" validate:"required,gt=0"`
	Height *float64 `json:"height" validate:"required,gt=0"`
	Page   *int     `json:"page" validate:"required,gte=1"`
}

// CreateRedactionInput is the only accepted request schema for a new redaction.
type CreateRedactionInput struct {
	Type        string            `json:"type" validate:"required,oneof=text-selection area-drawing text area"`
	Coordinates *CoordinatesInput `json:"coordinates" validate:"required"`
}

// RenderedDocument is a redacted PDF ready to be served.
type RenderedDocument struct {
	Filename    string
	ContentType string
	Content     []byte
	Marks       int
}

// RedactionService manages redaction records and renders redacted output.
type RedactionService interface {
	// Create validates in against the document and stores a new redaction.
	Create(ctx context.Context, documentID string, in CreateRedactionInput) (*model.Redaction, error)

	// List returns the redactions of a document in creation order.
	List(ctx context.Context, documentID string) ([]model.Redaction, error)

	// Render burns every redaction of the document into a fresh copy of its source.
	// Nothing is persisted.
	Render(ctx context.Context, documentID string) (*RenderedDocument, error)
}

type redactionService struct {
	store    storage.Storage
	docs     repository.DocumentRepository
	repo     repository.RedactionRepository
	engine   Engine
	validate *validator.Validate
}

// NewRedactionService constructs a new RedactionService.
func NewRedactionService(store storage.Storage, docs repository.DocumentRepository, repo repository.RedactionRepository, engine Engine) RedactionService {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &redactionService{store: store, docs: docs, repo: repo, engine: engine, validate: v}
}

func (s *redactionService) Create(ctx context.Context, documentID string, in CreateRedactionInput) (*model.Redaction, error) {
	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}
	typ, err := model.ParseRedactionType(in.Type)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	doc, err := findDocument(ctx, s.docs, documentID)
	if err != nil {
		return nil, err
	}
	c := in.Coordinates
	if *c.Page > doc.PageCount {
		return nil, fmt.Errorf("%w: coordinates.page must be at most %d", ErrInvalidPayload, doc.PageCount)
	}

	r := &model.Redaction{
		ID:         uuid.New().String(),
		DocumentID: doc.ID,
		Type:       typ,
		Coordinates: model.Coordinates{
			X:      *c.X,
			Y:      *c.Y,
			Width:  *c.Width,
			Height: *c.Height,
			Page:   *c.Page,
		},
		CreatedAt: time.Now().UTC(),
	}
	return s.repo.Create(ctx, r)
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := fe.Namespace()
		if i := strings.IndexByte(field, '.'); i >= 0 {
			field = field[i+1:]
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "oneof":
			msgs = append(msgs, field+" must be one of: "+fe.Param())
		case "gt":
			msgs = append(msgs, field+" must be greater than "+fe.Param())
		case "gte":
			msgs = append(msgs, field+" must be at least "+fe.Param())
		default:
			msgs = append(msgs, field+" is invalid")
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidPayload, strings.Join(msgs, "; "))
}

func (s *redactionService) List(ctx context.Context, documentID string) ([]model.Redaction, error) {
	doc, err := findDocument(ctx, s.docs, documentID)
	if err != nil {
		return nil, err
	}
	return s.repo.ListByDocument(ctx, doc.ID)
}

func (s *redactionService) Render(ctx context.Context, documentID string) (*RenderedDocument, error) {
	ctx, span := tracer.Start(ctx, "redaction.render",
		trace.WithAttributes(attribute.String("document.id", documentID)))
	defer span.End()

	start := time.Now()
	out, err := s.render(ctx, documentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "render failed")
		logging.Default().Error("redaction_render_failed", map[string]any{
			"component":   "service",
			"document_id": documentID,
			"error":       err,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("redaction.marks", out.Marks),
		attribute.Int("redaction.output_bytes", len(out.Content)),
	)
	logging.Default().Info("redaction_rendered", map[string]any{
		"component":    "service",
		"document_id":  documentID,
		"marks":        out.Marks,
		"output_bytes": len(out.Content),
		"duration_ms":  time.Since(start).Milliseconds(),
	})
	return out, nil
}

func (s *redactionService) render(ctx context.Context, documentID string) (*RenderedDocument, error) {
	doc, err := findDocument(ctx, s.docs, documentID)
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListByDocument(ctx, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("list redactions: %w", err)
	}

	limit := s.engine.Limits().MaxSourceBytes
	src, err := storage.ReadAll(ctx, s.store, doc.StoragePath, limit)
	if err != nil {
		if errors.Is(err, storage.ErrObjectTooLarge) {
			return nil, &redact.ResourceExhaustionError{Resource: "source bytes", Limit: limit, Actual: doc.Size}
		}
		return nil, fmt.Errorf("load source: %w", err)
	}

	regions := make([]redact.Region, len(items))
	for i, r := range items {
		c := r.Coordinates
		regions[i] = redact.Region{
			Page: c.Page,
			Rect: redact.Rect{X: c.X, Y: c.Y, Width: c.Width, Height: c.Height},
		}
	}

	content, err := s.engine.Redact(src, regions)
	if err != nil {
		return nil, fmt.Errorf("burn redactions: %w", err)
	}
	return &RenderedDocument{
		Filename:    RedactedFilename(doc.Title),
		ContentType: pdfContentType,
		Content:     content,
		Marks:       len(regions),
	}, nil
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._ -]+`)

// RedactedFilename names the download of a redacted document: "<title>_redacted.pdf".
// Characters that are unsafe in a Content-Disposition header become "_".
func RedactedFilename(title string) string {
	name := strings.TrimSpace(unsafeFilenameChars.ReplaceAllString(title, "_"))
	if name == "" {
		name = "document"
	}
	return name + "_redacted.pdf"
}
