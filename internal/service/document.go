package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"redactapi/internal/model"
	"redactapi/internal/redact"
	"redactapi/internal/repository"
	"redactapi/internal/storage"
)

var (
	ErrIDRequired    = errors.New("id is required")
	ErrNotFound      = errors.New("document not found")
	ErrReaderNil     = errors.New("reader is nil")
	ErrTitleRequired = errors.New("title is required")
)

const (
	pdfContentType = "application/pdf"
	sourceURLTTL   = 15 * time.Minute
)

// Engine is the PDF engine the services parse and burn documents with.
// *redact.Burner implements it.
type Engine interface {
	Inspect(src []byte) (*redact.DocumentInfo, error)
	Redact(src []byte, regions []redact.Region) ([]byte, error)
	Limits() redact.Limits
}

// DocumentListResult is the service-level DTO for paginated documents.
type DocumentListResult struct {
	Items []model.Document `json:"data"`
	Total int              `json:"total"`
}

// DocumentService defines the use cases for handling documents.
type DocumentService interface {
	// Upload validates the PDF, stores it in object storage and saves its metadata.
	// Storage is rolled back if the DB save fails.
	// - title falls back to the original filename without its extension.
	// - the stored object key is "documents/<uuid>.pdf".
	Upload(ctx context.Context, r io.Reader, title, originalFilename string, size int64) (*model.Document, error)

	// List returns documents using limit/offset and a total count.
	List(ctx context.Context, limit, offset int) (*DocumentListResult, error)

	// Get returns a single document by its ID.
	Get(ctx context.Context, id string) (*model.Document, error)

	// SourceURL returns a short-lived download link for the unredacted source.
	SourceURL(ctx context.Context, doc *model.Document) (string, error)

	// Delete removes a document by ID from both storage and repository.
	Delete(ctx context.Context, id string) error
}

// documentService is a concrete implementation of DocumentService.
type documentService struct {
	store  storage.Storage
	repo   repository.DocumentRepository
	engine Engine
}

// NewDocumentService constructs a new DocumentService.
func NewDocumentService(store storage.Storage, repo repository.DocumentRepository, engine Engine) DocumentService {
	return &documentService{store: store, repo: repo, engine: engine}
}

func (s *documentService) Upload(ctx context.Context, r io.Reader, title, originalFilename string, size int64) (*model.Document, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	title = strings.TrimSpace(title)
	if title == "" {
		base := filepath.Base(originalFilename)
		title = strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	}
	if title == "" || title == "." {
		return nil, ErrTitleRequired
	}

	content, err := readSource(r, size, s.engine.Limits().MaxSourceBytes)
	if err != nil {
		return nil, err
	}

	info, err := s.engine.Inspect(content)
	if err != nil {
		return nil, fmt.Errorf("inspect upload: %w", err)
	}

	key := "documents/" + uuid.New().String() + ".pdf"
	objInfo, err := s.store.Put(ctx, key, bytes.NewReader(content), storage.PutObjectOptions{
		Size:        int64(len(content)),
		ContentType: pdfContentType,
		Metadata: map[string]string{
			"original-filename": originalFilename,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("upload to storage: %w", err)
	}

	doc := &model.Document{
		ID:          uuid.New().String(),
		Title:       title,
		StoragePath: objInfo.Key,
		Size:        int64(len(content)),
		ContentType: pdfContentType,
		PageCount:   info.PageCount,
		CreatedAt:   time.Now().UTC(),
	}
	stored, err := s.repo.Create(ctx, doc)
	if err != nil {
		// Rollback: delete the object from storage
		if delErr := s.store.Delete(ctx, key); delErr != nil {
			return nil, fmt.Errorf("db save failed: %v; rollback delete failed: %v", err, delErr)
		}
		return nil, fmt.Errorf("db save failed: %w", err)
	}
	return stored, nil
}

// readSource buffers an upload. size is the client-declared length or -1.
func readSource(r io.Reader, size, max int64) ([]byte, error) {
	if max > 0 && size > max {
		return nil, &redact.ResourceExhaustionError{Resource: "source bytes", Limit: max, Actual: size}
	}
	if max > 0 {
		r = io.LimitReader(r, max+1)
	}
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if max > 0 && int64(len(content)) > max {
		return nil, &redact.ResourceExhaustionError{Resource: "source bytes", Limit: max, Actual: int64(len(content))}
	}
	return content, nil
}

// List returns paginated documents without exposing repository types.
func (s *documentService) List(ctx context.Context, limit, offset int) (*DocumentListResult, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}

	res, err := s.repo.List(ctx, repository.PageQuery{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	return &DocumentListResult{Items: res.Items, Total: res.Total}, nil
}

// Get returns a document by ID.
func (s *documentService) Get(ctx context.Context, id string) (*model.Document, error) {
	return findDocument(ctx, s.repo, id)
}

func findDocument(ctx context.Context, repo repository.DocumentRepository, id string) (*model.Document, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	doc, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return doc, nil
}

func (s *documentService) SourceURL(ctx context.Context, doc *model.Document) (string, error) {
	return s.store.PresignGet(ctx, doc.StoragePath, sourceURLTTL)
}

// Delete removes a document from storage, then deletes its record.
// Redactions go with the row through ON DELETE CASCADE.
func (s *documentService) Delete(ctx context.Context, id string) error {
	doc, err := findDocument(ctx, s.repo, id)
	if err != nil {
		return err
	}
	// Delete from storage first; if this fails, keep DB row to avoid orphaned storage reference loss
	if err := s.store.Delete(ctx, doc.StoragePath); err != nil {
		return fmt.Errorf("delete storage: %w", err)
	}
	return s.repo.Delete(ctx, id)
}
