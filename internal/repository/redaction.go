package repository

import (
	"context"

	"redactapi/internal/model"
)

// RedactionRepository stores redaction records. There is no update or
// single-row delete; rows go away with their document.
type RedactionRepository interface {
	// Create inserts a redaction and returns the stored row.
	Create(ctx context.Context, r *model.Redaction) (*model.Redaction, error)

	// ListByDocument returns all redactions of a document ordered by creation
	// time. It is a single query so callers get a consistent snapshot.
	ListByDocument(ctx context.Context, documentID string) ([]model.Redaction, error)
}
