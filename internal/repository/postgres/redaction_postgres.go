package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"redactapi/internal/model"
	"redactapi/internal/repository"
)

// RedactionPostgres is a PostgreSQL implementation of repository.RedactionRepository.
// Coordinates are kept in a JSONB column.
type RedactionPostgres struct {
	db *sql.DB
}

// NewRedactionPostgres creates a new RedactionPostgres repository.
func NewRedactionPostgres(db *sql.DB) *RedactionPostgres {
	return &RedactionPostgres{db: db}
}

var _ repository.RedactionRepository = (*RedactionPostgres)(nil)

const redactionColumns = `id, document_id, redaction_type, coordinates, created_at`

func scanRedaction(s rowScanner) (*model.Redaction, error) {
	var (
		r      model.Redaction
		typ    string
		coords []byte
	)
	if err := s.Scan(&r.ID, &r.DocumentID, &typ, &coords, &r.CreatedAt); err != nil {
		return nil, err
	}
	r.Type = model.RedactionType(typ)
	if err := json.Unmarshal(coords, &r.Coordinates); err != nil {
		return nil, fmt.Errorf("decode coordinates of redaction %s: %w", r.ID, err)
	}
	return &r, nil
}

// Create inserts a redaction row and returns the stored record.
func (p *RedactionPostgres) Create(ctx context.Context, r *model.Redaction) (*model.Redaction, error) {
	coords, err := json.Marshal(r.Coordinates)
	if err != nil {
		return nil, fmt.Errorf("encode coordinates: %w", err)
	}
	const q = `
		INSERT INTO redactions (id, document_id, redaction_type, coordinates, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + redactionColumns
	row := p.db.QueryRowContext(ctx, q,
		r.ID,
		r.DocumentID,
		string(r.Type),
		coords,
		r.CreatedAt,
	)
	return scanRedaction(row)
}

// ListByDocument returns the redactions of a document, oldest first.
func (p *RedactionPostgres) ListByDocument(ctx context.Context, documentID string) ([]model.Redaction, error) {
	const q = `
		SELECT ` + redactionColumns + `
		FROM redactions
		WHERE document_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := p.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Redaction, 0)
	for rows.Next() {
		r, err := scanRedaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
