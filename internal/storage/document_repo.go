package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// DocumentStore defines the interface for document storage operations.
type DocumentStore interface {
	// GetBySource gets a document by its source name. Returns ErrNotFound if not found.
	GetBySource(ctx context.Context, sourceName string) (*DocumentRecord, error)
	// Upsert inserts a new document or updates an existing one, keyed by source name.
	Upsert(ctx context.Context, doc *DocumentRecord) error
	// ListAll returns every document ordered by source name.
	ListAll(ctx context.Context) ([]DocumentRecord, error)
	// Delete removes a document and, through the foreign key, its chunks.
	Delete(ctx context.Context, id string) error
	// DeleteAll removes every document and chunk.
	DeleteAll(ctx context.Context) error
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// GetBySource gets a document by its source name.
// Returns nil and ErrNotFound if not found.
func (r *DocumentRepo) GetBySource(ctx context.Context, sourceName string) (*DocumentRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, source_name, source_path, hash, chars, ingested_at FROM documents WHERE source_name = ?",
		sourceName,
	)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	return doc, nil
}

// Upsert inserts a new document or updates an existing one.
// If the document doesn't exist, generates a new UUID.
// If it exists, updates path, hash and size while preserving the ID.
func (r *DocumentRepo) Upsert(ctx context.Context, doc *DocumentRecord) error {
	existing, err := r.GetBySource(ctx, doc.SourceName)
	if err != nil && err != ErrNotFound {
		return fmt.Errorf("failed to check existing document: %w", err)
	}

	if existing == nil && doc.ID == "" {
		doc.ID = uuid.New().String()
	} else if existing != nil {
		doc.ID = existing.ID
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO documents (id, source_name, source_path, hash, chars, ingested_at)
		 VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (source_name) DO UPDATE SET
		 source_path = excluded.source_path, hash = excluded.hash,
		 chars = excluded.chars, ingested_at = CURRENT_TIMESTAMP`,
		doc.ID, doc.SourceName, doc.SourcePath, doc.Hash, doc.Chars,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	return nil
}

// ListAll returns every document ordered by source name.
func (r *DocumentRepo) ListAll(ctx context.Context) ([]DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, source_name, source_path, hash, chars, ingested_at FROM documents ORDER BY source_name",
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []DocumentRecord
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return docs, nil
}

// Delete removes a document by ID. Its chunks are removed by ON DELETE CASCADE.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// DeleteAll removes every document and chunk.
func (r *DocumentRepo) DeleteAll(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("failed to delete chunks: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM documents"); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*DocumentRecord, error) {
	var doc DocumentRecord
	var ingestedAt string
	if err := row.Scan(&doc.ID, &doc.SourceName, &doc.SourcePath, &doc.Hash, &doc.Chars, &ingestedAt); err != nil {
		return nil, err
	}

	var err error
	doc.IngestedAt, err = time.Parse("2006-01-02 15:04:05", ingestedAt)
	if err != nil {
		// SQLite might use a different format
		doc.IngestedAt, err = time.Parse(time.RFC3339, ingestedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ingested_at timestamp: %w", err)
		}
	}
	return &doc, nil
}
