package database

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"
)

var _ DocumentRepository = (*SQLiteDocumentRepository)(nil)

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// TimestampLayout is a fixed-width UTC layout. Stored timestamps are compared as
// text, so every value must have the same number of fractional digits.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteDocumentRepository stores documents as JSON text in the documents table
type SQLiteDocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *DB) *SQLiteDocumentRepository {
	return &SQLiteDocumentRepository{db: db}
}

// ValidFieldName reports whether name can be used as an ordering field
func ValidFieldName(name string) bool {
	return fieldNamePattern.MatchString(name)
}

// Query returns the documents of a collection in the requested order
func (r *SQLiteDocumentRepository) Query(ctx context.Context, params QueryParams) ([]Document, error) {
	direction := "ASC"
	if params.Descending {
		direction = "DESC"
	}

	limit := params.Limit
	if limit <= 0 {
		limit = -1
	}

	var rows *sql.Rows
	var err error
	if params.OrderBy != "" {
		if !ValidFieldName(params.OrderBy) {
			return nil, fmt.Errorf("invalid order field %q", params.OrderBy)
		}
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, data, created_at, updated_at
			FROM documents
			WHERE collection = ?
			ORDER BY json_extract(data, ?) `+direction+`, created_at `+direction+`
			LIMIT ?
		`, params.Collection, "$."+params.OrderBy, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id, data, created_at, updated_at
			FROM documents
			WHERE collection = ?
			ORDER BY created_at `+direction+`
			LIMIT ?
		`, params.Collection, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows, params.Collection)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}

	return docs, nil
}

// Get returns a single document or ErrNotFound
func (r *SQLiteDocumentRepository) Get(ctx context.Context, collection, id string) (*Document, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, data, created_at, updated_at
		FROM documents
		WHERE collection = ? AND id = ?
	`, collection, id)

	doc, err := scanDocument(row, collection)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Count returns the number of documents in a collection
func (r *SQLiteDocumentRepository) Count(ctx context.Context, collection string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents WHERE collection = ?", collection).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// Insert stores a new document
func (r *SQLiteDocumentRepository) Insert(ctx context.Context, collection, id string, data map[string]any, now time.Time) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	stamp := now.UTC().Format(TimestampLayout)
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO documents (collection, id, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, collection, id, string(payload), stamp, stamp)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}

	return nil
}

// Patch merges data into an existing document (JSON merge patch: null removes a key)
func (r *SQLiteDocumentRepository) Patch(ctx context.Context, collection, id string, data map[string]any, now time.Time) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode document patch: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE documents
		SET data = json_patch(data, ?), updated_at = ?
		WHERE collection = ? AND id = ?
	`, string(payload), now.UTC().Format(TimestampLayout), collection, id)
	if err != nil {
		return fmt.Errorf("failed to patch document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

// Delete removes a document; deleting a missing document is not an error
func (r *SQLiteDocumentRepository) Delete(ctx context.Context, collection, id string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE collection = ? AND id = ?", collection, id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner, collection string) (*Document, error) {
	var (
		doc       Document
		data      string
		createdAt string
		updatedAt string
	)

	if err := row.Scan(&doc.ID, &data, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan document row: %w", err)
	}

	decoder := json.NewDecoder(bytes.NewReader([]byte(data)))
	decoder.UseNumber()
	if err := decoder.Decode(&doc.Data); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", doc.ID, err)
	}
	if doc.Data == nil {
		doc.Data = make(map[string]any)
	}

	doc.Collection = collection
	doc.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	doc.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)

	return &doc, nil
}
