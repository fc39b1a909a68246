package database

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a document does not exist in its collection
var ErrNotFound = errors.New("document not found")

// Document is one schemaless record of a collection. Data holds the raw key/value
// fields exactly as written; numbers are kept as json.Number.
type Document struct {
	ID         string
	Collection string
	Data       map[string]any
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// QueryParams selects an ordered, optionally limited slice of a collection
type QueryParams struct {
	Collection string
	OrderBy    string // JSON field name; empty orders by creation time
	Descending bool
	Limit      int // <= 0 means no limit
}

type DocumentRepository interface {
	Query(ctx context.Context, params QueryParams) ([]Document, error)
	Get(ctx context.Context, collection, id string) (*Document, error)
	Count(ctx context.Context, collection string) (int, error)

	Insert(ctx context.Context, collection, id string, data map[string]any, now time.Time) error
	Patch(ctx context.Context, collection, id string, data map[string]any, now time.Time) error
	Delete(ctx context.Context, collection, id string) error
}
