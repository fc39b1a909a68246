package store

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/lysyi3m/sanskrithi-site/app/database"
)

var _ Subscriber = (*Store)(nil)
var _ Writer = (*Store)(nil)

const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

type Option func(*Store)

// WithBroadcaster propagates writes to other instances
func WithBroadcaster(b Broadcaster) Option {
	return func(s *Store) { s.broadcaster = b }
}

func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// WithClock overrides the time source used for server timestamps
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Store is the content store: a document repository plus live subscriptions
type Store struct {
	repo        database.DocumentRepository
	hub         *Hub
	collections map[string]bool
	broadcaster Broadcaster
	observer    Observer
	now         func() time.Time
}

// New creates a store serving the given collection names
func New(repo database.DocumentRepository, hub *Hub, collections []string, opts ...Option) *Store {
	s := &Store{
		repo:        repo,
		hub:         hub,
		collections: make(map[string]bool, len(collections)),
		observer:    nopObserver{},
		now:         time.Now,
	}
	for _, c := range collections {
		s.collections[c] = true
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Hub() *Hub {
	return s.hub
}

// Now returns the server clock used for timestamps
func (s *Store) Now() time.Time {
	return s.now().UTC()
}

func (s *Store) checkCollection(collection string) error {
	if !s.collections[collection] {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	return nil
}

// Subscribe opens a live query. The initial snapshot is delivered as soon as the
// first read completes, then again after every write to the collection.
func (s *Store) Subscribe(ctx context.Context, q Query, onSnapshot SnapshotFunc, onError ErrorFunc) (*Subscription, error) {
	if err := s.checkCollection(q.Collection); err != nil {
		return nil, err
	}
	if q.OrderBy != "" && !database.ValidFieldName(q.OrderBy) {
		return nil, fmt.Errorf("invalid order field %q", q.OrderBy)
	}
	if onSnapshot == nil {
		return nil, fmt.Errorf("snapshot callback is required")
	}

	sub := newSubscription(s, q, onSnapshot, onError)
	s.hub.add(sub)
	s.observer.SubscriptionOpened(q.Collection)

	go sub.run(ctx)
	sub.wake()

	slog.Debug("Subscription opened", "collection", q.Collection, "order_by", q.OrderBy, "limit", q.Limit)

	return sub, nil
}

// Create stores a new document and returns its store-assigned id
func (s *Store) Create(ctx context.Context, collection string, fields map[string]any) (string, error) {
	if err := s.checkCollection(collection); err != nil {
		return "", err
	}

	id := uuid.NewString()
	err := s.repo.Insert(ctx, collection, id, maps.Clone(fields), s.Now())
	s.observer.WriteCompleted(collection, OpCreate, err)
	if err != nil {
		return "", fmt.Errorf("failed to create document: %w", err)
	}

	s.changed(ctx, collection)
	return id, nil
}

// Update merges fields into an existing document; last write wins
func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := s.checkCollection(collection); err != nil {
		return err
	}

	err := s.repo.Patch(ctx, collection, id, fields, s.Now())
	s.observer.WriteCompleted(collection, OpUpdate, err)
	if err != nil {
		return fmt.Errorf("failed to update document %s: %w", id, err)
	}

	s.changed(ctx, collection)
	return nil
}

// Delete removes a document immediately; there is no soft delete
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if err := s.checkCollection(collection); err != nil {
		return err
	}

	err := s.repo.Delete(ctx, collection, id)
	s.observer.WriteCompleted(collection, OpDelete, err)
	if err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}

	s.changed(ctx, collection)
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*database.Document, error) {
	if err := s.checkCollection(collection); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, collection, id)
}

// List reads a query once without subscribing
func (s *Store) List(ctx context.Context, q Query) ([]database.Document, error) {
	if err := s.checkCollection(q.Collection); err != nil {
		return nil, err
	}
	return s.repo.Query(ctx, database.QueryParams{
		Collection: q.Collection,
		OrderBy:    q.OrderBy,
		Descending: q.Descending,
		Limit:      q.Limit,
	})
}

func (s *Store) changed(ctx context.Context, collection string) {
	s.hub.Notify(collection)

	if s.broadcaster == nil {
		return
	}
	if err := s.broadcaster.Publish(ctx, collection); err != nil {
		slog.Warn("Failed to broadcast change", "collection", collection, "error", err)
	}
}
