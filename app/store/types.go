// Package store implements the content store API: document writes and live,
// full-snapshot subscriptions over named collections.
package store

import (
	"context"
	"errors"

	"github.com/lysyi3m/sanskrithi-site/app/database"
)

var ErrUnknownCollection = errors.New("unknown collection")

// Query describes a live subscription: one collection, optional ordering and limit
type Query struct {
	Collection string
	OrderBy    string
	Descending bool
	Limit      int
}

// Snapshot is the complete current result set of a query. Version increases with
// every write to the collection and never goes backwards for a subscription.
type Snapshot struct {
	Query     Query
	Version   uint64
	Documents []database.Document
}

type SnapshotFunc func(Snapshot)

type ErrorFunc func(error)

// Subscriber is the read side of the store as seen by listing controllers
type Subscriber interface {
	Subscribe(ctx context.Context, q Query, onSnapshot SnapshotFunc, onError ErrorFunc) (*Subscription, error)
}

// Writer is the write side of the store as seen by the admin editor
type Writer interface {
	Create(ctx context.Context, collection string, fields map[string]any) (string, error)
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Get(ctx context.Context, collection, id string) (*database.Document, error)
}

// Broadcaster propagates local writes to other instances
type Broadcaster interface {
	Publish(ctx context.Context, collection string) error
}

// Observer receives store events; implemented by the metrics package
type Observer interface {
	SubscriptionOpened(collection string)
	SubscriptionClosed(collection string)
	SnapshotDelivered(collection string, size int)
	SubscriptionFailed(collection string)
	WriteCompleted(collection, op string, err error)
}

type nopObserver struct{}

func (nopObserver) SubscriptionOpened(string)            {}
func (nopObserver) SubscriptionClosed(string)            {}
func (nopObserver) SnapshotDelivered(string, int)        {}
func (nopObserver) SubscriptionFailed(string)            {}
func (nopObserver) WriteCompleted(string, string, error) {}
