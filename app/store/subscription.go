package store

import (
	"context"
	"sync"

	"github.com/lysyi3m/sanskrithi-site/app/database"
)

// Subscription is one standing query. Every wake re-reads the full result set and
// hands it to the snapshot callback from a single goroutine, so callbacks never
// overlap and never observe an older version after a newer one.
type Subscription struct {
	query      Query
	store      *Store
	onSnapshot SnapshotFunc
	onError    ErrorFunc

	notify chan struct{}
	done   chan struct{}
	once   sync.Once

	deliverMu   sync.Mutex
	closed      bool
	delivered   bool
	lastVersion uint64
}

func newSubscription(s *Store, q Query, onSnapshot SnapshotFunc, onError ErrorFunc) *Subscription {
	return &Subscription{
		query:      q,
		store:      s,
		onSnapshot: onSnapshot,
		onError:    onError,
		notify:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

func (s *Subscription) Query() Query {
	return s.query
}

// Unsubscribe releases the subscription. It is idempotent; once it returns no
// further callbacks run. It must not be called from inside a callback.
func (s *Subscription) Unsubscribe() {
	s.release()
}

// Done is closed when the subscription has been released
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) release() {
	s.once.Do(func() {
		s.deliverMu.Lock()
		s.closed = true
		s.deliverMu.Unlock()

		close(s.done)
		s.store.hub.remove(s)
		s.store.observer.SubscriptionClosed(s.query.Collection)
	})
}

// wake schedules a refresh; pending wakes coalesce into one
func (s *Subscription) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

func (s *Subscription) run(ctx context.Context) {
	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			s.release()
			return
		case <-s.notify:
		}

		s.refresh(ctx)
	}
}

func (s *Subscription) refresh(ctx context.Context) {
	version := s.store.hub.Version(s.query.Collection)

	docs, err := s.store.repo.Query(ctx, database.QueryParams{
		Collection: s.query.Collection,
		OrderBy:    s.query.OrderBy,
		Descending: s.query.Descending,
		Limit:      s.query.Limit,
	})
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.store.observer.SubscriptionFailed(s.query.Collection)
		s.deliverError(err)
		return
	}

	s.deliver(Snapshot{Query: s.query, Version: version, Documents: docs})
}

func (s *Subscription) deliver(snap Snapshot) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	if s.closed {
		return
	}
	if s.delivered && snap.Version < s.lastVersion {
		return
	}
	s.delivered = true
	s.lastVersion = snap.Version

	s.store.observer.SnapshotDelivered(s.query.Collection, len(snap.Documents))
	s.onSnapshot(snap)
}

func (s *Subscription) deliverError(err error) {
	if s.onError == nil {
		return
	}

	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	if s.closed {
		return
	}
	s.onError(err)
}
