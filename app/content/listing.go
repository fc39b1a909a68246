package content

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/lysyi3m/sanskrithi-site/app/store"
)

var ErrListingOpen = errors.New("listing already open")

type EmptyState string

const (
	EmptyNone      EmptyState = "none"
	EmptyNoItems   EmptyState = "no_items"
	EmptyNoMatches EmptyState = "no_matches"
)

// View is the filtered, render-ready state of a listing
type View struct {
	Collection Collection `json:"collection"`
	Items      []Record   `json:"items"`
	Total      int        `json:"total"`
	Matched    int        `json:"matched"`
	Loading    bool       `json:"loading"`
	EmptyState EmptyState `json:"empty_state"`
	Filter     Filter     `json:"filter"`
	Version    uint64     `json:"version"`
	Error      string     `json:"error,omitempty"`
}

// Listing keeps one live subscription to a collection and applies search and
// tag filters over its latest snapshot.
type Listing struct {
	subscriber store.Subscriber
	normalizer *Normalizer
	query      store.Query

	mu      sync.Mutex
	items   []Record
	loading bool
	filter  Filter
	version uint64
	lastErr error
	sub     *store.Subscription
	opened  bool
	closed  bool

	changes chan struct{}
}

func NewListing(subscriber store.Subscriber, normalizer *Normalizer, query store.Query) *Listing {
	return &Listing{
		subscriber: subscriber,
		normalizer: normalizer,
		query:      query,
		items:      []Record{},
		filter:     ClearedFilter(),
		changes:    make(chan struct{}, 1),
	}
}

// Open subscribes to the collection. The listing is loading until the first
// snapshot or error arrives.
func (l *Listing) Open(ctx context.Context) error {
	l.mu.Lock()
	if l.opened {
		l.mu.Unlock()
		return ErrListingOpen
	}
	l.opened = true
	l.loading = true
	l.mu.Unlock()

	sub, err := l.subscriber.Subscribe(ctx, l.query, l.onSnapshot, l.onError)
	if err != nil {
		l.onError(err)
		return err
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		sub.Unsubscribe()
		return nil
	}
	l.sub = sub
	l.mu.Unlock()

	return nil
}

// Close releases the subscription. Safe to call more than once.
func (l *Listing) Close() {
	l.mu.Lock()
	sub := l.sub
	l.sub = nil
	l.closed = true
	l.mu.Unlock()

	if sub != nil {
		sub.Unsubscribe()
	}
}

func (l *Listing) onSnapshot(snap store.Snapshot) {
	records := l.normalizer.NormalizeAll(snap.Documents)

	l.mu.Lock()
	l.items = records
	l.version = snap.Version
	l.loading = false
	l.lastErr = nil
	l.mu.Unlock()

	l.changed()
}

// onError keeps the last good items and stops the loading state
func (l *Listing) onError(err error) {
	slog.Error("Listing subscription error", "collection", l.query.Collection, "error", err)

	l.mu.Lock()
	l.loading = false
	l.lastErr = err
	l.mu.Unlock()

	l.changed()
}

func (l *Listing) SetSearchTerm(term string) {
	l.update(func(f *Filter) { f.Search = term })
}

func (l *Listing) SetCategory(category string) {
	l.update(func(f *Filter) { f.Category = category })
}

func (l *Listing) SetLevel(level string) {
	l.update(func(f *Filter) { f.Level = level })
}

func (l *Listing) SetFilter(filter Filter) {
	l.update(func(f *Filter) { *f = filter })
}

// ClearFilters resets search, category and level in one step
func (l *Listing) ClearFilters() {
	l.update(func(f *Filter) { *f = ClearedFilter() })
}

func (l *Listing) update(fn func(*Filter)) {
	l.mu.Lock()
	fn(&l.filter)
	l.mu.Unlock()

	l.changed()
}

// Changes signals after every snapshot, error or filter change. Signals coalesce.
func (l *Listing) Changes() <-chan struct{} {
	return l.changes
}

func (l *Listing) changed() {
	select {
	case l.changes <- struct{}{}:
	default:
	}
}

func (l *Listing) Items() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Record(nil), l.items...)
}

func (l *Listing) View() View {
	l.mu.Lock()
	defer l.mu.Unlock()

	filtered := l.filter.Apply(l.items)

	view := View{
		Collection: Collection(l.query.Collection),
		Items:      filtered,
		Total:      len(l.items),
		Matched:    len(filtered),
		Loading:    l.loading,
		Filter:     l.filter,
		Version:    l.version,
		EmptyState: emptyState(l.loading, len(l.items), len(filtered)),
	}
	if l.lastErr != nil {
		view.Error = l.lastErr.Error()
	}
	return view
}

func emptyState(loading bool, total, matched int) EmptyState {
	switch {
	case loading || matched > 0:
		return EmptyNone
	case total == 0:
		return EmptyNoItems
	default:
		return EmptyNoMatches
	}
}
