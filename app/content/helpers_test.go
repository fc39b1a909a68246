package content

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/sanskrithi-site/app/database"
	"github.com/lysyi3m/sanskrithi-site/app/store"
)

func newTestRepo(t *testing.T) database.DocumentRepository {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "content.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, _, err = database.RunMigrations(db)
	require.NoError(t, err)

	return database.NewDocumentRepository(db)
}

func newTestStore(t *testing.T, repo database.DocumentRepository) *store.Store {
	t.Helper()
	return store.New(repo, store.NewHub(), CollectionNames())
}

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()

	cache := NewConfigCache("")
	require.NoError(t, cache.Run())
	return NewNormalizer(cache)
}

func doc(collection string, id string, data map[string]any) database.Document {
	return database.Document{ID: id, Collection: collection, Data: data}
}

// controlledRepo wraps a repository so tests can hold or fail queries
type controlledRepo struct {
	database.DocumentRepository

	mu   sync.Mutex
	gate chan struct{}
	err  error
}

func (r *controlledRepo) hold() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gate = make(chan struct{})
}

func (r *controlledRepo) release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gate != nil {
		close(r.gate)
		r.gate = nil
	}
}

func (r *controlledRepo) fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

func (r *controlledRepo) Query(ctx context.Context, params database.QueryParams) ([]database.Document, error) {
	r.mu.Lock()
	gate, err := r.gate, r.err
	r.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return r.DocumentRepository.Query(ctx, params)
}
