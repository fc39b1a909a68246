package content

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/sanskrithi-site/app/database"
)

type fakeWriter struct {
	created map[string]any
	updated map[string]any
	deleted string
	err     error
}

func (w *fakeWriter) Create(_ context.Context, _ string, fields map[string]any) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	w.created = fields
	return "new-id", nil
}

func (w *fakeWriter) Update(_ context.Context, _ string, _ string, fields map[string]any) error {
	if w.err != nil {
		return w.err
	}
	w.updated = fields
	return nil
}

func (w *fakeWriter) Delete(_ context.Context, _ string, id string) error {
	if w.err != nil {
		return w.err
	}
	w.deleted = id
	return nil
}

func (w *fakeWriter) Get(context.Context, string, string) (*database.Document, error) {
	return nil, database.ErrNotFound
}

var fixedNow = time.Date(2025, 5, 17, 9, 30, 0, 0, time.UTC)

func newTestEditor(w *fakeWriter, c Collection) *Editor {
	cfg := DefaultConfig(c)
	e := NewEditor(w, &cfg, NewSanitizer())
	e.now = func() time.Time { return fixedNow }
	return e
}

func TestEditor_CreateAppliesDefaultsAndTimestamps(t *testing.T) {
	w := &fakeWriter{}
	e := newTestEditor(w, Courses)

	id, err := e.Save(context.Background(), "", map[string]any{"title": "Intro to Sanskrit", "price": "Free"})
	require.NoError(t, err)

	assert.Equal(t, "new-id", id)
	assert.Equal(t, "Sanskrit", w.created["category"])
	assert.Equal(t, "Beginner", w.created["level"])
	assert.Equal(t, 0, w.created["students"])
	assert.Equal(t, "Free", w.created["price"])
	assert.Equal(t, "2025-05-17T09:30:00.000000000Z", w.created[CreatedField])
	assert.Equal(t, "2025-05-17T09:30:00.000000000Z", w.created[OrderingField])
}

func TestEditor_CreateDerivesOrderingFromDate(t *testing.T) {
	w := &fakeWriter{}

	_, err := newTestEditor(w, Blogs).Save(context.Background(), "", map[string]any{"title": "Post", "date": "October 24, 2024"})
	require.NoError(t, err)
	assert.Equal(t, "2024-10-24T00:00:00.000000000Z", w.created[OrderingField])

	_, err = newTestEditor(w, Articles).Save(context.Background(), "", map[string]any{"title": "Paper", "year": "2019"})
	require.NoError(t, err)
	assert.Equal(t, "2019-01-01T00:00:00.000000000Z", w.created[OrderingField])
	assert.Equal(t, "Journal", w.created["type"])
	assert.Equal(t, "Main", w.created["category"])
	assert.Equal(t, false, w.created["highlight"])
}

func TestEditor_UpdateByID(t *testing.T) {
	w := &fakeWriter{}
	e := newTestEditor(w, Courses)

	id, err := e.Save(context.Background(), "c1", map[string]any{"level": "advanced", "id": "ignored"})
	require.NoError(t, err)

	assert.Equal(t, "c1", id)
	assert.Nil(t, w.created)
	assert.Equal(t, map[string]any{"level": "Advanced"}, w.updated)
}

func TestEditor_TitleRequired(t *testing.T) {
	w := &fakeWriter{}
	e := newTestEditor(w, Blogs)

	_, err := e.Save(context.Background(), "", map[string]any{"content": "no title"})
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = e.Save(context.Background(), "b1", map[string]any{"title": "   "})
	assert.ErrorIs(t, err, ErrTitleRequired)

	_, err = e.Save(context.Background(), "b1", map[string]any{"content": "partial update"})
	assert.NoError(t, err)
}

func TestEditor_SanitizesRichText(t *testing.T) {
	w := &fakeWriter{}
	e := newTestEditor(w, Blogs)

	_, err := e.Save(context.Background(), "", map[string]any{
		"title":   "<script>kept verbatim</script>",
		"content": `<p style="text-align: center">Hi<script>alert(1)</script> <a href="javascript:x()" onclick="y()">link</a></p>`,
	})
	require.NoError(t, err)

	content := w.created["content"].(string)
	assert.NotContains(t, content, "<script>")
	assert.NotContains(t, content, "onclick")
	assert.NotContains(t, content, "javascript:")
	assert.Contains(t, content, "Hi")
	assert.Contains(t, content, "text-align")
	assert.Equal(t, "<script>kept verbatim</script>", w.created["title"])
}

func TestEditor_DropsDerivedFields(t *testing.T) {
	w := &fakeWriter{}
	e := newTestEditor(w, Blogs)

	_, err := e.Save(context.Background(), "", map[string]any{
		"title":   "Post",
		"image":   FallbackImageURL,
		"excerpt": "stale",
		"icon":    "book-open",
	})
	require.NoError(t, err)

	for _, key := range DerivedFields {
		assert.NotContains(t, w.created, key)
	}
	assert.NotContains(t, w.created, "imageUrl")
}

func TestEditor_KeepsUnknownTagValues(t *testing.T) {
	w := &fakeWriter{}
	e := newTestEditor(w, Courses)

	_, err := e.Save(context.Background(), "", map[string]any{"title": "x", "category": "Astrology"})
	require.NoError(t, err)
	assert.Equal(t, "Astrology", w.created["category"])
}

func TestEditor_DeleteRequiresConfirmation(t *testing.T) {
	w := &fakeWriter{}
	e := newTestEditor(w, Articles)

	assert.ErrorIs(t, e.Delete(context.Background(), "a1", false), ErrDeleteNotConfirmed)
	assert.Empty(t, w.deleted)

	require.NoError(t, e.Delete(context.Background(), "a1", true))
	assert.Equal(t, "a1", w.deleted)
}

func TestEditor_WriteFailureIsReturned(t *testing.T) {
	w := &fakeWriter{err: errors.New("quota exceeded")}
	e := newTestEditor(w, ResearchPapers)

	fields := map[string]any{"title": "Poster", "type": "poster"}
	_, err := e.Save(context.Background(), "", fields)
	assert.EqualError(t, err, "quota exceeded")

	assert.Equal(t, map[string]any{"title": "Poster", "type": "poster"}, fields)
	assert.Error(t, e.Delete(context.Background(), "r1", true))
}

func TestEditor_SavedDocumentReachesListing(t *testing.T) {
	s := newTestStore(t, newTestRepo(t))
	cfg := DefaultConfig(Blogs)
	e := NewEditor(s, &cfg, NewSanitizer())

	l := openListing(t, s, Blogs)
	require.Eventually(t, loaded(l), waitFor, tick)

	id, err := e.Save(context.Background(), "", map[string]any{"title": "Read your writes", "content": "<p>Hello</p>"})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		items := l.View().Items
		return len(items) == 1 && items[0].ID == id && items[0].Excerpt == "Hello..."
	}, waitFor, tick)

	require.NoError(t, e.Delete(context.Background(), id, true))
	require.Eventually(t, func() bool { return l.View().Total == 0 }, waitFor, tick)
}

func TestEditor_SubSecondTimestampsSortInTimeOrder(t *testing.T) {
	s := newTestStore(t, newTestRepo(t))
	cfg := DefaultConfig(Blogs)
	e := NewEditor(s, &cfg, NewSanitizer())
	ctx := context.Background()

	for title, publishedAt := range map[string]string{
		"older":  "2025-01-01T12:00:00Z",
		"newer":  "2025-01-01T12:00:00.5Z",
		"newest": "2025-01-01T12:00:00.52Z",
	} {
		_, err := e.Save(ctx, "", map[string]any{"title": title, OrderingField: publishedAt})
		require.NoError(t, err)
	}

	docs, err := s.List(ctx, cfg.Query(0))
	require.NoError(t, err)

	titles := make([]any, 0, len(docs))
	for _, d := range docs {
		titles = append(titles, d.Data["title"])
	}
	assert.Equal(t, []any{"newest", "newer", "older"}, titles)
	assert.Equal(t, "2025-01-01T12:00:00.520000000Z", docs[0].Data[OrderingField])
}

func TestIsCanonicalTimestamp(t *testing.T) {
	assert.True(t, IsCanonicalTimestamp("2025-01-01T12:00:00.500000000Z"))
	assert.False(t, IsCanonicalTimestamp("2025-01-01T12:00:00.5Z"))
	assert.False(t, IsCanonicalTimestamp("2025-01-01T12:00:00Z"))
	assert.False(t, IsCanonicalTimestamp("October 24, 2024"))
	assert.False(t, IsCanonicalTimestamp(nil))
}

func TestParseOrderingTime(t *testing.T) {
	cases := map[string]any{
		"2021-01-01T00:00:00.000000000Z": "2021",
		"2024-10-24T00:00:00.000000000Z": "October 24, 2024",
		"2023-06-15T00:00:00.000000000Z": "2023-06-15",
		"2020-01-01T00:00:00.000000000Z": float64(2020),
		"2022-05-05T00:00:00.520000000Z": "2022-05-05T00:00:00.52Z",
	}
	for want, in := range cases {
		got, err := ParseOrderingTime(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, FormatTimestamp(got), in)
	}

	_, err := ParseOrderingTime("")
	assert.Error(t, err)
	_, err = ParseOrderingTime(true)
	assert.Error(t, err)
}
