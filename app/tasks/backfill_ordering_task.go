package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/sanskrithi-site/app/content"
	"github.com/lysyi3m/sanskrithi-site/app/database"
	"github.com/lysyi3m/sanskrithi-site/app/store"
)

// BackfillOrderingTask gives legacy documents the canonical ordering timestamp and
// rewrites parseable values into the stored fixed-width form. Missing values are
// derived from the free-text date, bare year or creation time.
type BackfillOrderingTask struct {
	Task
	repo   database.DocumentRepository
	writer store.Writer
}

func NewBackfillOrderingTask(collection string, repo database.DocumentRepository, writer store.Writer) *BackfillOrderingTask {
	return &BackfillOrderingTask{
		Task:   NewTask(TaskTypeBackfillOrdering, collection),
		repo:   repo,
		writer: writer,
	}
}

func (t *BackfillOrderingTask) Execute(ctx context.Context) error {
	docs, err := t.repo.Query(ctx, database.QueryParams{Collection: t.Collection})
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}

	updated := 0
	for _, doc := range docs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		current := doc.Data[content.OrderingField]
		if content.IsCanonicalTimestamp(current) {
			continue
		}

		// Parseable values are rewritten in place so they sort as text
		publishedAt, err := content.ParseOrderingTime(current)
		if err != nil {
			var ok bool
			publishedAt, ok = content.DeriveOrderingTime(doc.Data)
			if !ok {
				publishedAt = doc.CreatedAt
			}
		}

		patch := map[string]any{content.OrderingField: content.FormatTimestamp(publishedAt)}
		if err := t.writer.Update(ctx, t.Collection, doc.ID, patch); err != nil {
			slog.Error("Task failed", "type", "BackfillOrdering", "collection", t.Collection, "id", doc.ID, "error", err)
			return fmt.Errorf("failed to backfill %s: %w", doc.ID, err)
		}
		updated++
	}

	slog.Info("Task completed",
		"type", "BackfillOrdering",
		"collection", t.Collection,
		"documents", len(docs),
		"updated", updated,
		"duration", t.GetDuration())

	return nil
}
