package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lysyi3m/sanskrithi-site/app/content"
	"github.com/lysyi3m/sanskrithi-site/app/database"
	"github.com/lysyi3m/sanskrithi-site/app/store"
)

// CanonicalizeTagsTask rewrites stored category, level and type values that
// differ from a configured option only by case or whitespace
type CanonicalizeTagsTask struct {
	Task
	config *content.Config
	repo   database.DocumentRepository
	writer store.Writer
}

func NewCanonicalizeTagsTask(config *content.Config, repo database.DocumentRepository, writer store.Writer) *CanonicalizeTagsTask {
	return &CanonicalizeTagsTask{
		Task:   NewTask(TaskTypeCanonicalizeTags, string(config.Name)),
		config: config,
		repo:   repo,
		writer: writer,
	}
}

func (t *CanonicalizeTagsTask) Execute(ctx context.Context) error {
	docs, err := t.repo.Query(ctx, database.QueryParams{Collection: t.Collection})
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}

	options := map[string][]string{
		"category": t.config.Options.Categories,
		"level":    t.config.Options.Levels,
		"type":     t.config.Options.Types,
	}

	updated := 0
	for _, doc := range docs {
		patch := make(map[string]any)
		for field, opts := range options {
			value, ok := doc.Data[field].(string)
			if !ok {
				continue
			}
			if option, ok := content.CanonicalOption(value, opts); ok && option != value {
				patch[field] = option
			}
		}
		if len(patch) == 0 {
			continue
		}

		if err := t.writer.Update(ctx, t.Collection, doc.ID, patch); err != nil {
			slog.Error("Task failed", "type", "CanonicalizeTags", "collection", t.Collection, "id", doc.ID, "error", err)
			return fmt.Errorf("failed to canonicalize %s: %w", doc.ID, err)
		}
		updated++
	}

	slog.Info("Task completed",
		"type", "CanonicalizeTags",
		"collection", t.Collection,
		"documents", len(docs),
		"updated", updated,
		"duration", t.GetDuration())

	return nil
}
