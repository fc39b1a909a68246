package content

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/lysyi3m/sanskrithi-site/app/store"
)

var (
	ErrTitleRequired      = errors.New("title is required")
	ErrDeleteNotConfirmed = errors.New("delete must be confirmed")
)

// Editor is the admin write path for one collection
type Editor struct {
	writer    store.Writer
	config    *Config
	sanitizer *Sanitizer
	now       func() time.Time
}

func NewEditor(writer store.Writer, config *Config, sanitizer *Sanitizer) *Editor {
	return &Editor{
		writer:    writer,
		config:    config,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// Save updates the document with the given id, or creates a new one when id is
// empty. It returns the id of the saved document.
func (e *Editor) Save(ctx context.Context, id string, fields map[string]any) (string, error) {
	prepared, err := e.prepare(id == "", fields)
	if err != nil {
		return "", err
	}

	collection := string(e.config.Name)

	if id != "" {
		if err := e.writer.Update(ctx, collection, id, prepared); err != nil {
			slog.Error("Failed to update document", "collection", collection, "id", id, "error", err)
			return "", err
		}
		slog.Info("Document updated", "collection", collection, "id", id)
		return id, nil
	}

	newID, err := e.writer.Create(ctx, collection, prepared)
	if err != nil {
		slog.Error("Failed to create document", "collection", collection, "error", err)
		return "", err
	}
	slog.Info("Document created", "collection", collection, "id", newID)
	return newID, nil
}

// Delete removes a document; confirmed must be true
func (e *Editor) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrDeleteNotConfirmed
	}

	collection := string(e.config.Name)
	if err := e.writer.Delete(ctx, collection, id); err != nil {
		slog.Error("Failed to delete document", "collection", collection, "id", id, "error", err)
		return err
	}
	slog.Info("Document deleted", "collection", collection, "id", id)
	return nil
}

func (e *Editor) prepare(create bool, fields map[string]any) (map[string]any, error) {
	prepared := maps.Clone(fields)
	if prepared == nil {
		prepared = make(map[string]any)
	}

	delete(prepared, "id")
	delete(prepared, CreatedField)
	for _, key := range DerivedFields {
		delete(prepared, key)
	}

	title, hasTitle := prepared["title"]
	if create || hasTitle {
		s, _ := title.(string)
		if strings.TrimSpace(s) == "" {
			return nil, ErrTitleRequired
		}
	}

	for _, field := range e.config.Settings.RichTextFields {
		if html, ok := prepared[field].(string); ok {
			prepared[field] = e.sanitizer.Sanitize(html)
		}
	}

	canonicalize(prepared, "category", e.config.Options.Categories)
	canonicalize(prepared, "level", e.config.Options.Levels)
	canonicalize(prepared, "type", e.config.Options.Types)

	now := e.now().UTC()

	if create {
		for key, value := range e.config.Defaults {
			if _, ok := prepared[key]; !ok {
				prepared[key] = value
			}
		}
	}

	if t, ok := DeriveOrderingTime(prepared); ok {
		prepared[OrderingField] = FormatTimestamp(t)
	} else if t, err := ParseOrderingTime(prepared[OrderingField]); err == nil {
		prepared[OrderingField] = FormatTimestamp(t)
	} else if create {
		prepared[OrderingField] = FormatTimestamp(now)
	} else {
		delete(prepared, OrderingField)
	}

	if create {
		prepared[CreatedField] = FormatTimestamp(now)
	}

	return prepared, nil
}

// canonicalize rewrites a tag value to its configured option when they differ
// only by case or surrounding space
func canonicalize(fields map[string]any, key string, options []string) {
	value, ok := fields[key].(string)
	if !ok {
		return
	}
	if option, ok := CanonicalOption(value, options); ok {
		fields[key] = option
	}
}

func CanonicalOption(value string, options []string) (string, bool) {
	trimmed := strings.TrimSpace(value)
	for _, option := range options {
		if strings.EqualFold(trimmed, option) {
			return option, true
		}
	}
	return "", false
}
