package content

import (
	"maps"
	"strings"
	"unicode/utf8"

	"github.com/lysyi3m/sanskrithi-site/app/database"
)

// Normalizer turns raw store documents into display records. It is pure: the
// result depends only on the document and the collection settings.
type Normalizer struct {
	configs *ConfigCache
}

func NewNormalizer(configs *ConfigCache) *Normalizer {
	return &Normalizer{configs: configs}
}

func (n *Normalizer) Normalize(doc database.Document) Record {
	config := n.configs.MustConfig(Collection(doc.Collection))
	return normalize(doc, config)
}

func (n *Normalizer) NormalizeAll(docs []database.Document) []Record {
	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		records = append(records, n.Normalize(doc))
	}
	return records
}

func normalize(doc database.Document, config *Config) Record {
	fields := maps.Clone(doc.Data)
	if fields == nil {
		fields = make(map[string]any)
	}
	for _, key := range DerivedFields {
		delete(fields, key)
	}
	delete(fields, "id")

	r := Record{
		ID:          doc.ID,
		Collection:  config.Name,
		Title:       stringField(fields, "title"),
		Description: stringField(fields, "description"),
		Content:     stringField(fields, "content"),
		Category:    stringField(fields, "category"),
		Level:       stringField(fields, "level"),
		Type:        stringField(fields, "type"),
		ImageURL:    stringField(fields, "imageUrl"),
		Highlight:   boolField(fields, "highlight"),
		PublishedAt: timeField(fields, OrderingField),
		Fields:      fields,
	}
	if r.PublishedAt.IsZero() {
		r.PublishedAt = timeField(fields, CreatedField)
	}

	r.Image = displayImage(r.ImageURL, stringField(doc.Data, fieldImage), config.Settings.FallbackImage)

	if config.Settings.Excerpt {
		source := stringField(fields, config.Settings.ExcerptSource)
		r.Excerpt = excerpt(source, stringField(doc.Data, fieldExcerpt), config.Settings.ExcerptLength, config.Settings.Placeholder)
	}

	if config.Settings.Icons {
		r.ArticleType = ParseArticleType(r.Type)
		r.Icon = iconFor(r.ArticleType, r.Category)
	}

	return r
}

// displayImage prefers the stored imageUrl, then an already derived image
func displayImage(imageURL, derived, fallback string) string {
	if imageURL != "" {
		return imageURL
	}
	if derived != "" {
		return derived
	}
	return fallback
}

// excerpt strips markup from content, keeps the first length characters and
// appends the ellipsis marker
func excerpt(content, derived string, length int, placeholder string) string {
	if content == "" {
		if derived != "" {
			return derived
		}
		return placeholder
	}

	return truncateRunes(PlainText(content), length) + ExcerptEllipsis
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}

	var b strings.Builder
	i := 0
	for _, r := range s {
		if i == n {
			break
		}
		b.WriteRune(r)
		i++
	}
	return b.String()
}

func iconFor(t ArticleType, category string) Icon {
	if category == "Ergo" {
		return IconBookmark
	}
	return t.Icon()
}
