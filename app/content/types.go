// Package content holds the per-collection display model: collection settings,
// record normalization, listing filters, the admin editor and the blog feed.
package content

import (
	"fmt"
	"slices"

	"github.com/lysyi3m/sanskrithi-site/app/store"
)

type Collection string

const (
	Courses        Collection = "courses"
	Blogs          Collection = "blogs"
	ResearchPapers Collection = "researchPapers"
	Articles       Collection = "articles"
)

// Collections lists every collection the site serves
var Collections = []Collection{Courses, Blogs, ResearchPapers, Articles}

func ParseCollection(name string) (Collection, error) {
	c := Collection(name)
	if !slices.Contains(Collections, c) {
		return "", fmt.Errorf("%w: %s", store.ErrUnknownCollection, name)
	}
	return c, nil
}

// CollectionNames returns the collection names as plain strings
func CollectionNames() []string {
	names := make([]string, len(Collections))
	for i, c := range Collections {
		names[i] = string(c)
	}
	return names
}

const (
	FallbackImageURL   = "https://images.unsplash.com/photo-1524995997946-a1c2e315a42f?w=800&h=600&fit=crop"
	ExcerptPlaceholder = "Click to read more..."
	ExcerptEllipsis    = "..."
	ExcerptLength      = 100

	// OrderingField is the canonical recency timestamp every collection sorts by
	OrderingField = "publishedAt"
	CreatedField  = "createdAt"

	// All is the wildcard category/level filter value
	All = "All"
)

// Config is the per-collection configuration
type Config struct {
	Name     Collection     // Derived from filename (without .yml extension)
	Settings ConfigSettings `yaml:"settings"`
	Options  ConfigOptions  `yaml:"options"`
	Defaults map[string]any `yaml:"defaults"`
}

type ConfigSettings struct {
	OrderBy        string   `yaml:"order_by"`
	Ascending      bool     `yaml:"ascending"`
	PreviewLimit   int      `yaml:"preview_limit"`
	FallbackImage  string   `yaml:"fallback_image"`
	Excerpt        bool     `yaml:"excerpt"`
	ExcerptSource  string   `yaml:"excerpt_source"`
	ExcerptLength  int      `yaml:"excerpt_length"`
	Placeholder    string   `yaml:"excerpt_placeholder"`
	Icons          bool     `yaml:"icons"`
	RichTextFields []string `yaml:"rich_text_fields"`
}

// ConfigOptions are the fixed option lists the admin form offers
type ConfigOptions struct {
	Categories []string `yaml:"categories"`
	Levels     []string `yaml:"levels"`
	Types      []string `yaml:"types"`
}

// Query builds the store query for a listing of this collection
func (c *Config) Query(limit int) store.Query {
	return store.Query{
		Collection: string(c.Name),
		OrderBy:    c.Settings.OrderBy,
		Descending: !c.Settings.Ascending,
		Limit:      limit,
	}
}

// DefaultConfig returns the built-in settings for a collection
func DefaultConfig(c Collection) Config {
	cfg := Config{
		Name: c,
		Settings: ConfigSettings{
			OrderBy:       OrderingField,
			FallbackImage: FallbackImageURL,
			ExcerptSource: "content",
			ExcerptLength: ExcerptLength,
			Placeholder:   ExcerptPlaceholder,
		},
		Defaults: map[string]any{},
	}

	switch c {
	case Courses:
		cfg.Settings.RichTextFields = []string{"description"}
		cfg.Options.Categories = []string{"Sanskrit", "Vedic Studies", "Yoga", "Ayurveda", "Philosophy", "Meditation"}
		cfg.Options.Levels = []string{"Beginner", "Intermediate", "Advanced"}
		cfg.Defaults = map[string]any{
			"category": "Sanskrit",
			"level":    "Beginner",
			"students": 0,
			"rating":   0,
			"lessons":  0,
		}
	case Blogs:
		cfg.Settings.Excerpt = true
		cfg.Settings.PreviewLimit = 3
		cfg.Settings.RichTextFields = []string{"content"}
	case ResearchPapers:
		cfg.Settings.PreviewLimit = 3
		cfg.Options.Types = []string{"Paper", "Doctoral", "Presentation", "Poster", "Journal", "Book Chapter"}
		cfg.Defaults = map[string]any{
			"type":      "Paper",
			"highlight": false,
		}
	case Articles:
		cfg.Settings.Excerpt = true
		cfg.Settings.Icons = true
		cfg.Settings.RichTextFields = []string{"content"}
		cfg.Options.Categories = []string{"Main", "Ergo"}
		cfg.Options.Types = []string{"Journal", "Book Chapter", "Article", "International", "Conference"}
		cfg.Defaults = map[string]any{
			"type":      "Journal",
			"category":  "Main",
			"highlight": false,
		}
	}

	return cfg
}
