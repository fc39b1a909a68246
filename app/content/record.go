package content

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"

	"github.com/lysyi3m/sanskrithi-site/app/database"
)

// ArticleType is the closed set of article publication types
type ArticleType int

const (
	ArticleTypeOther ArticleType = iota
	ArticleTypeJournal
	ArticleTypeBookChapter
	ArticleTypeArticle
	ArticleTypeInternational
	ArticleTypeConference
)

var articleTypeNames = map[ArticleType]string{
	ArticleTypeJournal:       "Journal",
	ArticleTypeBookChapter:   "Book Chapter",
	ArticleTypeArticle:       "Article",
	ArticleTypeInternational: "International",
	ArticleTypeConference:    "Conference",
}

func ParseArticleType(s string) ArticleType {
	for t, name := range articleTypeNames {
		if name == s {
			return t
		}
	}
	return ArticleTypeOther
}

func (t ArticleType) String() string {
	if name, ok := articleTypeNames[t]; ok {
		return name
	}
	return "Other"
}

type Icon string

const (
	IconBookOpen  Icon = "book-open"
	IconLibrary   Icon = "library"
	IconNewspaper Icon = "newspaper"
	IconFileText  Icon = "file-text"
	IconBookmark  Icon = "bookmark"
)

func (t ArticleType) Icon() Icon {
	switch t {
	case ArticleTypeBookChapter:
		return IconBookOpen
	case ArticleTypeInternational:
		return IconLibrary
	case ArticleTypeArticle:
		return IconNewspaper
	case ArticleTypeJournal, ArticleTypeConference, ArticleTypeOther:
		return IconFileText
	default:
		return IconFileText
	}
}

// Record is a normalized display record. Fields keeps every stored field verbatim;
// the typed fields are defaulted views over it plus derived display values.
type Record struct {
	ID          string
	Collection  Collection
	Title       string
	Description string
	Content     string
	Category    string
	Level       string
	Type        string
	ArticleType ArticleType
	ImageURL    string
	Image       string
	Excerpt     string
	Icon        Icon
	Highlight   bool
	PublishedAt time.Time
	Fields      map[string]any
}

// Derived keys added to a record on top of its stored fields
const (
	fieldImage   = "image"
	fieldExcerpt = "excerpt"
	fieldIcon    = "icon"
)

// DerivedFields are never written back to the store
var DerivedFields = []string{fieldImage, fieldExcerpt, fieldIcon}

// Data returns the stored fields merged with derived display fields
func (r Record) Data() map[string]any {
	data := maps.Clone(r.Fields)
	if data == nil {
		data = make(map[string]any)
	}

	data[fieldImage] = r.Image
	if r.Excerpt != "" {
		data[fieldExcerpt] = r.Excerpt
	}
	if r.Icon != "" {
		data[fieldIcon] = string(r.Icon)
	}
	if _, ok := data["highlight"]; !ok {
		data["highlight"] = r.Highlight
	}

	return data
}

// Document turns a normalized record back into a document; normalizing it again
// yields the same record.
func (r Record) Document() database.Document {
	return database.Document{
		ID:         r.ID,
		Collection: string(r.Collection),
		Data:       r.Data(),
	}
}

func (r Record) MarshalJSON() ([]byte, error) {
	data := r.Data()
	data["id"] = r.ID
	return json.Marshal(data)
}

func stringField(data map[string]any, key string) string {
	switch v := data[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func boolField(data map[string]any, key string) bool {
	switch v := data[key].(type) {
	case bool:
		return v
	case string:
		return v == "true"
	default:
		return false
	}
}

func timeField(data map[string]any, key string) time.Time {
	s, ok := data[key].(string)
	if !ok {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
