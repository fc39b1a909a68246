package content

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Filter is the search and tag selection of a listing. Category and level are
// exact matches; the search term matches title or plain-text description as a
// case-insensitive substring.
type Filter struct {
	Search   string `json:"search"`
	Category string `json:"category"`
	Level    string `json:"level"`
}

// ClearedFilter matches every record
func ClearedFilter() Filter {
	return Filter{Category: All, Level: All}
}

func (f Filter) IsCleared() bool {
	return f.Search == "" && isWildcard(f.Category) && isWildcard(f.Level)
}

func (f Filter) Matches(r Record) bool {
	if f.Search != "" && !f.matchesSearch(r) {
		return false
	}
	if !isWildcard(f.Category) && r.Category != f.Category {
		return false
	}
	if !isWildcard(f.Level) && r.Level != f.Level {
		return false
	}
	return true
}

// Apply returns the matching records in their original order
func (f Filter) Apply(records []Record) []Record {
	filtered := make([]Record, 0, len(records))
	if f.IsCleared() {
		return append(filtered, records...)
	}

	term := fold(f.Search)
	for _, r := range records {
		if f.matchesWith(r, term) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func (f Filter) matchesSearch(r Record) bool {
	return containsFolded(r, fold(f.Search))
}

func (f Filter) matchesWith(r Record, term string) bool {
	if term != "" && !containsFolded(r, term) {
		return false
	}
	return Filter{Category: f.Category, Level: f.Level}.Matches(r)
}

func containsFolded(r Record, term string) bool {
	if strings.Contains(fold(r.Title), term) {
		return true
	}
	return strings.Contains(fold(PlainText(r.Description)), term)
}

func isWildcard(v string) bool {
	return v == "" || v == All
}

// fold lowercases text for caseless comparison
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}
