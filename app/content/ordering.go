package content

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"

	"github.com/lysyi3m/sanskrithi-site/app/database"
)

var bareYear = regexp.MustCompile(`^\d{4}$`)

// OrderingSources are the legacy recency fields, in order of preference
var OrderingSources = []string{"date", "year", CreatedField}

// ParseOrderingTime reads a free-text date, a bare year or a timestamp
func ParseOrderingTime(value any) (time.Time, error) {
	var s string
	switch v := value.(type) {
	case string:
		s = strings.TrimSpace(v)
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		s = strconv.Itoa(v)
	case time.Time:
		return v.UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported date value %T", value)
	}

	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if bareYear.MatchString(s) {
		year, _ := strconv.Atoi(s)
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), nil
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}

	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", s, err)
	}
	return t.UTC(), nil
}

// DeriveOrderingTime finds the first parseable legacy recency field
func DeriveOrderingTime(fields map[string]any) (time.Time, bool) {
	for _, key := range OrderingSources {
		value, ok := fields[key]
		if !ok {
			continue
		}
		if t, err := ParseOrderingTime(value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatTimestamp renders t in the stored ordering form
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(database.TimestampLayout)
}

// IsCanonicalTimestamp reports whether v is already in the stored ordering form
func IsCanonicalTimestamp(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	t, err := time.Parse(database.TimestampLayout, s)
	return err == nil && FormatTimestamp(t) == s
}
