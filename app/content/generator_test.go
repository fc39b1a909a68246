package content

import (
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
)

func sampleChannel() Channel {
	return Channel{
		Title:   "Sanskrithi",
		Link:    "https://sanskrithi.example.org/",
		Version: "test",
	}
}

func TestGenerateRSS(t *testing.T) {
	generator := NewGenerator()

	published := time.Date(2024, 10, 24, 0, 0, 0, 0, time.UTC)
	records := []Record{
		{
			ID:          "b1",
			Title:       "The Importance of Sanskrit",
			Content:     "<p>Ancient wisdom and modern learning</p>",
			Excerpt:     "Ancient wisdom and modern learning...",
			ImageURL:    "https://images.example.org/cover.jpg",
			PublishedAt: published,
			Fields:      map[string]any{"author": "Alden Fletcher"},
		},
		{
			ID:      "b2",
			Title:   "Untimed post",
			Excerpt: ExcerptPlaceholder,
		},
	}

	rss, err := generator.Run(sampleChannel(), records)
	if err != nil {
		t.Fatalf("Failed to generate RSS: %v", err)
	}

	if !strings.HasPrefix(rss, `<?xml version="1.0" encoding="UTF-8"?>`) {
		t.Error("Expected XML declaration")
	}
	if !strings.Contains(rss, `<atom:link href="https://sanskrithi.example.org/blog/rss.xml"`) {
		t.Error("Expected self link to the blog feed")
	}
	if !strings.Contains(rss, "<lastBuildDate>Thu, 24 Oct 2024 00:00:00 +0000</lastBuildDate>") {
		t.Error("Expected lastBuildDate from the newest record")
	}
	if !strings.Contains(rss, "<generator>Sanskrithi/test</generator>") {
		t.Error("Expected generator element")
	}

	feed, err := gofeed.NewParser().ParseString(rss)
	if err != nil {
		t.Fatalf("Generated RSS does not parse: %v", err)
	}

	if feed.Title != "Sanskrithi" {
		t.Errorf("Expected title 'Sanskrithi', got '%s'", feed.Title)
	}
	if len(feed.Items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(feed.Items))
	}

	first := feed.Items[0]
	if first.Link != "https://sanskrithi.example.org/blog/b1" {
		t.Errorf("Expected item link to the blog detail page, got '%s'", first.Link)
	}
	if first.Description != "Ancient wisdom and modern learning..." {
		t.Errorf("Expected excerpt as description, got '%s'", first.Description)
	}
	if first.Content != "<p>Ancient wisdom and modern learning</p>" {
		t.Errorf("Expected content to round-trip, got '%s'", first.Content)
	}
	if first.PublishedParsed == nil || !first.PublishedParsed.Equal(published) {
		t.Errorf("Expected pubDate %v, got %v", published, first.PublishedParsed)
	}
	if len(first.Enclosures) != 1 || first.Enclosures[0].URL != "https://images.example.org/cover.jpg" {
		t.Errorf("Expected cover image enclosure, got %v", first.Enclosures)
	}

	if feed.Items[1].PublishedParsed != nil {
		t.Error("Expected no pubDate for a record without a timestamp")
	}
}

func TestGenerateRSSEmpty(t *testing.T) {
	rss, err := NewGenerator().Run(sampleChannel(), nil)
	if err != nil {
		t.Fatalf("Failed to generate RSS: %v", err)
	}

	if strings.Contains(rss, "<item>") {
		t.Error("Expected no items")
	}
	if !strings.Contains(rss, "<description>Latest posts from Sanskrithi</description>") {
		t.Error("Expected default description")
	}
}
