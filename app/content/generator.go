package content

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"strings"
	"time"
)

// Channel describes the feed being generated
type Channel struct {
	Title       string
	Link        string // public site URL
	Description string
	Version     string
}

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Run renders blog records as an RSS 2.0 document
func (g *Generator) Run(channel Channel, records []Record) (string, error) {
	var buf bytes.Buffer

	link := strings.TrimRight(channel.Link, "/")

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", channel.Title, 4)
	g.writeElement(&buf, "link", link+"/blog", 4)
	g.writeElement(&buf, "description", cmp.Or(channel.Description, fmt.Sprintf("Latest posts from %s", channel.Title)), 4)

	buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
		html.EscapeString(link+"/blog/rss.xml")))

	lastBuildDate := time.Now().In(time.Local)
	if len(records) > 0 && !records[0].PublishedAt.IsZero() {
		lastBuildDate = records[0].PublishedAt
	}

	g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	g.writeElement(&buf, "generator", fmt.Sprintf("Sanskrithi/%s", cmp.Or(channel.Version, "dev")), 4)

	for _, record := range records {
		g.writeItem(&buf, link, record)
	}

	buf.WriteString("  </channel>\n</rss>")

	return buf.String(), nil
}

func (g *Generator) writeItem(buf *bytes.Buffer, link string, record Record) {
	buf.WriteString("    <item>\n")

	itemLink := fmt.Sprintf("%s/blog/%s", link, record.ID)

	buf.WriteString("      <guid isPermaLink=\"true\">")
	xml.EscapeText(buf, []byte(itemLink))
	buf.WriteString("</guid>\n")

	if record.Title != "" {
		g.writeElement(buf, "title", record.Title, 6)
	}
	g.writeElement(buf, "link", itemLink, 6)
	g.writeElement(buf, "description", cmp.Or(record.Excerpt, ExcerptPlaceholder), 6)

	if record.Content != "" {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(strings.ReplaceAll(record.Content, "]]>", "]]]]><![CDATA[>"))
		buf.WriteString("]]></content:encoded>\n")
	}

	if !record.PublishedAt.IsZero() {
		g.writeElement(buf, "pubDate", record.PublishedAt.Format(time.RFC1123Z), 6)
	}

	if author := stringField(record.Fields, "author"); author != "" {
		g.writeElement(buf, "author", author, 6)
	}

	if record.Category != "" {
		g.writeElement(buf, "category", record.Category, 6)
	}

	if record.ImageURL != "" && strings.HasPrefix(record.ImageURL, "http") {
		buf.WriteString(fmt.Sprintf("      <enclosure url=\"%s\" length=\"0\" type=\"image/jpeg\" />\n",
			html.EscapeString(record.ImageURL)))
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	for i := 0; i < indent; i++ {
		buf.WriteByte(' ')
	}

	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}
