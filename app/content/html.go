package content

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
)

// PlainText returns the text content of an HTML fragment
func PlainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}

// Sanitizer cleans rich text produced by the admin editor before it is stored
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	policy := bluemonday.UGCPolicy()
	policy.AllowDataURIImages()
	policy.AllowStyles("text-align").
		Matching(regexp.MustCompile(`^(left|right|center|justify)$`)).
		OnElements("p", "div", "span", "h1", "h2", "h3", "h4", "li")
	policy.AllowAttrs("align").
		Matching(regexp.MustCompile(`^(left|right|center|justify)$`)).
		OnElements("p", "div")
	policy.AllowElements("u")

	return &Sanitizer{policy: policy}
}

func (s *Sanitizer) Sanitize(html string) string {
	return s.policy.Sanitize(html)
}
