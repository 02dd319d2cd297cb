package chat

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
)

// StripMarkdown renders markdown to HTML and extracts the plain text.
// The synchronous chat endpoint returns unformatted answers; markup
// the model emits is dropped, not escaped.
func StripMarkdown(md string) string {
	var html bytes.Buffer
	if err := goldmark.Convert([]byte(md), &html); err != nil {
		return strings.TrimSpace(md)
	}

	doc, err := goquery.NewDocumentFromReader(&html)
	if err != nil {
		return strings.TrimSpace(md)
	}

	var parts []string
	doc.Find("body").Children().Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) == 0 {
		return strings.TrimSpace(doc.Text())
	}
	return strings.Join(parts, "\n")
}
