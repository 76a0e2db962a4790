package native

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Thresholds for the content signal. Pages below both are likely shells
// (SPA roots, consent walls, redirect stubs) where the markdown carries
// little of the page's real content.
const (
	signalTextThreshold = 600
	signalMinParagraphs = 3
)

// signalFor grades extraction confidence as "high" or "low". For HTML the
// grade comes from the rendered text mass and paragraph structure of the
// original document; for non-HTML content the markdown length stands in.
func signalFor(body, markdown, contentType string) string {
	if !isHTML(contentType, body) {
		if len(strings.TrimSpace(markdown)) >= signalTextThreshold {
			return "high"
		}
		return "low"
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "low"
	}
	doc.Find("script, style, noscript").Remove()

	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	paragraphs := doc.Find("p").Length()

	if len(text) >= signalTextThreshold || paragraphs >= signalMinParagraphs {
		return "high"
	}
	return "low"
}
