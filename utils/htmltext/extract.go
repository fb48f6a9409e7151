// ABOUTME: Converts HTML email bodies into plain text for the cleaner
// ABOUTME: Strips non-content elements and joins text blocks with newlines
package htmltext

import (
	stdhtml "html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// Extract converts raw HTML into plain text. Script, style, head and meta
// elements are removed entirely; the visible text is joined with newlines so
// downstream line-based heuristics see one block per line.
func Extract(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	// Short-circuit if the payload is already plain text.
	if !strings.Contains(trimmed, "<") {
		return trimmed
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(trimmed))
	if err != nil {
		return fallbackStrip(trimmed)
	}

	doc.Find("script, style, head, meta, noscript, title").Remove()

	var b strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				if b.Len() > 0 {
					b.WriteByte('\n')
				}
				b.WriteString(text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, node := range doc.Selection.Nodes {
		walk(node)
	}

	// Markup the walk found no text in still goes through a plain strip, so
	// oddly structured emails degrade to something rather than nothing.
	if b.Len() == 0 {
		return fallbackStrip(trimmed)
	}

	return b.String()
}

// fallbackStrip sanitizes every tag away and unescapes what remains.
func fallbackStrip(raw string) string {
	text := bluemonday.StrictPolicy().Sanitize(raw)
	return strings.TrimSpace(stdhtml.UnescapeString(text))
}
