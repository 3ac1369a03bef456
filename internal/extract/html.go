package extract

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// nonContentTags are removed before text is collected.
const nonContentTags = "script, style, nav, header, footer, aside, noscript"

// contentSelectors are tried in order; the first match is the content container.
var contentSelectors = []string{"main", "article", "[role=main]", ".content", "#content", "body"}

// page is the text and title pulled from an HTML document.
type page struct {
	Title string
	Text  string
}

// parsePage reads an HTML document and returns its title and main text.
func parsePage(r io.Reader, pageURL string) (page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return page{}, fmt.Errorf("parse HTML: %w", err)
	}
	// Title first: the h1 fallback may live inside a header that is stripped below.
	title := pageTitle(doc, pageURL)
	return page{Title: title, Text: mainText(doc)}, nil
}

// pageTitle returns og:title, then <title>, then the first <h1>, then the host.
func pageTitle(doc *goquery.Document, pageURL string) string {
	if v, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	if v := strings.TrimSpace(doc.Find("title").First().Text()); v != "" {
		return v
	}
	if v := collapseWhitespace(doc.Find("h1").First().Text()); v != "" {
		return v
	}
	return hostname(pageURL)
}

// mainText strips non-content tags and returns the whitespace-collapsed text
// of the highest priority content container.
func mainText(doc *goquery.Document) string {
	doc.Find(nonContentTags).Remove()
	for _, sel := range contentSelectors {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			return nodeText(s)
		}
	}
	return nodeText(doc.Selection)
}

// nodeText joins all descendant text nodes with spaces.
func nodeText(sel *goquery.Selection) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return collapseWhitespace(sb.String())
}
