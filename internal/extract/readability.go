package extract

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// boilerplateSelectors are dropped before article detection so tables and
// reader comment threads do not end up in the text.
const boilerplateSelectors = "table, #comments, .comments, .comment-list, #disqus_thread"

// ReadabilityTier fetches static HTML and runs article detection on it.
type ReadabilityTier struct {
	client *http.Client
}

// NewReadabilityTier creates the article extraction tier.
func NewReadabilityTier(cfg TierConfig) *ReadabilityTier {
	return &ReadabilityTier{client: newHTTPClient(cfg.FetchTimeout)}
}

func (t *ReadabilityTier) Name() string { return "readability" }

func (t *ReadabilityTier) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	res, err := fetchHTML(ctx, t.client, rawURL)
	if err != nil {
		return nil, err
	}
	pageURL, err := url.Parse(res.FinalURL)
	if err != nil {
		return nil, fmt.Errorf("parse final URL: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body))
	if err != nil {
		return nil, fmt.Errorf("parse HTML: %w", err)
	}
	doc.Find(boilerplateSelectors).Remove()
	cleaned, err := doc.Html()
	if err != nil {
		return nil, fmt.Errorf("render HTML: %w", err)
	}

	article, err := readability.FromReader(strings.NewReader(cleaned), pageURL)
	if err != nil {
		return nil, fmt.Errorf("readability: %w", err)
	}

	title := strings.TrimSpace(article.Title)
	if title == "" {
		title = pageURL.Host
	}
	meta := map[string]any{"final_url": res.FinalURL}
	if article.Byline != "" {
		meta["author"] = article.Byline
	}
	if article.SiteName != "" {
		meta["site_name"] = article.SiteName
	}
	return &Document{
		Title:    title,
		Content:  joinLines(article.TextContent),
		Metadata: meta,
	}, nil
}

// joinLines trims every line and drops the blank ones.
func joinLines(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = collapseWhitespace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
