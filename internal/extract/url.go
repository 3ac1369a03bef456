package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Tier is one strategy for turning a URL into a document. Tiers are tried in
// order until one returns enough text.
type Tier interface {
	Name() string
	Fetch(ctx context.Context, url string) (*Document, error)
}

// URLExtractor extracts web pages through an ordered list of tiers.
type URLExtractor struct {
	tiers []Tier
}

// NewURLExtractor creates a URL extractor that tries tiers in the given order.
func NewURLExtractor(tiers ...Tier) *URLExtractor {
	return &URLExtractor{tiers: tiers}
}

// DefaultTiers returns the standard chain: rendered browser page, article
// readability, then a plain HTTP fetch.
func DefaultTiers(cfg TierConfig) []Tier {
	return []Tier{
		NewBrowserTier(cfg),
		NewReadabilityTier(cfg),
		NewFetchTier(cfg),
	}
}

// Extract normalizes location and runs the tiers. The first tier that returns
// at least MinContentLength characters wins and is recorded in
// metadata["method"]. If every tier fails the error lists each tier's cause.
func (e *URLExtractor) Extract(ctx context.Context, location string) (*Document, error) {
	target, err := NormalizeURL(location)
	if err != nil {
		return nil, err
	}

	var failures []TierFailure
	for _, t := range e.tiers {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extract %s: %w", target, err)
		}

		doc, err := t.Fetch(ctx, target)
		if err == nil {
			doc.Content = strings.TrimSpace(doc.Content)
			if n := utf8.RuneCountInString(doc.Content); n < MinContentLength {
				err = fmt.Errorf("extracted text too short (%d chars)", n)
			}
		}
		if err != nil {
			slog.Warn("extraction tier failed", "tier", t.Name(), "url", target, "error", err)
			failures = append(failures, TierFailure{Tier: t.Name(), Err: err})
			continue
		}

		if doc.Title == "" {
			doc.Title = hostname(target)
		}
		if doc.Metadata == nil {
			doc.Metadata = make(map[string]any)
		}
		doc.Metadata["url"] = target
		doc.Metadata["method"] = t.Name()
		doc.Metadata["content_length"] = utf8.RuneCountInString(doc.Content)
		slog.Info("extracted URL", "url", target, "tier", t.Name(), "chars", doc.Metadata["content_length"])
		return doc, nil
	}
	return nil, exhausted(target, failures)
}
