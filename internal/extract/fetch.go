package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	browserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	maxRedirects     = 10
	maxBodyBytes     = 10 << 20
)

// TierConfig holds settings shared by the URL tiers.
type TierConfig struct {
	// FetchTimeout bounds each plain HTTP request.
	FetchTimeout time.Duration
	// Browser enables the headless browser tier.
	Browser bool
	// BrowserPath overrides the Chrome executable; empty means search PATH.
	BrowserPath string
	// BrowserTimeout bounds page load in the browser tier.
	BrowserTimeout time.Duration
	// BrowserSettle is waited after load so scripts can render content.
	BrowserSettle time.Duration
}

// DefaultTierConfig returns the timeouts used when none are configured.
func DefaultTierConfig() TierConfig {
	return TierConfig{
		FetchTimeout:   30 * time.Second,
		Browser:        true,
		BrowserTimeout: 30 * time.Second,
		BrowserSettle:  2 * time.Second,
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			return nil
		},
	}
}

// fetchResult is an HTML response body with where it came from.
type fetchResult struct {
	Body       []byte
	FinalURL   string
	StatusCode int
}

// fetchHTML GETs url with browser-like headers and rejects error statuses
// and non-HTML content types.
func fetchHTML(ctx context.Context, client *http.Client, url string) (*fetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("HTTP %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(ct, "html") {
		return nil, fmt.Errorf("URL does not point to an HTML page (content type %q)", ct)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("empty response body")
	}
	return &fetchResult{
		Body:       body,
		FinalURL:   resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
	}, nil
}

// FetchTier downloads the page with a plain HTTP client and extracts text
// from the static HTML.
type FetchTier struct {
	client *http.Client
}

// NewFetchTier creates the plain HTTP tier.
func NewFetchTier(cfg TierConfig) *FetchTier {
	return &FetchTier{client: newHTTPClient(cfg.FetchTimeout)}
}

func (t *FetchTier) Name() string { return "fetch" }

func (t *FetchTier) Fetch(ctx context.Context, url string) (*Document, error) {
	res, err := fetchHTML(ctx, t.client, url)
	if err != nil {
		return nil, err
	}
	p, err := parsePage(bytes.NewReader(res.Body), res.FinalURL)
	if err != nil {
		return nil, err
	}
	return &Document{
		Title:   p.Title,
		Content: p.Text,
		Metadata: map[string]any{
			"final_url":   res.FinalURL,
			"status_code": res.StatusCode,
		},
	}, nil
}
