package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserTier renders the page in headless Chrome so script-built content is
// present, then extracts text from the rendered DOM.
type BrowserTier struct {
	enabled  bool
	execPath string
	timeout  time.Duration
	settle   time.Duration
}

// NewBrowserTier creates the headless browser tier.
func NewBrowserTier(cfg TierConfig) *BrowserTier {
	timeout := cfg.BrowserTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &BrowserTier{
		enabled:  cfg.Browser,
		execPath: cfg.BrowserPath,
		timeout:  timeout,
		settle:   cfg.BrowserSettle,
	}
}

func (t *BrowserTier) Name() string { return "browser" }

func (t *BrowserTier) Fetch(ctx context.Context, url string) (*Document, error) {
	if !t.enabled {
		return nil, errors.New("headless browser disabled")
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.UserAgent(browserUserAgent))
	if t.execPath != "" {
		opts = append(opts, chromedp.ExecPath(t.execPath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()
	runCtx, cancel := context.WithTimeout(browserCtx, t.timeout+t.settle)
	defer cancel()

	var title, rendered string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(t.settle),
		chromedp.Title(&title),
		chromedp.OuterHTML("html", &rendered, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}

	p, err := parsePage(strings.NewReader(rendered), url)
	if err != nil {
		return nil, err
	}
	if title = strings.TrimSpace(title); title == "" {
		title = hostname(url)
	}
	return &Document{Title: title, Content: p.Text}, nil
}
