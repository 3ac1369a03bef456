package extract

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTier struct {
	name  string
	doc   *Document
	err   error
	calls int
}

func (s *stubTier) Name() string { return s.name }

func (s *stubTier) Fetch(_ context.Context, _ string) (*Document, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	d := *s.doc
	return &d, nil
}

func longText(n int) string {
	return strings.Repeat("a", n)
}

func TestURLExtractorFallsThroughToThirdTier(t *testing.T) {
	browser := &stubTier{name: "browser", err: errors.New("chrome not found")}
	reader := &stubTier{name: "readability", err: errors.New("no article")}
	fetch := &stubTier{name: "fetch", doc: &Document{Title: "Page", Content: longText(200)}}

	e := NewURLExtractor(browser, reader, fetch)
	doc, err := e.Extract(context.Background(), "example.com/article")
	require.NoError(t, err)

	assert.Equal(t, "fetch", doc.Metadata["method"])
	assert.Equal(t, "https://example.com/article", doc.Metadata["url"])
	assert.Equal(t, 200, doc.Metadata["content_length"])
	assert.Equal(t, "Page", doc.Title)
	assert.Equal(t, 1, browser.calls)
	assert.Equal(t, 1, reader.calls)
	assert.Equal(t, 1, fetch.calls)
}

func TestURLExtractorShortTextFallsThrough(t *testing.T) {
	browser := &stubTier{name: "browser", doc: &Document{Content: "tiny"}}
	reader := &stubTier{name: "readability", doc: &Document{Content: longText(MinContentLength)}}
	fetch := &stubTier{name: "fetch", doc: &Document{Content: longText(500)}}

	doc, err := NewURLExtractor(browser, reader, fetch).Extract(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "readability", doc.Metadata["method"])
	assert.Equal(t, "example.com", doc.Title)
	assert.Equal(t, 0, fetch.calls)
}

func TestURLExtractorAllTiersFail(t *testing.T) {
	long := longText(300)
	e := NewURLExtractor(
		&stubTier{name: "browser", err: errors.New(long)},
		&stubTier{name: "readability", err: errors.New("readability failed")},
		&stubTier{name: "fetch", doc: &Document{Content: "short"}},
	)
	_, err := e.Extract(context.Background(), "https://example.com")
	require.Error(t, err)

	var xerr *ExtractionError
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, ErrTiersExhausted, xerr.Kind)
	require.Len(t, xerr.Failures, 3)

	msg := err.Error()
	assert.Contains(t, msg, "browser error: "+longText(100)+".")
	assert.NotContains(t, msg, longText(101))
	assert.Contains(t, msg, "readability error: readability failed")
	assert.Contains(t, msg, "fetch error: extracted text too short (5 chars)")
}

func TestURLExtractorRejectsBadURLWithoutFetching(t *testing.T) {
	tier := &stubTier{name: "fetch", doc: &Document{Content: longText(100)}}
	_, err := NewURLExtractor(tier).Extract(context.Background(), "not a url")

	var nerr *NormalizationError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, 0, tier.calls)
}

func TestURLExtractorStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	tier := &stubTier{name: "fetch", doc: &Document{Content: longText(100)}}

	_, err := NewURLExtractor(tier).Extract(ctx, "example.com")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, tier.calls)
}

const articleHTML = `<!DOCTYPE html>
<html>
<head>
  <title>Plain Title</title>
  <meta property="og:title" content="Open Graph Title">
  <script>var tracking = "do not extract me";</script>
  <style>body { color: red; }</style>
</head>
<body>
  <nav>Home | About | Contact</nav>
  <header><h1>Site Header</h1></header>
  <main>
    <p>Photosynthesis is the process by which green plants convert light energy into chemical energy.</p>
    <p>It takes place mainly in the chloroplasts of leaf cells.</p>
  </main>
  <footer>Copyright footer text</footer>
</body>
</html>`

func TestFetchTierExtractsMainContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, articleHTML)
	}))
	defer srv.Close()

	doc, err := NewFetchTier(DefaultTierConfig()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, "Open Graph Title", doc.Title)
	assert.Contains(t, doc.Content, "Photosynthesis is the process")
	assert.Contains(t, doc.Content, "chloroplasts of leaf cells.")
	for _, unwanted := range []string{"do not extract me", "color: red", "Home | About", "Site Header", "Copyright footer"} {
		assert.NotContains(t, doc.Content, unwanted)
	}
	assert.NotContains(t, doc.Content, "  ")
	assert.Equal(t, http.StatusOK, doc.Metadata["status_code"])
}

func TestFetchTierRejectsNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.4")
	}))
	defer srv.Close()

	_, err := NewFetchTier(DefaultTierConfig()).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTML")
}

func TestFetchTierRejectsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewFetchTier(DefaultTierConfig()).Fetch(context.Background(), srv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchTierFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/old", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/new", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/new", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, articleHTML)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	doc, err := NewFetchTier(DefaultTierConfig()).Fetch(context.Background(), srv.URL+"/old")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/new", doc.Metadata["final_url"])
}

func TestURLExtractorEndToEndWithFetchTier(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, articleHTML)
	}))
	defer srv.Close()

	cfg := DefaultTierConfig()
	cfg.Browser = false
	e := NewURLExtractor(NewBrowserTier(cfg), &stubTier{name: "readability", err: errors.New("skipped")}, NewFetchTier(cfg))

	doc, err := e.Extract(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, "fetch", doc.Metadata["method"])
	assert.Contains(t, doc.Content, "Photosynthesis")
}
