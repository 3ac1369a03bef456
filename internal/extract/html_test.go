package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageTitleFallbacks(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"og title wins", `<html><head><meta property="og:title" content=" OG "><title>T</title></head><body><h1>H</h1></body></html>`, "OG"},
		{"title tag", `<html><head><title> Tag Title </title></head><body><h1>H</h1></body></html>`, "Tag Title"},
		{"first h1", `<html><body><h1>First   heading</h1><h1>Second</h1></body></html>`, "First heading"},
		{"hostname", `<html><body><p>nothing</p></body></html>`, "docs.example.com"},
		{"empty og falls back", `<html><head><meta property="og:title" content=""><title>Real</title></head></html>`, "Real"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := parsePage(strings.NewReader(tt.html), "https://docs.example.com/page")
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Title)
		})
	}
}

func TestMainTextSelectorPriority(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{"main before article", `<body><article>article text</article><main>main text</main></body>`, "main text"},
		{"article", `<body><div>outside</div><article>article text</article></body>`, "article text"},
		{"role main", `<body><div>outside</div><div role="main">role text</div></body>`, "role text"},
		{"content class", `<body><div>outside</div><div class="content">class text</div></body>`, "class text"},
		{"content id", `<body><div>outside</div><div id="content">id text</div></body>`, "id text"},
		{"body", `<body><div>one</div><div>two</div></body>`, "one two"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := parsePage(strings.NewReader("<html>"+tt.html+"</html>"), "https://example.com")
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Text)
		})
	}
}

func TestMainTextSkipsCommentsAndCollapsesWhitespace(t *testing.T) {
	src := "<html><body><main><p>alpha\n\n\t beta</p><!-- hidden --><p>gamma</p><noscript>enable js</noscript></main></body></html>"
	p, err := parsePage(strings.NewReader(src), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "alpha beta gamma", p.Text)
}
