package extract

import (
	"fmt"
	"net/url"
	"strings"
)

var placeholderHosts = map[string]bool{
	"test":      true,
	"localhost": true,
}

// NormalizeURL validates user input and returns an absolute http(s) URL.
// Input without a scheme gets https://. Hosts must have at least two
// dot-separated labels.
func NormalizeURL(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", &NormalizationError{Input: raw, Reason: "URL cannot be empty"}
	}
	if !strings.Contains(s, ".") && !strings.HasPrefix(s, "http") {
		return "", &NormalizationError{
			Input:  raw,
			Reason: fmt.Sprintf("'%s' does not appear to be a valid URL. Please include the full URL (e.g., https://example.com)", s),
		}
	}
	if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" || placeholderHosts[u.Host] || len(strings.Split(u.Host, ".")) < 2 {
		return "", &NormalizationError{
			Input:  raw,
			Reason: fmt.Sprintf("Invalid URL format: '%s'. Please provide a complete URL (e.g., https://www.example.com/page)", s),
		}
	}
	return s, nil
}

// hostname returns the host part of rawURL, or rawURL itself if it does not parse.
func hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Host
}
