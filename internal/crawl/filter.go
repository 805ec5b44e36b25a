package crawl

import (
	"net/url"
	"strings"
)

// skippedExtensions are static assets and binary downloads that never carry
// page text worth summarizing.
var skippedExtensions = []string{
	".css", ".js", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico",
	".mp4", ".mp3", ".wav", ".avi", ".mov",
	".pdf", ".zip", ".rar", ".tar", ".gz",
}

// IsValid reports whether rawURL belongs to baseDomain (an authority such as
// "example.com" or "example.com:8080") and does not point at a static asset.
// The extension check is case-insensitive and only looks at the path, so a
// query string like "?file=a.pdf" does not disqualify a page.
func IsValid(rawURL, baseDomain string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if parsed.Host != baseDomain {
		return false
	}
	path := strings.ToLower(parsed.Path)
	for _, ext := range skippedExtensions {
		if strings.HasSuffix(path, ext) {
			return false
		}
	}
	return true
}
