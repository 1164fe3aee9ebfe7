package crawler

import (
	"fmt"
	"net/url"
	"strings"
)

// Origin returns the scheme and host of rawURL, without path, query or fragment.
func Origin(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q has no scheme or host", ErrInvalidURL, rawURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// Normalize turns discovered links into absolute URLs.
//
// Entries that already start with http:// or https:// are returned unchanged.
// Every other entry is resolved against the origin of sourceURL, so a path
// on the source's homepage never leaks into the result. Blank entries are
// dropped. Input order is preserved and duplicates are kept.
//
// A protocol-relative entry ("//cdn.example/a") names another host, so it is
// an absolute link: it only gets the scheme of sourceURL and keeps its host.
// Entries with another scheme (mailto:, javascript:) and entries that cannot
// be parsed are dropped. If sourceURL itself has no usable origin, only the
// absolute http(s) entries are returned.
func Normalize(rawURLs []string, sourceURL string) []string {
	normalized := make([]string, 0, len(rawURLs))

	var base *url.URL
	if origin, err := Origin(sourceURL); err == nil {
		base, _ = url.Parse(origin + "/") //nolint:errcheck // origin was just parsed
	}

	for _, raw := range rawURLs {
		if strings.TrimSpace(raw) == "" {
			continue
		}

		if hasHTTPScheme(raw) {
			normalized = append(normalized, raw)
			continue
		}

		if base == nil {
			continue
		}

		trimmed := strings.TrimSpace(raw)
		if strings.HasPrefix(trimmed, "//") {
			if u, err := url.Parse(base.Scheme + ":" + trimmed); err == nil && u.Host != "" {
				normalized = append(normalized, u.String())
			}
			continue
		}

		ref, err := url.Parse(trimmed)
		if err != nil || ref.Scheme != "" {
			continue
		}
		normalized = append(normalized, base.ResolveReference(ref).String())
	}

	return normalized
}

// hasHTTPScheme reports whether s already starts with an http(s) scheme.
func hasHTTPScheme(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
