package firecrawl

import (
	"net/url"
	"strings"
)

// DefaultScrapeEndpoint is the hosted Firecrawl v2 scrape endpoint.
const DefaultScrapeEndpoint = "https://api.firecrawl.dev/v2/scrape"

const scrapePath = "/v2/scrape"

// ResolveScrapeEndpoint turns a user-supplied base URL into the concrete
// scrape endpoint. Blank input yields DefaultScrapeEndpoint. Input that is not
// an absolute URL is normalized with plain string operations. The result of
// resolving an already-resolved endpoint is unchanged.
func ResolveScrapeEndpoint(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return DefaultScrapeEndpoint
	}

	u, err := url.Parse(trimmed)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return appendScrapePath(strings.TrimRight(trimmed, "/"))
	}

	escaped := appendScrapePath(strings.TrimRight(u.EscapedPath(), "/"))
	decoded, err := url.PathUnescape(escaped)
	if err != nil {
		return appendScrapePath(strings.TrimRight(trimmed, "/"))
	}
	u.Path = decoded
	u.RawPath = escaped
	return u.String()
}

func appendScrapePath(p string) string {
	switch {
	case strings.HasSuffix(p, "/scrape"):
		return p
	case strings.HasSuffix(p, "/v2"):
		return p + "/scrape"
	default:
		return p + scrapePath
	}
}
