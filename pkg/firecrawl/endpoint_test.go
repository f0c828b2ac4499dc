package firecrawl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveScrapeEndpoint(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", DefaultScrapeEndpoint},
		{"whitespace", "   \t", DefaultScrapeEndpoint},
		{"bare host", "https://x", "https://x/v2/scrape"},
		{"bare host trailing slash", "https://x/", "https://x/v2/scrape"},
		{"v2 base", "https://x/v2", "https://x/v2/scrape"},
		{"v2 base trailing slashes", "https://x/v2///", "https://x/v2/scrape"},
		{"already canonical", "https://x/v2/scrape", "https://x/v2/scrape"},
		{"canonical trailing slash", "https://x/v2/scrape/", "https://x/v2/scrape"},
		{"v1 scrape kept", "https://x/v1/scrape", "https://x/v1/scrape"},
		{"self-hosted with port", "http://localhost:3002", "http://localhost:3002/v2/scrape"},
		{"prefix path", "https://proxy.example.com/firecrawl", "https://proxy.example.com/firecrawl/v2/scrape"},
		{"query preserved", "https://x/v2?team=a", "https://x/v2/scrape?team=a"},
		{"surrounding whitespace", "  https://x/v2  ", "https://x/v2/scrape"},
		{"encoded slash kept", "https://x/a%2Fb", "https://x/a%2Fb/v2/scrape"},
		{"encoded space kept", "https://x/my%20proxy/", "https://x/my%20proxy/v2/scrape"},
		{"not a url", "firecrawl.internal", "firecrawl.internal/v2/scrape"},
		{"not a url with v2", "firecrawl.internal/v2/", "firecrawl.internal/v2/scrape"},
		{"not a url with scrape", "firecrawl.internal/v2/scrape//", "firecrawl.internal/v2/scrape"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveScrapeEndpoint(tt.input))
		})
	}
}

func TestResolveScrapeEndpoint_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"https://x",
		"https://x/v2",
		"http://localhost:3002/",
		"https://proxy.example.com/firecrawl",
		"firecrawl.internal",
		"https://x/a%2Fb",
	}
	for _, in := range inputs {
		once := ResolveScrapeEndpoint(in)
		assert.Equal(t, once, ResolveScrapeEndpoint(once), "input %q", in)
	}
}
