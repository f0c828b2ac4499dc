// Package scrape adapts scraping providers to a single fetch capability.
package scrape

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sells-group/webfetch/internal/model"
	"github.com/sells-group/webfetch/internal/resilience"
	"github.com/sells-group/webfetch/pkg/firecrawl"
	"github.com/sells-group/webfetch/pkg/jina"
)

// Scraper fetches a single URL and returns its content as markdown.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*model.ScrapeResult, error)
	Service() model.Service
}

// ProviderHTTPError is a non-2xx response from a provider.
type ProviderHTTPError struct {
	Provider   model.Service
	StatusCode int
	Body       string
}

func (e *ProviderHTTPError) Error() string {
	return fmt.Sprintf("%s: HTTP %d", e.Provider, e.StatusCode)
}

// HTTPStatus implements resilience.StatusCoder.
func (e *ProviderHTTPError) HTTPStatus() int { return e.StatusCode }

// ProviderAPIError is a 2xx response in which the provider reported failure.
type ProviderAPIError struct {
	Provider model.Service
	Message  string
}

func (e *ProviderAPIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// UnsupportedServiceError is returned by New for an unknown service.
type UnsupportedServiceError struct {
	Service model.Service
}

func (e *UnsupportedServiceError) Error() string {
	return fmt.Sprintf("scrape: unsupported service %q", string(e.Service))
}

// Options carries process-level settings for the adapters.
type Options struct {
	HTTPClient  *http.Client
	JinaBaseURL string
	Retry       resilience.Policy
}

// New returns the adapter for service configured from s.
func New(service model.Service, s model.PluginSettings, opts Options) (Scraper, error) {
	switch service {
	case model.ServiceFirecrawl:
		fcOpts := []firecrawl.Option{firecrawl.WithEndpoint(s.FirecrawlEndpoint)}
		if opts.HTTPClient != nil {
			fcOpts = append(fcOpts, firecrawl.WithHTTPClient(opts.HTTPClient))
		}
		return NewFirecrawlAdapter(firecrawl.NewClient(s.FirecrawlAPIKey, fcOpts...), opts.Retry), nil
	case model.ServiceJina:
		var jOpts []jina.Option
		if opts.JinaBaseURL != "" {
			jOpts = append(jOpts, jina.WithBaseURL(opts.JinaBaseURL))
		}
		if opts.HTTPClient != nil {
			jOpts = append(jOpts, jina.WithHTTPClient(opts.HTTPClient))
		}
		return NewJinaAdapter(jina.NewClient(jOpts...), opts.Retry), nil
	default:
		return nil, &UnsupportedServiceError{Service: service}
	}
}

// Factory builds a Scraper for a fetch. It lets callers substitute adapters.
type Factory func(service model.Service, s model.PluginSettings) (Scraper, error)

// NewFactory returns a Factory that calls New with opts.
func NewFactory(opts Options) Factory {
	return func(service model.Service, s model.PluginSettings) (Scraper, error) {
		return New(service, s, opts)
	}
}
