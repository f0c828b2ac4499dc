package scrape

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/webfetch/internal/model"
	"github.com/sells-group/webfetch/internal/resilience"
	"github.com/sells-group/webfetch/pkg/firecrawl"
)

const firecrawlFallbackMessage = "Firecrawl error"

// FirecrawlAdapter wraps a Firecrawl client as a Scraper.
type FirecrawlAdapter struct {
	client firecrawl.Client
	retry  resilience.Policy
}

// NewFirecrawlAdapter creates a FirecrawlAdapter from a Firecrawl client.
func NewFirecrawlAdapter(client firecrawl.Client, retry resilience.Policy) *FirecrawlAdapter {
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(string(model.ServiceFirecrawl))
	}
	return &FirecrawlAdapter{client: client, retry: retry}
}

// Service implements Scraper.
func (f *FirecrawlAdapter) Service() model.Service { return model.ServiceFirecrawl }

// Scrape fetches a single URL via Firecrawl's scrape API.
func (f *FirecrawlAdapter) Scrape(ctx context.Context, targetURL string) (*model.ScrapeResult, error) {
	resp, err := resilience.DoVal(ctx, f.retry, func(ctx context.Context) (*firecrawl.ScrapeResponse, error) {
		resp, err := f.client.Scrape(ctx, firecrawl.ScrapeRequest{
			URL:     targetURL,
			Formats: []string{"markdown"},
		})
		if err != nil {
			var apiErr *firecrawl.APIError
			if errors.As(err, &apiErr) {
				return nil, &ProviderHTTPError{
					Provider:   model.ServiceFirecrawl,
					StatusCode: apiErr.StatusCode,
					Body:       apiErr.Body,
				}
			}
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "scrape: firecrawl")
	}

	if !resp.Success || resp.Data == nil {
		msg := resp.Error
		if msg == "" {
			msg = firecrawlFallbackMessage
		}
		return nil, &ProviderAPIError{Provider: model.ServiceFirecrawl, Message: msg}
	}

	result := &model.ScrapeResult{
		Title:     targetURL,
		SourceURL: targetURL,
		Markdown:  strings.TrimSpace(resp.Data.Markdown),
	}
	if md := resp.Data.Metadata; md != nil {
		if title := strings.TrimSpace(md.Title); title != "" {
			result.Title = title
		}
		if md.SourceURL != "" {
			result.SourceURL = md.SourceURL
		}
	}
	return result, nil
}
