package scrape

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/webfetch/internal/markdown"
	"github.com/sells-group/webfetch/internal/model"
	"github.com/sells-group/webfetch/internal/resilience"
	"github.com/sells-group/webfetch/pkg/jina"
)

// JinaAdapter wraps a Jina Reader client as a Scraper. The reader returns
// bare markdown, so the title is taken from the first heading.
type JinaAdapter struct {
	client jina.Client
	retry  resilience.Policy
}

// NewJinaAdapter creates a JinaAdapter from a Jina client.
func NewJinaAdapter(client jina.Client, retry resilience.Policy) *JinaAdapter {
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger(string(model.ServiceJina))
	}
	return &JinaAdapter{client: client, retry: retry}
}

// Service implements Scraper.
func (j *JinaAdapter) Service() model.Service { return model.ServiceJina }

// Scrape fetches a URL via Jina Reader.
func (j *JinaAdapter) Scrape(ctx context.Context, targetURL string) (*model.ScrapeResult, error) {
	resp, err := resilience.DoVal(ctx, j.retry, func(ctx context.Context) (*jina.ReadResponse, error) {
		resp, err := j.client.Read(ctx, targetURL)
		if err != nil {
			var apiErr *jina.APIError
			if errors.As(err, &apiErr) {
				return nil, &ProviderHTTPError{
					Provider:   model.ServiceJina,
					StatusCode: apiErr.StatusCode,
					Body:       apiErr.Body,
				}
			}
			return nil, err
		}
		return resp, nil
	})
	if err != nil {
		return nil, eris.Wrap(err, "scrape: jina")
	}

	md := strings.TrimSpace(resp.Content)
	title := markdown.ExtractTitle(md)
	if title == "" {
		title = targetURL
	}
	return &model.ScrapeResult{Title: title, SourceURL: targetURL, Markdown: md}, nil
}
