// Package jina provides a client for the Jina AI Reader API.
package jina

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rotisserie/eris"
)

// DefaultBaseURL is the public Jina Reader endpoint.
const DefaultBaseURL = "https://r.jina.ai"

// readerHeaders ask the reader for plain markdown with setext headings,
// "-" bullets, "*" emphasis, "---" rules, no link targets and no GFM.
var readerHeaders = map[string]string{
	"X-Engine":                "browser",
	"X-Md-Bullet-List-Marker": "-",
	"X-Md-Em-Delimiter":       "*",
	"X-Md-Heading-Style":      "setext",
	"X-Md-Hr":                 "---",
	"X-Md-Link-Style":         "discarded",
	"X-No-Gfm":                "true",
	"X-Return-Format":         "markdown",
}

// Client defines the Jina AI Reader operations.
type Client interface {
	// Read fetches a URL via Jina AI Reader and returns the markdown body.
	Read(ctx context.Context, targetURL string) (*ReadResponse, error)
}

// ReadResponse holds the reader output. Content is the raw response body.
type ReadResponse struct {
	StatusCode int
	Content    string
}

// APIError is returned when the reader responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jina: HTTP %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

// Option configures the Jina client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a new Jina AI Reader client. Requests are anonymous.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL: DefaultBaseURL,
		http:    &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Read(ctx context.Context, targetURL string) (*ReadResponse, error) {
	// The target is appended verbatim; the reader parses everything after
	// the first slash as the page URL.
	reqURL := c.baseURL + "/" + targetURL

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "jina: create request")
	}
	for k, v := range readerHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "jina: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "jina: read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return &ReadResponse{StatusCode: resp.StatusCode, Content: string(body)}, nil
}
