package firecrawl

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, apiKey string, handler http.HandlerFunc) (*httptest.Server, Client) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient(apiKey, WithEndpoint(srv.URL))
	return srv, c
}

func TestScrape(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantTitle  string
		wantSource string
		wantErr    bool
		wantAPIErr bool
		wantStatus int
	}{
		{
			name: "happy path",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/v2/scrape", r.URL.Path)
				assert.Equal(t, "Bearer test-api-key", r.Header.Get("Authorization"))
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

				var req ScrapeRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "https://example.com/about", req.URL)
				assert.Equal(t, []string{"markdown"}, req.Formats)

				w.Write([]byte(`{"success":true,"data":{"markdown":"# About Us","metadata":{"title":"About","sourceURL":"https://example.com/about/"}}}`))
			},
			wantTitle:  "About",
			wantSource: "https://example.com/about/",
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":"Unauthorized"}`))
			},
			wantErr:    true,
			wantAPIErr: true,
			wantStatus: 401,
		},
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":"rate limited"}`))
			},
			wantErr:    true,
			wantAPIErr: true,
			wantStatus: 429,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newTestServer(t, "test-api-key", tt.handler)
			resp, err := c.Scrape(context.Background(), ScrapeRequest{
				URL:     "https://example.com/about",
				Formats: []string{"markdown"},
			})

			if tt.wantErr {
				require.Error(t, err)
				if tt.wantAPIErr {
					var apiErr *APIError
					require.ErrorAs(t, err, &apiErr)
					assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
				}
				return
			}
			require.NoError(t, err)
			assert.True(t, resp.Success)
			require.NotNil(t, resp.Data)
			require.NotNil(t, resp.Data.Metadata)
			assert.Equal(t, tt.wantTitle, resp.Data.Metadata.Title)
			assert.Equal(t, tt.wantSource, resp.Data.Metadata.SourceURL)
		})
	}
}

func TestScrape_NoAPIKeyOmitsAuthorization(t *testing.T) {
	_, c := newTestServer(t, "  ", func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.Header["Authorization"]
		assert.False(t, ok, "authorization header should be absent")
		w.Write([]byte(`{"success":true,"data":{"markdown":"body"}}`))
	})

	resp, err := c.Scrape(context.Background(), ScrapeRequest{URL: "https://example.com"})
	require.NoError(t, err)
	require.NotNil(t, resp.Data)
	assert.Nil(t, resp.Data.Metadata)
	assert.Equal(t, "body", resp.Data.Markdown)
}

func TestScrape_ProviderFailureDecodes(t *testing.T) {
	_, c := newTestServer(t, "k", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false,"error":"Insufficient credits"}`))
	})

	resp, err := c.Scrape(context.Background(), ScrapeRequest{URL: "https://example.com"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Nil(t, resp.Data)
	assert.Equal(t, "Insufficient credits", resp.Error)
}

func TestWithEndpoint(t *testing.T) {
	t.Parallel()
	endpoint := func(c Client) string { return c.(*httpClient).endpoint }
	assert.Equal(t, DefaultScrapeEndpoint, endpoint(NewClient("k")))
	assert.Equal(t, "https://fc.example.com/v2/scrape", endpoint(NewClient("k", WithEndpoint("https://fc.example.com/v2/"))))
	assert.Equal(t, DefaultScrapeEndpoint, endpoint(NewClient("k", WithEndpoint("   "))))
}

func TestScrape_MalformedSuccessBodies(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
		wantOK  bool
		wantNil bool
	}{
		{name: "data is a string", body: `{"success":true,"data":"oops"}`, wantNil: true, wantOK: true},
		{name: "data is an array", body: `{"success":true,"data":[]}`, wantNil: true, wantOK: true},
		{name: "success is a string", body: `{"success":"true","data":{}}`},
		{name: "error is an object", body: `{"success":false,"error":{"code":1}}`, wantNil: true},
		{name: "body is an array", body: `[1,2]`, wantNil: true},
		{name: "metadata fields mistyped", body: `{"success":true,"data":{"markdown":5,"metadata":{"title":1,"sourceURL":"u","statusCode":"x"}}}`, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, c := newTestServer(t, "k", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})

			resp, err := c.Scrape(context.Background(), ScrapeRequest{URL: "https://example.com"})
			require.NoError(t, err)
			assert.Equal(t, tt.wantOK, resp.Success)
			assert.Equal(t, tt.wantNil, resp.Data == nil)
			assert.Equal(t, tt.wantErr, resp.Error)
		})
	}
}

func TestScrape_MistypedMetadataKeepsStrings(t *testing.T) {
	_, c := newTestServer(t, "k", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":true,"data":{"markdown":5,"metadata":{"title":1,"sourceURL":"u","statusCode":"x"}}}`))
	})

	resp, err := c.Scrape(context.Background(), ScrapeRequest{URL: "https://example.com"})
	require.NoError(t, err)
	require.NotNil(t, resp.Data)
	require.NotNil(t, resp.Data.Metadata)
	assert.Empty(t, resp.Data.Markdown)
	assert.Equal(t, &Metadata{SourceURL: "u"}, resp.Data.Metadata)
}

func TestContextCancellation(t *testing.T) {
	_, c := newTestServer(t, "k", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("request should have been cancelled")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Scrape(ctx, ScrapeRequest{URL: "https://example.com"})
	require.Error(t, err)
}

func TestAPIError_Error(t *testing.T) {
	t.Parallel()
	e := &APIError{StatusCode: 429, Body: `{"error":"rate limited"}`}
	assert.Equal(t, `firecrawl: HTTP 429: {"error":"rate limited"}`, e.Error())
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()
	customClient := &http.Client{}
	c := NewClient("key", WithHTTPClient(customClient))
	hc := c.(*httpClient)
	assert.Equal(t, customClient, hc.http)
}

func TestMalformedJSON(t *testing.T) {
	_, c := newTestServer(t, "k", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{not json`))
	})

	_, err := c.Scrape(context.Background(), ScrapeRequest{URL: "https://example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}
