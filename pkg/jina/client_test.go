package jina

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRead_Success(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "markdown", r.Header.Get("X-Return-Format"))
		assert.Equal(t, "setext", r.Header.Get("X-Md-Heading-Style"))
		assert.Equal(t, "-", r.Header.Get("X-Md-Bullet-List-Marker"))
		assert.Equal(t, "*", r.Header.Get("X-Md-Em-Delimiter"))
		assert.Equal(t, "---", r.Header.Get("X-Md-Hr"))
		assert.Equal(t, "discarded", r.Header.Get("X-Md-Link-Style"))
		assert.Equal(t, "true", r.Header.Get("X-No-Gfm"))
		assert.Equal(t, "browser", r.Header.Get("X-Engine"))
		assert.Equal(t, "/https://acme.com/about", r.URL.Path)

		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("Acme Corp\n=========\n\nWe build things.\n"))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	got, err := client.Read(context.Background(), "https://acme.com/about")

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, got.StatusCode)
	assert.Equal(t, "Acme Corp\n=========\n\nWe build things.\n", got.Content)
}

func TestRead_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limit exceeded"}`))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.Read(context.Background(), "https://acme.com")

	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "429")
}

func TestRead_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal error\n"))
	}))
	defer srv.Close()

	client := NewClient(WithBaseURL(srv.URL + "/"))
	_, err := client.Read(context.Background(), "https://acme.com")

	require.Error(t, err)
	assert.Equal(t, "jina: HTTP 500: internal error", err.Error())
}

func TestRead_ContextCancelled(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach server")
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(WithBaseURL(srv.URL))
	_, err := client.Read(ctx, "https://acme.com")
	require.Error(t, err)
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()
	c := NewClient().(*httpClient)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.NotNil(t, c.http)

	custom := &http.Client{}
	c = NewClient(WithHTTPClient(custom)).(*httpClient)
	assert.Same(t, custom, c.http)
}
