package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/webfetch/internal/model"
	"github.com/sells-group/webfetch/internal/resilience"
	"github.com/sells-group/webfetch/pkg/jina"
)

func TestJinaAdapter_Success(t *testing.T) {
	jc := &mockJinaClient{}
	jc.On("Read", mock.Anything, "https://example.com").
		Return(&jina.ReadResponse{StatusCode: 200, Content: "\nExample Domain\n==============\n\nThis domain is for examples.\n"}, nil)

	got, err := NewJinaAdapter(jc, resilience.SingleAttempt()).Scrape(context.Background(), "https://example.com")
	require.NoError(t, err)
	assert.Equal(t, "Example Domain", got.Title)
	assert.Equal(t, "https://example.com", got.SourceURL)
	assert.Equal(t, "Example Domain\n==============\n\nThis domain is for examples.", got.Markdown)
	jc.AssertExpectations(t)
}

func TestJinaAdapter_NoHeadingUsesURL(t *testing.T) {
	jc := &mockJinaClient{}
	jc.On("Read", mock.Anything, mock.Anything).Return(&jina.ReadResponse{StatusCode: 200, Content: "   "}, nil)

	got, err := NewJinaAdapter(jc, resilience.SingleAttempt()).Scrape(context.Background(), "https://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", got.Title)
	assert.Empty(t, got.Markdown)
}

func TestJinaAdapter_HTTPError(t *testing.T) {
	jc := &mockJinaClient{}
	jc.On("Read", mock.Anything, mock.Anything).Return(nil, &jina.APIError{StatusCode: 422, Body: "bad url"})

	_, err := NewJinaAdapter(jc, fastRetry(3)).Scrape(context.Background(), "https://example.com")
	require.Error(t, err)
	var httpErr *ProviderHTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, model.ServiceJina, httpErr.Provider)
	assert.Equal(t, 422, httpErr.HTTPStatus())
	assert.Equal(t, "jina: HTTP 422", httpErr.Error())
	jc.AssertNumberOfCalls(t, "Read", 1)
}

func TestJinaAdapter_TransportError(t *testing.T) {
	jc := &mockJinaClient{}
	jc.On("Read", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: no such host"))

	_, err := NewJinaAdapter(jc, resilience.SingleAttempt()).Scrape(context.Background(), "https://example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such host")
}
