package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostSendsJSONAndDecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL))
	resp, err := c.Post(context.Background(), "/anything", map[string]string{"a": "b"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var out struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, resp.JSON(&out))
	assert.True(t, out.OK)
}

func TestPostWithHeadersMergesCustomHeaders(t *testing.T) {
	var captured http.Header
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Header.Clone()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(WithBaseURL(server.URL), WithBearerToken("token-123"))
	_, err := c.PostWithHeaders(context.Background(), "/x", nil, map[string]string{"x-api-key": "key-abc"})
	require.NoError(t, err)
	assert.Equal(t, "key-abc", captured.Get("x-api-key"))
	assert.Equal(t, "Bearer token-123", captured.Get("Authorization"))
}

func TestPostRelativeURLWithoutBaseURLErrors(t *testing.T) {
	c := NewClient()
	_, err := c.Post(context.Background(), "/relative", nil)
	require.Error(t, err)
}

func TestPostAbsoluteURLIgnoresBaseURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	c := NewClient(WithBaseURL("http://unused.invalid"))
	resp, err := c.Post(context.Background(), server.URL+"/direct", nil)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
}
