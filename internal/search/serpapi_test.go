package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reginold/slack-bot-agentic/internal/boterr"
)

func newServer(t *testing.T, status int, body string) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestSearch_MissingKey(t *testing.T) {
	srv, calls := newServer(t, http.StatusOK, `{}`)
	c := New(Config{BaseURL: srv.URL})

	_, err := c.Search(context.Background(), "golang", 3)

	var searchErr *boterr.WebSearchError
	require.True(t, errors.As(err, &searchErr))
	assert.Equal(t, "Search service unavailable", searchErr.UserMessage())
	assert.Equal(t, 0, *calls)
}

func TestSearch_Params(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "go generics", q.Get("q"))
		assert.Equal(t, "secret-key", q.Get("api_key"))
		assert.Equal(t, "3", q.Get("num"))
		w.Write([]byte(`{"organic_results":[]}`))
	}))
	defer srv.Close()

	out, err := New(Config{BaseURL: srv.URL, APIKey: "secret-key"}).Search(context.Background(), "go generics", 0)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestSearch_NoOrganicResults(t *testing.T) {
	for _, body := range []string{`{"search_metadata":{}}`, `{"organic_results":null}`} {
		srv, _ := newServer(t, http.StatusOK, body)
		out, err := New(Config{BaseURL: srv.URL, APIKey: "k"}).Search(context.Background(), "q", 3)
		require.NoError(t, err)
		assert.Equal(t, "No results found for your query", out)
	}
}

func TestSearch_FormatsResults(t *testing.T) {
	body := `{"organic_results":[
		{"title":"Go","link":"https://go.dev","snippet":"The Go language"},
		{"link":"https://example.com"},
		{"title":"<b>Tour</b> of Go","link":"https://go.dev/tour","snippet":"Learn &amp; play"},
		{"title":"Fourth","link":"https://four","snippet":"cut"}
	]}`
	srv, _ := newServer(t, http.StatusOK, body)

	out, err := New(Config{BaseURL: srv.URL, APIKey: "k"}).Search(context.Background(), "go", 3)
	require.NoError(t, err)

	want := "1. [Go](https://go.dev)\n   The Go language\n\n" +
		"2. [No title](https://example.com)\n   No description available\n\n" +
		"3. [Tour of Go](https://go.dev/tour)\n   Learn & play"
	assert.Equal(t, want, out)
}

func TestSearch_MissingLink(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"organic_results":[{"title":"T","snippet":"S"}]}`)
	out, err := New(Config{BaseURL: srv.URL, APIKey: "k"}).Search(context.Background(), "q", 1)
	require.NoError(t, err)
	assert.Equal(t, "1. [T](#)\n   S", out)
}

func TestSearch_HTTPError(t *testing.T) {
	srv, _ := newServer(t, http.StatusUnauthorized, `{"error":"Invalid API key"}`)
	_, err := New(Config{BaseURL: srv.URL, APIKey: "k"}).Search(context.Background(), "q", 3)

	var searchErr *boterr.WebSearchError
	require.True(t, errors.As(err, &searchErr))
	assert.Equal(t, "Web search failed. Please try again later.", searchErr.UserMessage())
	assert.Contains(t, err.Error(), "401")
}

func TestSearch_BadJSON(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `<html>`)
	_, err := New(Config{BaseURL: srv.URL, APIKey: "k"}).Search(context.Background(), "q", 3)

	var searchErr *boterr.WebSearchError
	assert.True(t, errors.As(err, &searchErr))
}

func TestSearch_TransportErrorRedactsKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()

	_, err := New(Config{BaseURL: base, APIKey: "top-secret-123"}).Search(context.Background(), "q", 3)

	var searchErr *boterr.WebSearchError
	require.True(t, errors.As(err, &searchErr))
	assert.NotContains(t, err.Error(), "top-secret-123")
	assert.Contains(t, err.Error(), "REDACTED")
	assert.NotContains(t, searchErr.UserMessage(), "top-secret-123")
}
