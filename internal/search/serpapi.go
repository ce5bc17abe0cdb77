// Package search runs web searches through SerpAPI and renders the organic
// results as a numbered Markdown list.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/reginold/slack-bot-agentic/internal/boterr"
	"github.com/reginold/slack-bot-agentic/internal/logging"
	"github.com/reginold/slack-bot-agentic/internal/metrics"
)

const (
	DefaultBaseURL    = "https://serpapi.com/search"
	DefaultNumResults = 3

	// NoResults is returned when the response carries no organic results.
	NoResults = "No results found for your query"

	noTitle   = "No title"
	noLink    = "#"
	noSnippet = "No description available"
)

// Config configures the search client.
type Config struct {
	BaseURL    string
	APIKey     string
	NumResults int
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client queries the search API.
type Client struct {
	baseURL    string
	apiKey     string
	numResults int
	httpClient *http.Client
	log        *slog.Logger
}

// New creates a search client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.NumResults <= 0 {
		cfg.NumResults = DefaultNumResults
	}
	if cfg.HTTPClient == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		numResults: cfg.NumResults,
		httpClient: cfg.HTTPClient,
		log:        cfg.Logger.With("component", "search"),
	}
}

type organicResult struct {
	Title   *string `json:"title"`
	Link    *string `json:"link"`
	Snippet *string `json:"snippet"`
}

type searchResponse struct {
	OrganicResults *[]organicResult `json:"organic_results"`
}

// Search returns up to numResults results for query. numResults <= 0 uses
// the configured default. Failures are *boterr.WebSearchError.
func (c *Client) Search(ctx context.Context, query string, numResults int) (string, error) {
	if c.apiKey == "" {
		return "", boterr.NewWebSearchError("API key missing", "Search service unavailable")
	}
	if numResults <= 0 {
		numResults = c.numResults
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", boterr.WrapWebSearchError("invalid search URL", err)
	}
	params := u.Query()
	params.Set("q", query)
	params.Set("api_key", c.apiKey)
	params.Set("num", strconv.Itoa(numResults))
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", boterr.WrapWebSearchError("Network error", c.redact(err))
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.UpstreamLatency.WithLabelValues("search").Observe(time.Since(start).Seconds())
	if err != nil {
		return "", boterr.WrapWebSearchError("Network error", c.redact(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", boterr.WrapWebSearchError("Network error",
			fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", boterr.WrapWebSearchError("Network error", fmt.Errorf("decode response: %w", err))
	}

	if payload.OrganicResults == nil {
		c.log.Debug("no organic results", "query", query)
		return NoResults, nil
	}
	return formatResults(*payload.OrganicResults, numResults), nil
}

func formatResults(results []organicResult, limit int) string {
	if len(results) > limit {
		results = results[:limit]
	}

	entries := make([]string, 0, len(results))
	for i, r := range results {
		title := valueOr(r.Title, noTitle, true)
		link := valueOr(r.Link, noLink, false)
		snippet := valueOr(r.Snippet, noSnippet, true)
		entries = append(entries, fmt.Sprintf("%d. [%s](%s)\n   %s", i+1, title, link, snippet))
	}
	return strings.Join(entries, "\n\n")
}

// valueOr returns the default only for a missing field; a present empty
// string is kept.
func valueOr(s *string, def string, plain bool) string {
	if s == nil {
		return def
	}
	if plain {
		return plainText(*s)
	}
	return *s
}

// plainText strips tags and decodes entities from an HTML fragment.
func plainText(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// redact removes the API key from a transport error's URL.
func (c *Client) redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		redacted := *urlErr
		redacted.URL = strings.ReplaceAll(urlErr.URL, url.QueryEscape(c.apiKey), "REDACTED")
		return &redacted
	}
	return err
}
