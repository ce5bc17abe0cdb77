// Package provider is a minimal client for OpenAI-compatible inference APIs.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/reginold/slack-bot-agentic/internal/boterr"
	"github.com/reginold/slack-bot-agentic/internal/metrics"
)

// maxErrorBody caps how much of an error response is kept for diagnostics.
const maxErrorBody = 4096

// Config holds OpenAI-compatible client configuration
type Config struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client // optional, overrides Timeout
}

// Client talks to the /models and /chat/completions endpoints.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New creates a new OpenAI-compatible client
func New(cfg Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 120 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: hc,
	}
}

// HasAPIKey reports whether an API key is configured.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message *struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type modelsResponse struct {
	Data *[]struct {
		ID string `json:"id"`
	} `json:"data"`
}

// ListModels returns the provider's model ids in response order.
// All failures are *boterr.APIError.
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, boterr.WrapAPIError("failed to build model list request", err)
	}
	c.setAuthHeader(req)

	body, err := c.do(req, "models")
	if err != nil {
		return nil, err
	}

	var payload modelsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, boterr.WrapAPIError("failed to decode model list", err)
	}
	if payload.Data == nil {
		return nil, boterr.NewAPIError("model list response has no data field", http.StatusOK, string(body))
	}

	ids := make([]string, 0, len(*payload.Data))
	for _, m := range *payload.Data {
		ids = append(ids, m.ID)
	}
	return ids, nil
}

// ChatCompletion sends one non-streaming completion request and returns the
// first choice's content. All failures are *boterr.APIError.
func (c *Client) ChatCompletion(ctx context.Context, model string, messages []Message) (string, error) {
	if !c.HasAPIKey() {
		return "", boterr.NewAPIError("API key is not configured", 0, "")
	}

	payload, err := json.Marshal(chatRequest{Model: model, Messages: messages})
	if err != nil {
		return "", boterr.WrapAPIError("failed to marshal completion request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", boterr.WrapAPIError("failed to build completion request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setAuthHeader(req)

	body, err := c.do(req, "chat_completions")
	if err != nil {
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", boterr.WrapAPIError("failed to decode completion response", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message == nil || resp.Choices[0].Message.Content == nil {
		return "", boterr.NewAPIError("unexpected completion response shape", http.StatusOK, string(body))
	}

	return *resp.Choices[0].Message.Content, nil
}

// do executes req and returns the body of a 2xx response.
func (c *Client) do(req *http.Request, endpoint string) ([]byte, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.UpstreamLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, boterr.WrapAPIError(fmt.Sprintf("%s request failed", endpoint), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, boterr.NewAPIError(fmt.Sprintf("%s returned an error status", endpoint), resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, boterr.WrapAPIError(fmt.Sprintf("failed to read %s response", endpoint), err)
	}
	return body, nil
}

// setAuthHeader adds authentication header if a key is configured.
func (c *Client) setAuthHeader(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
