// Package llm answers a single user query with the hosted completion model.
package llm

import (
	"context"
	"log/slog"
	"time"

	"github.com/reginold/slack-bot-agentic/internal/logging"
	"github.com/reginold/slack-bot-agentic/internal/provider"
)

// ModelValidator checks a model name before it is used.
type ModelValidator interface {
	Validate(ctx context.Context, name string, useCache bool) error
}

// Completer sends one chat completion request.
type Completer interface {
	ChatCompletion(ctx context.Context, model string, messages []provider.Message) (string, error)
}

// Client pairs model validation with the completion call.
type Client struct {
	validator    ModelValidator
	completer    Completer
	defaultModel string
	systemPrompt string
	log          *slog.Logger
}

// NewClient creates a completion client. A nil logger discards output.
func NewClient(v ModelValidator, c Completer, defaultModel, systemPrompt string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		validator:    v,
		completer:    c,
		defaultModel: defaultModel,
		systemPrompt: systemPrompt,
		log:          logger.With("component", "llm"),
	}
}

// DefaultModel returns the model used when Chat is given none.
func (c *Client) DefaultModel() string {
	return c.defaultModel
}

// Chat validates model (the default when empty) and returns the model's
// answer to query. Validation errors are returned as is and no completion
// request is made.
func (c *Client) Chat(ctx context.Context, query, model string) (string, error) {
	if model == "" {
		model = c.defaultModel
	}

	if err := c.validator.Validate(ctx, model, true); err != nil {
		return "", err
	}

	start := time.Now()
	answer, err := c.completer.ChatCompletion(ctx, model, []provider.Message{
		{Role: "system", Content: c.systemPrompt},
		{Role: "user", Content: query},
	})
	if err != nil {
		return "", err
	}

	c.log.Debug("completion received", "model", model, "duration", time.Since(start), "chars", len(answer))
	return answer, nil
}
