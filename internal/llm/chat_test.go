package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reginold/slack-bot-agentic/internal/boterr"
	"github.com/reginold/slack-bot-agentic/internal/provider"
)

type stubValidator struct {
	err   error
	names []string
}

func (s *stubValidator) Validate(ctx context.Context, name string, useCache bool) error {
	s.names = append(s.names, name)
	return s.err
}

type stubCompleter struct {
	answer   string
	err      error
	calls    int
	model    string
	messages []provider.Message
}

func (s *stubCompleter) ChatCompletion(ctx context.Context, model string, messages []provider.Message) (string, error) {
	s.calls++
	s.model = model
	s.messages = messages
	return s.answer, s.err
}

func TestChat(t *testing.T) {
	v := &stubValidator{}
	comp := &stubCompleter{answer: "42"}
	c := NewClient(v, comp, "default-model", "You are a helpful assistant", nil)

	out, err := c.Chat(context.Background(), "meaning of life?", "")
	require.NoError(t, err)
	assert.Equal(t, "42", out)

	assert.Equal(t, []string{"default-model"}, v.names)
	assert.Equal(t, "default-model", comp.model)
	assert.Equal(t, []provider.Message{
		{Role: "system", Content: "You are a helpful assistant"},
		{Role: "user", Content: "meaning of life?"},
	}, comp.messages)
}

func TestChat_ExplicitModel(t *testing.T) {
	v := &stubValidator{}
	comp := &stubCompleter{answer: "ok"}
	c := NewClient(v, comp, "default-model", "sys", nil)

	_, err := c.Chat(context.Background(), "q", "other")
	require.NoError(t, err)
	assert.Equal(t, []string{"other"}, v.names)
	assert.Equal(t, "other", comp.model)
}

func TestChat_ValidationFailureSkipsRequest(t *testing.T) {
	notAvail := boterr.NewModelNotAvailable("missing", "x", []string{"a"}, boterr.ReasonNotFound)
	comp := &stubCompleter{}
	c := NewClient(&stubValidator{err: notAvail}, comp, "x", "sys", nil)

	_, err := c.Chat(context.Background(), "q", "")
	assert.Same(t, notAvail, err)
	assert.Equal(t, 0, comp.calls)
}

func TestChat_CompletionError(t *testing.T) {
	apiErr := boterr.NewAPIError("boom", 500, "")
	c := NewClient(&stubValidator{}, &stubCompleter{err: apiErr}, "m", "sys", nil)

	_, err := c.Chat(context.Background(), "q", "")
	var got *boterr.APIError
	require.True(t, errors.As(err, &got))
	assert.Equal(t, 500, got.StatusCode)
}
