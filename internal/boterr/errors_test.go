package boterr

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError_Messages(t *testing.T) {
	err := NewAPIError("failed to fetch models from API", 502, `{"error":"bad gateway","key":"sk-secret"}`)

	assert.Contains(t, err.Error(), "API_ERROR")
	assert.Contains(t, err.Error(), "status=502")
	assert.Contains(t, err.Error(), "bad gateway")
	assert.Equal(t, CodeAPI, err.Code())

	user := err.UserMessage()
	assert.Equal(t, "Sorry, I'm having trouble accessing the model API right now. Please try again later.", user)
	assert.NotContains(t, user, "sk-secret")
	assert.NotContains(t, user, "bad gateway")
}

func TestAPIError_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := WrapAPIError("request failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
	assert.NotContains(t, err.UserMessage(), "connection refused")
}

func TestAPIError_BodyTruncatedOnRuneBoundary(t *testing.T) {
	body := strings.Repeat("a", 511) + "é" + strings.Repeat("b", 100)
	err := NewAPIError("bad response", 500, body)

	msg := err.Error()
	assert.True(t, utf8.ValidString(msg))
	assert.Contains(t, msg, strings.Repeat("a", 511)+"...")
	assert.NotContains(t, msg, "é")

	assert.Equal(t, "ab...", truncate("abé", 3))
	assert.Equal(t, "abé", truncate("abé", 4))
}

func TestModelNotAvailable_Templates(t *testing.T) {
	tests := []struct {
		reason Reason
		want   string
	}{
		{ReasonNotFound, "Sorry, the model 'gpt-x' is not available. Available models are: a, b"},
		{ReasonDeprecated, "The model 'gpt-x' is no longer supported. Please use one of these active models: a, b"},
		{ReasonAPIUnavailable, "The requested model 'gpt-x' is not currently available. Available models: a, b"},
		{Reason("bogus"), "Sorry, the model 'gpt-x' is not available. Available models are: a, b"},
	}

	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			err := NewModelNotAvailable("not in list", "gpt-x", []string{"a", "b"}, tt.reason)
			assert.Equal(t, tt.want, err.UserMessage())
			assert.Equal(t, CodeModel, err.Code())
			assert.Contains(t, err.Error(), `model="gpt-x"`)
		})
	}
}

func TestModelNotAvailable_CopiesList(t *testing.T) {
	models := []string{"a", "b"}
	err := NewModelNotAvailable("missing", "c", models, ReasonNotFound)
	models[0] = "changed"

	assert.Equal(t, []string{"a", "b"}, err.Available)
}

func TestWebSearchError_UserMessage(t *testing.T) {
	missing := NewWebSearchError("API key missing", "Search service unavailable")
	assert.Equal(t, "Search service unavailable", missing.UserMessage())
	assert.Equal(t, "SEARCH_ERROR: API key missing", missing.Error())

	wrapped := WrapWebSearchError("Network error", errors.New("dial tcp: timeout"))
	assert.Equal(t, "Web search failed. Please try again later.", wrapped.UserMessage())
	assert.Contains(t, wrapped.Error(), "dial tcp: timeout")
}

func TestUserMessage(t *testing.T) {
	wrapped := fmt.Errorf("chat: %w", NewModelNotAvailable("missing", "m", nil, ReasonNotFound))

	msg, ok := UserMessage(wrapped)
	require.True(t, ok)
	assert.Equal(t, "Sorry, the model 'm' is not available. Available models are: ", msg)

	_, ok = UserMessage(errors.New("plain failure"))
	assert.False(t, ok)

	_, ok = UserMessage(nil)
	assert.False(t, ok)
}

func TestAs_DistinctKinds(t *testing.T) {
	var err error = WrapWebSearchError("Network error", errors.New("boom"))

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))

	var searchErr *WebSearchError
	assert.True(t, errors.As(err, &searchErr))
}
