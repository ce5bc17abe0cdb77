// Package boterr defines the failures the bot can report back to a chat user.
//
// Every error here carries two messages: the diagnostic text returned by
// Error(), which is for logs only, and a user-facing message built from a
// static template. Only the latter may be posted into a conversation.
package boterr

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Error codes attached to the diagnostic text.
const (
	CodeAPI    = "API_ERROR"
	CodeModel  = "MODEL_ERROR"
	CodeSearch = "SEARCH_ERROR"
)

// Reason selects the user-facing template for a model failure.
type Reason string

const (
	ReasonNotFound       Reason = "model_not_found"
	ReasonDeprecated     Reason = "model_deprecated"
	ReasonAPIUnavailable Reason = "model_api_unavailable"
)

// User-facing message templates. %[1]s is the model, %[2]s the model list.
var templates = map[Reason]string{
	ReasonNotFound:       "Sorry, the model '%[1]s' is not available. Available models are: %[2]s",
	ReasonDeprecated:     "The model '%[1]s' is no longer supported. Please use one of these active models: %[2]s",
	ReasonAPIUnavailable: "The requested model '%[1]s' is not currently available. Available models: %[2]s",
}

const (
	apiErrorMessage       = "Sorry, I'm having trouble accessing the model API right now. Please try again later."
	defaultSearchMessage  = "Web search failed. Please try again later."
	genericFailureMessage = "Sorry, something went wrong while handling your request. Please try again later."
)

// UserFacing is implemented by every error in the taxonomy.
type UserFacing interface {
	error
	Code() string
	UserMessage() string
}

// UserMessage returns the user-facing message of the first taxonomy error in
// err's chain.
func UserMessage(err error) (string, bool) {
	var uf UserFacing
	if errors.As(err, &uf) {
		return uf.UserMessage(), true
	}
	return "", false
}

// GenericMessage is what the boundary posts for failures outside the taxonomy.
func GenericMessage() string {
	return genericFailureMessage
}

// APIError is a transport or provider failure talking to the completion API.
type APIError struct {
	Message    string
	StatusCode int    // 0 when no response was received
	Body       string // response body, if any
	Err        error
}

// NewAPIError builds an APIError from an HTTP status and body.
func NewAPIError(message string, status int, body string) *APIError {
	return &APIError{Message: message, StatusCode: status, Body: body}
}

// WrapAPIError builds an APIError around a lower-level failure.
func WrapAPIError(message string, err error) *APIError {
	return &APIError{Message: message, Err: err}
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", CodeAPI, e.Message)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status=%d", e.StatusCode)
		if e.Body != "" {
			fmt.Fprintf(&b, " body=%q", truncate(e.Body, 512))
		}
		b.WriteString(")")
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *APIError) Unwrap() error       { return e.Err }
func (e *APIError) Code() string        { return CodeAPI }
func (e *APIError) UserMessage() string { return apiErrorMessage }

// ModelNotAvailableError reports a requested model missing from the known list.
type ModelNotAvailableError struct {
	Message   string
	Model     string
	Available []string
	Reason    Reason
}

// NewModelNotAvailable builds a ModelNotAvailableError. An unknown reason
// falls back to ReasonNotFound.
func NewModelNotAvailable(message, model string, available []string, reason Reason) *ModelNotAvailableError {
	if _, ok := templates[reason]; !ok {
		reason = ReasonNotFound
	}
	return &ModelNotAvailableError{
		Message:   message,
		Model:     model,
		Available: append([]string(nil), available...),
		Reason:    reason,
	}
}

func (e *ModelNotAvailableError) Error() string {
	return fmt.Sprintf("%s: %s (model=%q reason=%s available=[%s])",
		CodeModel, e.Message, e.Model, e.Reason, strings.Join(e.Available, ", "))
}

func (e *ModelNotAvailableError) Code() string { return CodeModel }

func (e *ModelNotAvailableError) UserMessage() string {
	return fmt.Sprintf(templates[e.Reason], e.Model, strings.Join(e.Available, ", "))
}

// WebSearchError is a search-specific configuration or transport failure.
type WebSearchError struct {
	Message string
	User    string // user-facing text; empty means the default message
	Err     error
}

// NewWebSearchError builds a WebSearchError with an explicit user message.
func NewWebSearchError(message, user string) *WebSearchError {
	return &WebSearchError{Message: message, User: user}
}

// WrapWebSearchError builds a WebSearchError with the default user message.
func WrapWebSearchError(message string, err error) *WebSearchError {
	return &WebSearchError{Message: message, Err: err}
}

func (e *WebSearchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", CodeSearch, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", CodeSearch, e.Message)
}

func (e *WebSearchError) Unwrap() error { return e.Err }
func (e *WebSearchError) Code() string  { return CodeSearch }

func (e *WebSearchError) UserMessage() string {
	if e.User == "" {
		return defaultSearchMessage
	}
	return e.User
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
