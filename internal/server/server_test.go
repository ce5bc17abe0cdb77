package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reginold/slack-bot-agentic/internal/boterr"
	"github.com/reginold/slack-bot-agentic/internal/channels"
	"github.com/reginold/slack-bot-agentic/internal/models"
)

type listerFunc func(ctx context.Context) ([]string, error)

func (f listerFunc) ListModels(ctx context.Context) ([]string, error) { return f(ctx) }

type stubChannel struct{ *channels.BaseChannel }

func (stubChannel) Start(context.Context) error { return nil }
func (stubChannel) Stop() error                 { return nil }
func (stubChannel) Post(context.Context, string, *channels.OutboundMessage) (string, error) {
	return "", nil
}
func (stubChannel) Update(context.Context, string, string, *channels.OutboundMessage) error {
	return nil
}
func (stubChannel) AddReaction(context.Context, string, string, string) error    { return nil }
func (stubChannel) RemoveReaction(context.Context, string, string, string) error { return nil }

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealth_Healthy(t *testing.T) {
	v := models.NewValidator(listerFunc(func(context.Context) ([]string, error) {
		return []string{"M"}, nil
	}), models.Options{})
	v.Startup(context.Background(), "M")

	hub := channels.NewHub()
	hub.Register(stubChannel{channels.NewBaseChannel("console", true)})

	s := New("127.0.0.1:0", "1.2.3", v, hub, nil)
	rec := get(t, s.Handler(), "/health")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.True(t, resp.Services["default_model"].Healthy)
	assert.True(t, resp.Services["model_cache"].Healthy)
	assert.Equal(t, map[string]bool{"console": true}, resp.Channels)
}

func TestHealth_Degraded(t *testing.T) {
	v := models.NewValidator(listerFunc(func(context.Context) ([]string, error) {
		return nil, boterr.NewAPIError("down", 503, "")
	}), models.Options{})

	s := New("127.0.0.1:0", "dev", v, nil, nil)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(get(t, s.Handler(), "/health").Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status, "unchecked startup is degraded")

	v.Startup(context.Background(), "M")
	require.NoError(t, json.Unmarshal(get(t, s.Handler(), "/health").Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.False(t, resp.Services["default_model"].Healthy)
	assert.Contains(t, resp.Services["default_model"].Message, "503")
	assert.False(t, resp.Services["model_cache"].Healthy)
}

func TestHealth_MethodNotAllowed(t *testing.T) {
	s := New("127.0.0.1:0", "dev", nil, nil, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestModels(t *testing.T) {
	v := models.NewValidator(listerFunc(func(context.Context) ([]string, error) {
		return []string{"a", "b"}, nil
	}), models.Options{})

	s := New("127.0.0.1:0", "dev", v, nil, nil)

	var resp ModelsResponse
	require.NoError(t, json.Unmarshal(get(t, s.Handler(), "/api/v1/models").Body.Bytes(), &resp))
	assert.Empty(t, resp.Models)
	assert.Nil(t, resp.Startup)

	require.NoError(t, v.Refresh(context.Background()))
	require.NoError(t, json.Unmarshal(get(t, s.Handler(), "/api/v1/models").Body.Bytes(), &resp))
	assert.Equal(t, []string{"a", "b"}, resp.Models)
	assert.NotEmpty(t, resp.UpdatedAt)
}

func TestMetricsEndpoint(t *testing.T) {
	v := models.NewValidator(listerFunc(func(context.Context) ([]string, error) {
		return nil, errors.New("x")
	}), models.Options{})
	v.Startup(context.Background(), "M")

	s := New("127.0.0.1:0", "dev", v, nil, nil)
	rec := get(t, s.Handler(), "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "slackbot_startup_model_valid"))
}
