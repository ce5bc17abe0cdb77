// Package logging tests
package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	logger := New()
	require.NotNil(t, logger)
	require.NotNil(t, logger.Logger)
	assert.NoError(t, logger.Close())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "debug", "json")

	logger.Component("models").Debug("cache refreshed", "count", 3)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "cache refreshed", entry["msg"])
	assert.Equal(t, "models", entry["component"])
	assert.Equal(t, float64(3), entry["count"])
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "warn", "text")

	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
}

func TestNewWithConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bot.log")

	logger := NewWithConfig("info", "text", path)
	logger.Info("written to file")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "written to file"))
}

func TestNewWithConfig_BadFileFallsBack(t *testing.T) {
	logger := NewWithConfig("info", "text", filepath.Join(t.TempDir(), "missing", "bot.log"))
	require.NotNil(t, logger)
	logger.Info("goes to stderr")
	assert.NoError(t, logger.Close())
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	require.NotNil(t, logger)
	logger.Error("dropped")
}
