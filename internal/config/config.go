// Package config handles bot configuration loading and management
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults used when neither the config file nor the environment sets a value.
const (
	DefaultBaseURL      = "https://api.sambanova.ai/v1"
	DefaultModel        = "Meta-Llama-3.3-70B-Instruct"
	DefaultSystemPrompt = "You are a helpful assistant"
	DefaultSearchURL    = "https://serpapi.com/search"
	DefaultCacheTTL     = 300 * time.Second
	DefaultNumResults   = 3
)

// ErrMissingAPIKey is returned by Validate when no completion API key is set.
var ErrMissingAPIKey = errors.New("API_KEY is not set")

// Config holds all bot configuration
type Config struct {
	Version  int            `yaml:"version"`
	Provider ProviderConfig `yaml:"provider"`
	Models   ModelsConfig   `yaml:"models"`
	Search   SearchConfig   `yaml:"search"`
	Channels ChannelsConfig `yaml:"channels"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ProviderConfig configures the OpenAI-compatible completion provider
type ProviderConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	DefaultModel string        `yaml:"default_model"`
	SystemPrompt string        `yaml:"system_prompt"`
	Timeout      time.Duration `yaml:"timeout"`
}

// ModelsConfig configures model validation
type ModelsConfig struct {
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	RefreshSchedule string        `yaml:"refresh_schedule"` // cron spec, empty disables
	Deprecated      []string      `yaml:"deprecated"`
}

// SearchConfig configures the web search client
type SearchConfig struct {
	BaseURL    string        `yaml:"base_url"`
	APIKey     string        `yaml:"api_key"`
	NumResults int           `yaml:"num_results"`
	Timeout    time.Duration `yaml:"timeout"`
}

// ChannelsConfig configures messaging channels
type ChannelsConfig struct {
	Slack    SlackConfig    `yaml:"slack"`
	Discord  DiscordConfig  `yaml:"discord"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// SlackConfig for the Slack bot (socket mode)
type SlackConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Token    string `yaml:"token"`
	AppToken string `yaml:"app_token"`
	Debug    bool   `yaml:"debug"`
}

// DiscordConfig for the Discord bot
type DiscordConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// TelegramConfig for the Telegram bot
type TelegramConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token"`
}

// ServerConfig configures the health and metrics endpoint
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Version: 1,
		Provider: ProviderConfig{
			BaseURL:      DefaultBaseURL,
			DefaultModel: DefaultModel,
			SystemPrompt: DefaultSystemPrompt,
			Timeout:      2 * time.Minute,
		},
		Models: ModelsConfig{
			CacheTTL: DefaultCacheTTL,
		},
		Search: SearchConfig{
			BaseURL:    DefaultSearchURL,
			NumResults: DefaultNumResults,
			Timeout:    30 * time.Second,
		},
		Channels: ChannelsConfig{
			Slack:    SlackConfig{Enabled: true},
			Discord:  DiscordConfig{Enabled: false},
			Telegram: TelegramConfig{Enabled: false},
		},
		Server: ServerConfig{
			Enabled: true,
			Addr:    "127.0.0.1:18810",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultPath returns the config file used when no path is given.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(home, ".slackbot", "config.yaml")
}

// Load reads configuration from file and applies environment overrides.
// An empty path means DefaultPath; a missing default file is not an error.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv overlays the recognized environment variables.
func (c *Config) applyEnv() {
	setFromEnv(&c.Provider.APIKey, "API_KEY")
	setFromEnv(&c.Search.APIKey, "SERPAPI_KEY")
	setFromEnv(&c.Search.APIKey, "SEARCH_API_KEY")
	setFromEnv(&c.Channels.Slack.Token, "SLACK_BOT_TOKEN")
	setFromEnv(&c.Channels.Slack.AppToken, "SLACK_APP_TOKEN")
	setFromEnv(&c.Channels.Discord.Token, "DISCORD_BOT_TOKEN")
	setFromEnv(&c.Channels.Telegram.Token, "TELEGRAM_BOT_TOKEN")
	setFromEnv(&c.Logging.Level, "LOG_LEVEL")
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks the settings the completion path cannot run without.
func (c *Config) Validate() error {
	if c.Provider.APIKey == "" {
		return ErrMissingAPIKey
	}
	if c.Provider.BaseURL == "" {
		return errors.New("provider.base_url is required")
	}
	if c.Provider.DefaultModel == "" {
		return errors.New("provider.default_model is required")
	}
	if c.Models.CacheTTL <= 0 {
		return fmt.Errorf("models.cache_ttl must be positive, got %s", c.Models.CacheTTL)
	}
	return nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	if path == "" {
		path = DefaultPath()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}
