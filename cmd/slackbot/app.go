package main

import (
	"fmt"

	"github.com/reginold/slack-bot-agentic/internal/config"
	"github.com/reginold/slack-bot-agentic/internal/handler"
	"github.com/reginold/slack-bot-agentic/internal/llm"
	"github.com/reginold/slack-bot-agentic/internal/logging"
	"github.com/reginold/slack-bot-agentic/internal/models"
	"github.com/reginold/slack-bot-agentic/internal/provider"
	"github.com/reginold/slack-bot-agentic/internal/search"
)

// app is the wiring shared by every command.
type app struct {
	cfg       *config.Config
	logger    *logging.Logger
	provider  *provider.Client
	validator *models.Validator
	chat      *llm.Client
	search    *search.Client
	handler   *handler.Handler
}

// loadConfig reads configuration and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// newApp builds the core components. A missing API key is fatal here.
func newApp(cfg *config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.NewWithConfig(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.File)

	prov := provider.New(provider.Config{
		BaseURL: cfg.Provider.BaseURL,
		APIKey:  cfg.Provider.APIKey,
		Timeout: cfg.Provider.Timeout,
	})

	validator := models.NewValidator(prov, models.Options{
		TTL:        cfg.Models.CacheTTL,
		Deprecated: cfg.Models.Deprecated,
		Logger:     logger.Logger,
	})

	chat := llm.NewClient(validator, prov, cfg.Provider.DefaultModel, cfg.Provider.SystemPrompt, logger.Logger)

	searcher := search.New(search.Config{
		BaseURL:    cfg.Search.BaseURL,
		APIKey:     cfg.Search.APIKey,
		NumResults: cfg.Search.NumResults,
		Timeout:    cfg.Search.Timeout,
		Logger:     logger.Logger,
	})
	if cfg.Search.APIKey == "" {
		logger.Warn("SEARCH_API_KEY is not set; web search requests will fail")
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		provider:  prov,
		validator: validator,
		chat:      chat,
		search:    searcher,
		handler:   handler.New(chat, searcher, logger.Logger),
	}, nil
}

func (a *app) Close() error {
	return a.logger.Close()
}
