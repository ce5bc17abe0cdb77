package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/reginold/slack-bot-agentic/internal/channels"
	"github.com/reginold/slack-bot-agentic/internal/console"
	"github.com/reginold/slack-bot-agentic/internal/handler"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Chat with the bot in the terminal",
	Long: `console opens a local chat window. Every line you type is handled
like a mention, so routing, validation and formatting behave as they do on
Slack.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		// The TUI owns the terminal, so logs go to the configured file or nowhere.
		if cfg.Logging.File == "" {
			cfg.Logging.Level = "error"
		}
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		a.validator.Startup(ctx, cfg.Provider.DefaultModel)

		ch := console.New()
		hub := channels.NewHub()
		hub.Register(ch)
		defer hub.StopAll()

		if err := hub.StartAll(ctx); err != nil {
			return err
		}

		dispatcher := handler.NewDispatcher(a.handler, hub, a.logger.Logger)
		go dispatcher.Run(ctx, hub.Incoming())

		return ch.Run(ctx)
	},
}
