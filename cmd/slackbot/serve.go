package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/reginold/slack-bot-agentic/internal/channels"
	"github.com/reginold/slack-bot-agentic/internal/channels/discord"
	"github.com/reginold/slack-bot-agentic/internal/channels/slack"
	"github.com/reginold/slack-bot-agentic/internal/channels/telegram"
	"github.com/reginold/slack-bot-agentic/internal/config"
	"github.com/reginold/slack-bot-agentic/internal/handler"
	"github.com/reginold/slack-bot-agentic/internal/logging"
	"github.com/reginold/slack-bot-agentic/internal/scheduler"
	"github.com/reginold/slack-bot-agentic/internal/server"
	"github.com/reginold/slack-bot-agentic/internal/version"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Connect to the configured chat platforms and answer mentions",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := a.logger
	log.Info("slackbot starting", "version", version.Version, "default_model", cfg.Provider.DefaultModel)

	a.validator.Startup(ctx, cfg.Provider.DefaultModel)

	hub := buildHub(cfg, a.logger)
	defer func() {
		if err := hub.StopAll(); err != nil {
			log.Warn("error stopping channels", "error", err)
		}
	}()

	sched, err := scheduler.New(cfg.Models.RefreshSchedule, a.validator, a.logger.Component("scheduler"))
	if err != nil {
		return fmt.Errorf("invalid models.refresh_schedule: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	if err := hub.StartAll(ctx); err != nil {
		if errors.Is(err, channels.ErrChannelDisabled) {
			return errors.New("no channel is enabled; set channels.slack.enabled or another channel in the config")
		}
		return fmt.Errorf("failed to start channels: %w", err)
	}

	dispatcher := handler.NewDispatcher(a.handler, hub, a.logger.Logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return dispatcher.Run(gctx, hub.Incoming())
	})

	if cfg.Server.Enabled {
		srv := server.New(cfg.Server.Addr, version.Version, a.validator, hub, a.logger.Component("server"))
		g.Go(srv.Start)
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	log.Info("slackbot ready")
	err = g.Wait()
	log.Info("slackbot stopped")
	return err
}

// buildHub registers an adapter for every enabled platform.
func buildHub(cfg *config.Config, logger *logging.Logger) *channels.Hub {
	hub := channels.NewHub()
	if cfg.Channels.Slack.Enabled {
		hub.Register(slack.New(cfg.Channels.Slack, logger.Component("slack")))
	}
	if cfg.Channels.Discord.Enabled {
		hub.Register(discord.New(cfg.Channels.Discord, logger.Component("discord")))
	}
	if cfg.Channels.Telegram.Enabled {
		hub.Register(telegram.New(cfg.Channels.Telegram, logger.Component("telegram")))
	}
	return hub
}
