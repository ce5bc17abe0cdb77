// Package discord provides the Discord channel adapter.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/reginold/slack-bot-agentic/internal/channels"
	"github.com/reginold/slack-bot-agentic/internal/config"
	"github.com/reginold/slack-bot-agentic/internal/logging"
)

// Discord rejects messages longer than 2000 characters.
const maxMessageLength = 2000

// Adapter implements channels.Channel for Discord. The bot answers when it
// is mentioned in a guild channel or messaged directly.
type Adapter struct {
	*channels.BaseChannel

	config  config.DiscordConfig
	session *discordgo.Session
	logger  *slog.Logger

	mu      sync.Mutex
	running bool
}

// New creates a Discord adapter.
func New(cfg config.DiscordConfig, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Adapter{
		BaseChannel: channels.NewBaseChannel("discord", cfg.Enabled),
		config:      cfg,
		logger:      logger.With("channel", "discord"),
	}
}

// Start opens the gateway session.
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return nil
	}
	if a.config.Token == "" {
		return fmt.Errorf("discord bot token is required")
	}

	session, err := discordgo.New("Bot " + a.config.Token)
	if err != nil {
		return fmt.Errorf("failed to create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if s.State == nil || s.State.User == nil {
			return
		}
		mention, ok := toMention(s.State.User.ID, m.Message)
		if !ok {
			return
		}
		if !a.Enqueue(mention) {
			a.logger.Warn("Incoming mention queue full, dropping mention", "id", m.ID)
		}
	})

	if err := session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	a.session = session
	a.running = true

	go func() {
		<-ctx.Done()
		a.Stop()
	}()

	a.logger.Info("Discord adapter started")
	return nil
}

// Stop closes the gateway session.
func (a *Adapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return nil
	}
	a.running = false
	a.logger.Info("Discord adapter stopped")
	return a.session.Close()
}

// toMention converts a message into a mention if it is addressed to the bot.
func toMention(botID string, m *discordgo.Message) (*channels.Mention, bool) {
	if m == nil || m.Author == nil || m.Author.Bot {
		return nil, false
	}
	if m.GuildID != "" && !isMentioned(botID, m.Mentions) {
		return nil, false
	}

	return &channels.Mention{
		ID:         m.ID,
		UserID:     m.Author.ID,
		ChannelID:  m.ChannelID,
		Text:       stripBotMention(botID, m.Content),
		ReceivedAt: m.Timestamp,
		Metadata: map[string]string{
			"guild_id":    m.GuildID,
			"author_name": m.Author.Username,
		},
	}, true
}

func isMentioned(botID string, mentions []*discordgo.User) bool {
	for _, mention := range mentions {
		if mention != nil && mention.ID == botID {
			return true
		}
	}
	return false
}

func stripBotMention(botID, content string) string {
	content = strings.ReplaceAll(content, "<@"+botID+">", "")
	content = strings.ReplaceAll(content, "<@!"+botID+">", "")
	return strings.TrimSpace(content)
}

// Post sends msg, replying to msg.ThreadTS when set.
func (a *Adapter) Post(ctx context.Context, channelID string, msg *channels.OutboundMessage) (string, error) {
	if a.session == nil {
		return "", channels.ErrNotConnected
	}

	send := &discordgo.MessageSend{Content: render(msg)}
	if msg.ThreadTS != "" {
		send.Reference = &discordgo.MessageReference{MessageID: msg.ThreadTS, ChannelID: channelID}
	}

	sent, err := a.session.ChannelMessageSendComplex(channelID, send, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("failed to send discord message: %w", err)
	}
	return sent.ID, nil
}

// Update edits a message the bot posted.
func (a *Adapter) Update(ctx context.Context, channelID, messageID string, msg *channels.OutboundMessage) error {
	if a.session == nil {
		return channels.ErrNotConnected
	}
	if _, err := a.session.ChannelMessageEdit(channelID, messageID, render(msg), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to edit discord message: %w", err)
	}
	return nil
}

// AddReaction reacts with the unicode form of a Slack emoji name.
func (a *Adapter) AddReaction(ctx context.Context, channelID, messageID, name string) error {
	glyph := channels.EmojiGlyph(name)
	if a.session == nil || glyph == "" {
		return nil
	}
	if err := a.session.MessageReactionAdd(channelID, messageID, glyph, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to add reaction %s: %w", name, err)
	}
	return nil
}

// RemoveReaction removes the bot's own reaction.
func (a *Adapter) RemoveReaction(ctx context.Context, channelID, messageID, name string) error {
	glyph := channels.EmojiGlyph(name)
	if a.session == nil || glyph == "" {
		return nil
	}
	if err := a.session.MessageReactionRemove(channelID, messageID, glyph, "@me", discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to remove reaction %s: %w", name, err)
	}
	return nil
}

// render flattens msg into Discord Markdown.
func render(msg *channels.OutboundMessage) string {
	return channels.Truncate(channels.MarkdownMarkup.Render(msg), maxMessageLength)
}
