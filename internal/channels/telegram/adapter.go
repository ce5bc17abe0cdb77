// Package telegram provides the Telegram channel adapter (long polling).
package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/reginold/slack-bot-agentic/internal/channels"
	"github.com/reginold/slack-bot-agentic/internal/config"
	"github.com/reginold/slack-bot-agentic/internal/logging"
)

// Telegram rejects messages longer than 4096 characters.
const maxMessageLength = 4096

// Option configures an Adapter.
type Option func(*Adapter)

// WithAPIEndpoint overrides the Bot API endpoint format, e.g.
// "http://127.0.0.1:8081/bot%s/%s".
func WithAPIEndpoint(endpoint string) Option {
	return func(a *Adapter) { a.endpoint = endpoint }
}

// Adapter implements channels.Channel for Telegram. The bot answers in
// private chats and when its @username appears in a group message.
// Telegram bots cannot react, so reactions are no-ops.
type Adapter struct {
	*channels.BaseChannel

	config   config.TelegramConfig
	endpoint string
	logger   *slog.Logger

	mu      sync.Mutex
	bot     *tgbotapi.BotAPI
	running bool
}

// New creates a Telegram adapter.
func New(cfg config.TelegramConfig, logger *slog.Logger, opts ...Option) *Adapter {
	if logger == nil {
		logger = logging.Discard()
	}
	a := &Adapter{
		BaseChannel: channels.NewBaseChannel("telegram", cfg.Enabled),
		config:      cfg,
		endpoint:    tgbotapi.APIEndpoint,
		logger:      logger.With("channel", "telegram"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// connect authenticates the bot (getMe).
func (a *Adapter) connect() error {
	if a.config.Token == "" {
		return fmt.Errorf("telegram bot token is required")
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(a.config.Token, a.endpoint)
	if err != nil {
		return fmt.Errorf("failed to connect telegram bot: %w", err)
	}
	a.bot = bot
	return nil
}

// Start connects and begins long polling for updates.
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return nil
	}
	if err := a.connect(); err != nil {
		return err
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := a.bot.GetUpdatesChan(u)
	a.running = true

	go func() {
		for {
			select {
			case <-ctx.Done():
				a.Stop()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				a.handleUpdate(update)
			}
		}
	}()

	a.logger.Info("Telegram adapter started", "username", a.bot.Self.UserName)
	return nil
}

// Stop ends long polling.
func (a *Adapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return nil
	}
	a.running = false
	a.bot.StopReceivingUpdates()
	a.logger.Info("Telegram adapter stopped")
	return nil
}

func (a *Adapter) handleUpdate(update tgbotapi.Update) {
	m, ok := toMention(a.bot.Self.UserName, update.Message)
	if !ok {
		return
	}
	if !a.Enqueue(m) {
		a.logger.Warn("Incoming mention queue full, dropping mention", "id", m.ID)
	}
}

// toMention converts a message into a mention if it is addressed to the bot.
func toMention(username string, msg *tgbotapi.Message) (*channels.Mention, bool) {
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return nil, false
	}
	if msg.From != nil && msg.From.IsBot {
		return nil, false
	}

	handle := "@" + username
	if !msg.Chat.IsPrivate() && (username == "" || !strings.Contains(msg.Text, handle)) {
		return nil, false
	}

	m := &channels.Mention{
		ID:         strconv.Itoa(msg.MessageID),
		ChannelID:  strconv.FormatInt(msg.Chat.ID, 10),
		Text:       strings.TrimSpace(strings.ReplaceAll(msg.Text, handle, "")),
		ReceivedAt: msg.Time(),
		Metadata:   map[string]string{"chat_type": msg.Chat.Type},
	}
	if msg.From != nil {
		m.UserID = strconv.FormatInt(msg.From.ID, 10)
	}
	return m, true
}

// Post sends msg as plain text, replying to msg.ThreadTS when set.
func (a *Adapter) Post(ctx context.Context, channelID string, msg *channels.OutboundMessage) (string, error) {
	if a.bot == nil {
		return "", channels.ErrNotConnected
	}
	chatID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid telegram chat id %q: %w", channelID, err)
	}

	out := tgbotapi.NewMessage(chatID, render(msg))
	if msg.ThreadTS != "" {
		if replyTo, err := strconv.Atoi(msg.ThreadTS); err == nil {
			out.ReplyToMessageID = replyTo
		}
	}

	sent, err := a.bot.Send(out)
	if err != nil {
		return "", fmt.Errorf("failed to send telegram message: %w", err)
	}
	return strconv.Itoa(sent.MessageID), nil
}

// Update edits a message the bot posted.
func (a *Adapter) Update(ctx context.Context, channelID, messageID string, msg *channels.OutboundMessage) error {
	if a.bot == nil {
		return channels.ErrNotConnected
	}
	chatID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", channelID, err)
	}
	id, err := strconv.Atoi(messageID)
	if err != nil {
		return fmt.Errorf("invalid telegram message id %q: %w", messageID, err)
	}

	if _, err := a.bot.Request(tgbotapi.NewEditMessageText(chatID, id, render(msg))); err != nil {
		return fmt.Errorf("failed to edit telegram message: %w", err)
	}
	return nil
}

// AddReaction is a no-op.
func (a *Adapter) AddReaction(ctx context.Context, channelID, messageID, name string) error {
	return nil
}

// RemoveReaction is a no-op.
func (a *Adapter) RemoveReaction(ctx context.Context, channelID, messageID, name string) error {
	return nil
}

func render(msg *channels.OutboundMessage) string {
	return channels.Truncate(channels.PlainMarkup.Render(msg), maxMessageLength)
}
