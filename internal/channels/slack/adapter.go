// Package slack provides the Slack channel adapter (Socket Mode).
package slack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"github.com/reginold/slack-bot-agentic/internal/channels"
	"github.com/reginold/slack-bot-agentic/internal/config"
	"github.com/reginold/slack-bot-agentic/internal/format"
	"github.com/reginold/slack-bot-agentic/internal/logging"
)

// Slack rejects section text over 3000 characters.
const maxSectionText = 2900

// leadingMentions matches the "<@U123>" tokens Slack puts in front of an
// app_mention's text.
var leadingMentions = regexp.MustCompile(`^(\s*<@[A-Z0-9]+(\|[^>]*)?>)+\s*`)

// Adapter implements the channels.Channel interface for Slack
type Adapter struct {
	*channels.BaseChannel

	config config.SlackConfig
	client *slack.Client
	socket *socketmode.Client
	logger *slog.Logger

	// State
	running bool
	mu      sync.Mutex
	cancel  context.CancelFunc
}

// New creates a new Slack adapter. Extra client options are passed to
// slack.New, e.g. slack.OptionAPIURL in tests.
func New(cfg config.SlackConfig, logger *slog.Logger, opts ...slack.Option) *Adapter {
	if logger == nil {
		logger = logging.Discard()
	}

	opts = append([]slack.Option{
		slack.OptionAppLevelToken(cfg.AppToken),
		slack.OptionDebug(cfg.Debug),
	}, opts...)

	return &Adapter{
		BaseChannel: channels.NewBaseChannel("slack", cfg.Enabled),
		config:      cfg,
		client:      slack.New(cfg.Token, opts...),
		logger:      logger.With("channel", "slack"),
	}
}

// Start opens the Socket Mode connection and begins delivering mentions.
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return nil
	}

	if a.config.Token == "" {
		return fmt.Errorf("slack bot token is required")
	}
	if a.config.AppToken == "" {
		return fmt.Errorf("slack app token is required for socket mode")
	}

	a.socket = socketmode.New(a.client, socketmode.OptionDebug(a.config.Debug))

	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.running = true

	go a.handleEvents(ctx)

	go func() {
		if err := a.socket.RunContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("Socket Mode error", "error", err)
		}
	}()

	a.logger.Info("Slack adapter started")
	return nil
}

// Stop gracefully shuts down the Slack adapter
func (a *Adapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return nil
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.running = false
	a.logger.Info("Slack adapter stopped")
	return nil
}

// Post sends msg to a channel, threaded under msg.ThreadTS when set, and
// returns the message timestamp.
func (a *Adapter) Post(ctx context.Context, channelID string, msg *channels.OutboundMessage) (string, error) {
	opts := a.messageOptions(msg)
	if msg.ThreadTS != "" {
		opts = append(opts, slack.MsgOptionTS(msg.ThreadTS))
	}

	_, ts, err := a.client.PostMessageContext(ctx, channelID, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to send slack message: %w", err)
	}
	return ts, nil
}

// Update replaces an existing message.
func (a *Adapter) Update(ctx context.Context, channelID, messageID string, msg *channels.OutboundMessage) error {
	_, _, _, err := a.client.UpdateMessageContext(ctx, channelID, messageID, a.messageOptions(msg)...)
	if err != nil {
		return fmt.Errorf("failed to update slack message: %w", err)
	}
	return nil
}

// AddReaction adds an emoji reaction. An existing reaction is not an error.
func (a *Adapter) AddReaction(ctx context.Context, channelID, messageID, name string) error {
	err := a.client.AddReactionContext(ctx, name, slack.NewRefToMessage(channelID, messageID))
	if err != nil && !isSlackError(err, "already_reacted") {
		return fmt.Errorf("failed to add reaction %s: %w", name, err)
	}
	return nil
}

// RemoveReaction removes an emoji reaction. A missing reaction is not an error.
func (a *Adapter) RemoveReaction(ctx context.Context, channelID, messageID, name string) error {
	err := a.client.RemoveReactionContext(ctx, name, slack.NewRefToMessage(channelID, messageID))
	if err != nil && !isSlackError(err, "no_reaction") {
		return fmt.Errorf("failed to remove reaction %s: %w", name, err)
	}
	return nil
}

func isSlackError(err error, code string) bool {
	var resp slack.SlackErrorResponse
	if errors.As(err, &resp) {
		return resp.Err == code
	}
	return err.Error() == code
}

// handleEvents processes incoming Socket Mode events
func (a *Adapter) handleEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-a.socket.Events:
			if !ok {
				return
			}
			switch evt.Type {
			case socketmode.EventTypeEventsAPI:
				eventsAPIEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
				if !ok {
					continue
				}
				if evt.Request != nil {
					a.socket.Ack(*evt.Request)
				}
				a.handleEventsAPI(eventsAPIEvent)
			case socketmode.EventTypeConnecting:
				a.logger.Debug("Connecting to Slack...")
			case socketmode.EventTypeConnected:
				a.logger.Info("Connected to Slack")
			case socketmode.EventTypeConnectionError:
				a.logger.Error("Slack connection error")
			}
		}
	}
}

// handleEventsAPI turns app_mention callbacks into mentions. Plain message
// events are only logged.
func (a *Adapter) handleEventsAPI(event slackevents.EventsAPIEvent) {
	if event.Type != slackevents.CallbackEvent {
		return
	}

	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.AppMentionEvent:
		m := &channels.Mention{
			ID:         ev.TimeStamp,
			UserID:     ev.User,
			ChannelID:  ev.Channel,
			Text:       stripLeadingMentions(ev.Text),
			ThreadTS:   ev.ThreadTimeStamp,
			ReceivedAt: time.Now(),
			Metadata: map[string]string{
				"team":     event.TeamID,
				"raw_text": ev.Text,
			},
		}
		if !a.Enqueue(m) {
			a.logger.Warn("Incoming mention queue full, dropping mention", "ts", ev.TimeStamp)
		}

	case *slackevents.MessageEvent:
		a.logger.Debug("Received message event", "channel", ev.Channel, "user", ev.User, "subtype", ev.SubType)
	}
}

func stripLeadingMentions(text string) string {
	stripped := leadingMentions.ReplaceAllString(text, "")
	if stripped == "" {
		return strings.TrimSpace(text)
	}
	return stripped
}

// messageOptions renders msg as Block Kit blocks plus a plain fallback.
func (a *Adapter) messageOptions(msg *channels.OutboundMessage) []slack.MsgOption {
	fallback := a.formatContent(msg.Text, msg.Format)
	if len(msg.Sections) == 0 {
		return []slack.MsgOption{slack.MsgOptionText(fallback, false)}
	}
	return []slack.MsgOption{
		slack.MsgOptionText(fallback, false),
		slack.MsgOptionBlocks(a.buildBlocks(msg)...),
	}
}

func (a *Adapter) buildBlocks(msg *channels.OutboundMessage) []slack.Block {
	blocks := make([]slack.Block, 0, len(msg.Sections))
	for i, s := range msg.Sections {
		s.Text = a.formatContent(s.Text, msg.Format)
		text := channels.Truncate(mrkdwn.SectionText(s), maxSectionText)
		if text == "" {
			continue
		}

		obj := slack.NewTextBlockObject(slack.MarkdownType, text, false, false)
		switch s.Kind {
		case channels.SectionContext:
			blocks = append(blocks, slack.NewContextBlock(fmt.Sprintf("context_%d", i), obj))
		default:
			blocks = append(blocks, slack.NewSectionBlock(obj, nil, nil))
		}
	}
	return blocks
}

// mrkdwn writes emoji as :name: and bold with single asterisks.
var mrkdwn = channels.Markup{
	Emoji: func(name string) string { return ":" + name + ":" },
	Bold:  func(s string) string { return "*" + s + "*" },
}

// formatContent formats message content based on format type
func (a *Adapter) formatContent(content string, f channels.MessageFormat) string {
	if f == channels.FormatMarkdown {
		return format.Slack(content)
	}
	return content
}
