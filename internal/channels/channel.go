// Package channels is the boundary between the bot and the chat platforms.
//
// Each platform adapter (Slack, Discord, Telegram, the local console)
// implements Channel. Adapters deliver mentions of the bot on Incoming() and
// expose the handful of operations the mention handler needs: post a
// message in a thread, edit it, and add or remove a reaction.
package channels

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Common errors
var (
	ErrChannelNotFound = errors.New("channel not found")
	ErrChannelDisabled = errors.New("channel is disabled")
	ErrNotConnected    = errors.New("channel is not connected")
)

// Channel is the interface all chat platform adapters implement.
type Channel interface {
	// Lifecycle
	Name() string
	Start(ctx context.Context) error
	Stop() error
	IsEnabled() bool

	// Incoming bot mentions.
	Incoming() <-chan *Mention

	// Post sends msg to channelID and returns the new message's id.
	Post(ctx context.Context, channelID string, msg *OutboundMessage) (string, error)
	// Update replaces the content of a message previously returned by Post.
	Update(ctx context.Context, channelID, messageID string, msg *OutboundMessage) error

	// Reactions use Slack emoji names ("eyes"). Adapters without reactions
	// treat these as no-ops.
	AddReaction(ctx context.Context, channelID, messageID, name string) error
	RemoveReaction(ctx context.Context, channelID, messageID, name string) error
}

// Mention is one message addressed to the bot.
type Mention struct {
	ID          string // platform message id, also the thread anchor
	ChannelName string // "slack", "discord", "telegram", "console"
	ChannelID   string // platform channel/chat id
	UserID      string
	Text        string
	ThreadTS    string // parent thread, empty when the mention starts one
	Metadata    map[string]string
	ReceivedAt  time.Time
}

// ThreadAnchor is the message id replies should be threaded under.
func (m *Mention) ThreadAnchor() string {
	if m.ThreadTS != "" {
		return m.ThreadTS
	}
	return m.ID
}

// MessageFormat defines how to format the message
type MessageFormat string

const (
	FormatPlain    MessageFormat = "plain"
	FormatMarkdown MessageFormat = "markdown"
)

// SectionKind selects how a section is laid out.
type SectionKind string

const (
	SectionText    SectionKind = "text"
	SectionContext SectionKind = "context" // small, muted text
)

// Section is one block of a rich message.
type Section struct {
	Kind  SectionKind
	Emoji string // Slack emoji name shown before the text, optional
	Title string // bold lead-in, optional
	Text  string
}

// OutboundMessage is a message to post or an edit of one.
type OutboundMessage struct {
	// Text is the plain fallback. It is the whole message when Sections is
	// empty.
	Text     string
	Sections []Section
	ThreadTS string
	Format   MessageFormat
}

// emojiGlyphs maps the Slack emoji names the bot uses to unicode.
var emojiGlyphs = map[string]string{
	"eyes":                   "👀",
	"hourglass_flowing_sand": "⏳",
	"mag_right":              "🔎",
	"white_check_mark":       "✅",
	"warning":                "⚠️",
}

// EmojiGlyph returns the unicode form of a Slack emoji name, or "" if unknown.
func EmojiGlyph(name string) string {
	return emojiGlyphs[name]
}

// Hub aggregates mentions from every registered channel.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]Channel
	incoming chan *Mention
	done     chan struct{}
	stopOnce sync.Once
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		channels: make(map[string]Channel),
		incoming: make(chan *Mention, 100),
		done:     make(chan struct{}),
	}
}

// Register adds a channel. A channel with the same name is replaced.
func (h *Hub) Register(ch Channel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.channels[ch.Name()] = ch
}

// Get retrieves a channel by name
func (h *Hub) Get(name string) (Channel, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ch, ok := h.channels[name]
	return ch, ok
}

// All returns all registered channels
func (h *Hub) All() []Channel {
	h.mu.RLock()
	defer h.mu.RUnlock()

	channels := make([]Channel, 0, len(h.channels))
	for _, ch := range h.channels {
		channels = append(channels, ch)
	}
	return channels
}

// Incoming returns the merged mention stream of all channels.
func (h *Hub) Incoming() <-chan *Mention {
	return h.incoming
}

// StartAll starts every enabled channel and begins forwarding its mentions.
// It fails if no channel is enabled.
func (h *Hub) StartAll(ctx context.Context) error {
	var enabled []Channel
	for _, ch := range h.All() {
		if ch.IsEnabled() {
			enabled = append(enabled, ch)
		}
	}
	if len(enabled) == 0 {
		return ErrChannelDisabled
	}

	for _, ch := range enabled {
		if err := ch.Start(ctx); err != nil {
			return err
		}
	}

	for _, ch := range enabled {
		go h.forward(ctx, ch)
	}
	return nil
}

func (h *Hub) forward(ctx context.Context, ch Channel) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case m, ok := <-ch.Incoming():
			if !ok {
				return
			}
			select {
			case h.incoming <- m:
			case <-ctx.Done():
				return
			case <-h.done:
				return
			}
		}
	}
}

// StopAll stops all channels. It is safe to call more than once.
func (h *Hub) StopAll() error {
	var lastErr error
	h.stopOnce.Do(func() {
		close(h.done)
		for _, ch := range h.All() {
			if err := ch.Stop(); err != nil {
				lastErr = err
			}
		}
	})
	return lastErr
}

// BaseChannel holds the bookkeeping shared by adapters.
type BaseChannel struct {
	name     string
	enabled  bool
	incoming chan *Mention
}

// NewBaseChannel creates a new base channel
func NewBaseChannel(name string, enabled bool) *BaseChannel {
	return &BaseChannel{
		name:     name,
		enabled:  enabled,
		incoming: make(chan *Mention, 100),
	}
}

// Name returns the channel name
func (b *BaseChannel) Name() string {
	return b.name
}

// IsEnabled returns whether the channel is enabled
func (b *BaseChannel) IsEnabled() bool {
	return b.enabled
}

// Incoming returns the channel for incoming mentions
func (b *BaseChannel) Incoming() <-chan *Mention {
	return b.incoming
}

// Enqueue adds a mention to the incoming queue. It reports false if the
// queue is full and the mention was dropped.
func (b *BaseChannel) Enqueue(m *Mention) bool {
	if m.ChannelName == "" {
		m.ChannelName = b.name
	}
	if m.ReceivedAt.IsZero() {
		m.ReceivedAt = time.Now()
	}
	select {
	case b.incoming <- m:
		return true
	default:
		return false
	}
}
