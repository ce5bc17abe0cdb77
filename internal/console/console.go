// Package console is a local terminal chat channel for trying the bot
// without a chat platform. Every line typed is treated as a mention.
package console

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/reginold/slack-bot-agentic/internal/channels"
)

// ChannelID is the single conversation the console hosts.
const ChannelID = "local"

// Channel implements channels.Channel on top of a bubbletea program.
type Channel struct {
	*channels.BaseChannel

	seq atomic.Int64

	mu      sync.RWMutex
	program *tea.Program
}

// New creates a console channel.
func New() *Channel {
	return &Channel{BaseChannel: channels.NewBaseChannel("console", true)}
}

// Start is a no-op; the program is driven by Run.
func (c *Channel) Start(ctx context.Context) error { return nil }

// Stop quits the program if it is running.
func (c *Channel) Stop() error {
	c.mu.RLock()
	p := c.program
	c.mu.RUnlock()
	if p != nil {
		p.Quit()
	}
	return nil
}

// Run shows the console and blocks until the user quits or ctx is done.
func (c *Channel) Run(ctx context.Context, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(NewModel(c.submit), opts...)

	c.mu.Lock()
	c.program = p
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.program = nil
		c.mu.Unlock()
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("console error: %w", err)
	}
	return nil
}

func (c *Channel) nextID() string {
	return fmt.Sprintf("console-%d", c.seq.Add(1))
}

// submit turns a typed line into a mention.
func (c *Channel) submit(text string) string {
	id := c.nextID()
	c.Enqueue(&channels.Mention{
		ID:         id,
		ChannelID:  ChannelID,
		UserID:     "you",
		Text:       text,
		ReceivedAt: time.Now(),
	})
	return id
}

func (c *Channel) send(msg tea.Msg) {
	c.mu.RLock()
	p := c.program
	c.mu.RUnlock()
	if p != nil {
		p.Send(msg)
	}
}

// Post shows msg in the conversation.
func (c *Channel) Post(ctx context.Context, channelID string, msg *channels.OutboundMessage) (string, error) {
	id := c.nextID()
	c.send(PostMsg{ID: id, Text: channels.MarkdownMarkup.Render(msg), Markdown: msg.Format == channels.FormatMarkdown})
	return id, nil
}

// Update replaces a posted message.
func (c *Channel) Update(ctx context.Context, channelID, messageID string, msg *channels.OutboundMessage) error {
	c.send(UpdateMsg{ID: messageID, Text: channels.MarkdownMarkup.Render(msg), Markdown: msg.Format == channels.FormatMarkdown})
	return nil
}

// AddReaction marks a message with an emoji.
func (c *Channel) AddReaction(ctx context.Context, channelID, messageID, name string) error {
	c.send(ReactionMsg{ID: messageID, Name: name, Added: true})
	return nil
}

// RemoveReaction clears an emoji mark.
func (c *Channel) RemoveReaction(ctx context.Context, channelID, messageID, name string) error {
	c.send(ReactionMsg{ID: messageID, Name: name})
	return nil
}
