package discord

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reginold/slack-bot-agentic/internal/channels"
	"github.com/reginold/slack-bot-agentic/internal/config"
)

func TestToMention(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	bot := &discordgo.User{ID: "B1"}

	tests := []struct {
		name   string
		msg    *discordgo.Message
		wantOK bool
		text   string
	}{
		{
			name:   "guild mention",
			msg:    &discordgo.Message{ID: "m1", GuildID: "g", ChannelID: "c", Content: "<@B1> search go", Author: &discordgo.User{ID: "u"}, Mentions: []*discordgo.User{bot}, Timestamp: ts},
			wantOK: true,
			text:   "search go",
		},
		{
			name:   "nickname mention",
			msg:    &discordgo.Message{ID: "m2", GuildID: "g", Content: "<@!B1> hi", Author: &discordgo.User{ID: "u"}, Mentions: []*discordgo.User{bot}},
			wantOK: true,
			text:   "hi",
		},
		{
			name:   "direct message",
			msg:    &discordgo.Message{ID: "m3", Content: "hello", Author: &discordgo.User{ID: "u"}},
			wantOK: true,
			text:   "hello",
		},
		{
			name: "guild without mention",
			msg:  &discordgo.Message{ID: "m4", GuildID: "g", Content: "chatter", Author: &discordgo.User{ID: "u"}},
		},
		{
			name: "bot author",
			msg:  &discordgo.Message{ID: "m5", Content: "<@B1>", Author: &discordgo.User{ID: "x", Bot: true}, Mentions: []*discordgo.User{bot}},
		},
		{
			name: "no author",
			msg:  &discordgo.Message{ID: "m6"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := toMention("B1", tt.msg)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				require.NotNil(t, m)
				assert.Equal(t, tt.text, m.Text)
				assert.Equal(t, tt.msg.ID, m.ID)
			}
		})
	}
}

func TestRender(t *testing.T) {
	out := render(&channels.OutboundMessage{
		Sections: []channels.Section{
			{Emoji: "white_check_mark", Title: "Web Search Results"},
			{Text: "1. [Go](https://go.dev)"},
		},
	})
	assert.Equal(t, "✅ **Web Search Results**\n\n1. [Go](https://go.dev)", out)

	long := render(&channels.OutboundMessage{Text: strings.Repeat("a", 5000)})
	assert.LessOrEqual(t, len(long), maxMessageLength)
}

func TestAdapter_NotConnected(t *testing.T) {
	a := New(config.DiscordConfig{Enabled: true, Token: "t"}, nil)

	_, err := a.Post(context.Background(), "c", &channels.OutboundMessage{Text: "x"})
	assert.ErrorIs(t, err, channels.ErrNotConnected)
	assert.ErrorIs(t, a.Update(context.Background(), "c", "m", &channels.OutboundMessage{}), channels.ErrNotConnected)
	assert.NoError(t, a.AddReaction(context.Background(), "c", "m", "eyes"))
	assert.NoError(t, a.Stop())
}

func TestAdapter_StartRequiresToken(t *testing.T) {
	a := New(config.DiscordConfig{Enabled: true}, nil)
	assert.Error(t, a.Start(context.Background()))
	assert.Equal(t, "discord", a.Name())
	assert.True(t, a.IsEnabled())
}
