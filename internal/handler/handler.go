// Package handler answers bot mentions: it routes the query, runs the
// chosen tool and posts the result, keeping the user informed with a status
// message along the way. It is the only place taxonomy errors are caught.
package handler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/reginold/slack-bot-agentic/internal/boterr"
	"github.com/reginold/slack-bot-agentic/internal/channels"
	"github.com/reginold/slack-bot-agentic/internal/logging"
	"github.com/reginold/slack-bot-agentic/internal/metrics"
	"github.com/reginold/slack-bot-agentic/internal/router"
)

// AckReaction is added to a mention while it is being handled.
const AckReaction = "eyes"

// cleanupTimeout bounds the reaction removal, which runs even after the
// handling context is done.
const cleanupTimeout = 10 * time.Second

// Chatter answers a query with the completion model. An empty model means
// the default.
type Chatter interface {
	Chat(ctx context.Context, query, model string) (string, error)
}

// Searcher runs a web search. numResults <= 0 means the default.
type Searcher interface {
	Search(ctx context.Context, query string, numResults int) (string, error)
}

// Handler handles one mention at a time; it is safe for concurrent use.
type Handler struct {
	chat   Chatter
	search Searcher
	log    *slog.Logger
}

// New creates a Handler. A nil logger discards output.
func New(chat Chatter, search Searcher, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Handler{chat: chat, search: search, log: logger.With("component", "handler")}
}

// Handle runs the full mention cycle on ch. Failures are reported to the
// user in the thread and never returned.
func (h *Handler) Handle(ctx context.Context, ch channels.Channel, m *channels.Mention) {
	log := h.log.With(
		"request_id", uuid.NewString(),
		"channel", ch.Name(),
		"channel_id", m.ChannelID,
		"message_id", m.ID,
	)
	thread := m.ThreadAnchor()
	query := m.Text

	if err := ch.AddReaction(ctx, m.ChannelID, m.ID, AckReaction); err != nil {
		log.Warn("failed to add reaction", "error", err)
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		if err := ch.RemoveReaction(cleanupCtx, m.ChannelID, m.ID, AckReaction); err != nil {
			log.Warn("failed to remove reaction", "error", err)
		}
	}()

	statusID, err := ch.Post(ctx, m.ChannelID, routingStatus(query, thread))
	if err != nil {
		log.Warn("failed to post status message", "error", err)
	}

	dest := router.Route(query)
	tool := dest.ToolName()
	metrics.RouteDecisions.WithLabelValues(dest.String()).Inc()
	log = log.With("destination", dest.String())
	log.Info("mention routed", "query_chars", len(query))

	if statusID != "" {
		if err := ch.Update(ctx, m.ChannelID, statusID, toolStatus(query, tool)); err != nil {
			log.Warn("failed to update status message", "error", err)
		}
	}

	start := time.Now()
	result, err := h.run(ctx, dest, query)
	if err != nil {
		h.reportFailure(ctx, log, ch, m, dest, err)
		return
	}

	if _, err := ch.Post(ctx, m.ChannelID, resultMessage(tool, result, thread)); err != nil {
		log.Error("failed to post result", "error", err)
		metrics.MentionsHandled.WithLabelValues(ch.Name(), dest.String(), "post_failed").Inc()
		return
	}

	log.Info("mention answered", "duration", time.Since(start))
	metrics.MentionsHandled.WithLabelValues(ch.Name(), dest.String(), "ok").Inc()
}

func (h *Handler) run(ctx context.Context, dest router.Decision, query string) (string, error) {
	switch dest {
	case router.WebSearch:
		results, err := h.search.Search(ctx, query, 0)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("**%s Results for '%s':**\n%s", dest.ToolName(), query, results), nil
	default:
		return h.chat.Chat(ctx, query, "")
	}
}

// reportFailure posts the user-facing message of a taxonomy error, or the
// generic message for anything else. Diagnostics only go to the log.
func (h *Handler) reportFailure(ctx context.Context, log *slog.Logger, ch channels.Channel, m *channels.Mention, dest router.Decision, err error) {
	text, known := boterr.UserMessage(err)
	outcome := "error"
	if known {
		log.Warn("tool failed", "error", err)
	} else {
		text = boterr.GenericMessage()
		outcome = "unexpected_error"
		log.Error("unexpected failure handling mention", "error", err)
	}
	metrics.MentionsHandled.WithLabelValues(ch.Name(), dest.String(), outcome).Inc()

	msg := &channels.OutboundMessage{Text: text, ThreadTS: m.ThreadAnchor(), Format: channels.FormatPlain}
	if _, err := ch.Post(ctx, m.ChannelID, msg); err != nil {
		log.Error("failed to post error message", "error", err)
	}
}

func routingStatus(query, thread string) *channels.OutboundMessage {
	return &channels.OutboundMessage{
		Text:     "Processing your query about: " + query,
		ThreadTS: thread,
		Format:   channels.FormatPlain,
		Sections: []channels.Section{
			{Kind: channels.SectionText, Title: "Your Query:", Text: query},
			{Kind: channels.SectionText, Emoji: "hourglass_flowing_sand", Title: "Routing to appropriate tool..."},
			{Kind: channels.SectionContext, Text: "I'll show you which tool I'm using once determined"},
		},
	}
}

func toolStatus(query, tool string) *channels.OutboundMessage {
	return &channels.OutboundMessage{
		Text:   fmt.Sprintf("Using %s Tool", tool),
		Format: channels.FormatPlain,
		Sections: []channels.Section{
			{Kind: channels.SectionText, Title: "Your Query:", Text: query},
			{Kind: channels.SectionText, Emoji: "mag_right", Title: fmt.Sprintf("Using %s Tool", tool)},
			{Kind: channels.SectionContext, Text: fmt.Sprintf("Processing your request with %s", tool)},
		},
	}
}

func resultMessage(tool, result, thread string) *channels.OutboundMessage {
	return &channels.OutboundMessage{
		Text:     fmt.Sprintf("%s Results", tool),
		ThreadTS: thread,
		Format:   channels.FormatMarkdown,
		Sections: []channels.Section{
			{Kind: channels.SectionText, Emoji: "white_check_mark", Title: fmt.Sprintf("%s Results", tool)},
			{Kind: channels.SectionText, Text: result},
			{Kind: channels.SectionContext, Text: fmt.Sprintf("Used %s to answer your query", tool)},
		},
	}
}
