package handler

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/reginold/slack-bot-agentic/internal/channels"
	"github.com/reginold/slack-bot-agentic/internal/logging"
)

// ChannelLookup finds the channel a mention came from.
type ChannelLookup interface {
	Get(name string) (channels.Channel, bool)
}

// Dispatcher feeds mentions to a Handler, one goroutine per mention.
type Dispatcher struct {
	handler  *Handler
	channels ChannelLookup
	log      *slog.Logger
	wg       sync.WaitGroup
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(h *Handler, lookup ChannelLookup, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Dispatcher{handler: h, channels: lookup, log: logger.With("component", "dispatcher")}
}

// Run handles mentions until ctx is done or the stream closes, then waits
// for in-flight mentions to finish.
func (d *Dispatcher) Run(ctx context.Context, mentions <-chan *channels.Mention) error {
	defer d.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return nil
		case m, ok := <-mentions:
			if !ok {
				return nil
			}
			ch, found := d.channels.Get(m.ChannelName)
			if !found {
				d.log.Warn("mention from unknown channel", "channel", m.ChannelName)
				continue
			}
			d.wg.Add(1)
			go d.handle(ctx, ch, m)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, ch channels.Channel, m *channels.Mention) {
	defer d.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("panic handling mention",
				"channel", ch.Name(), "message_id", m.ID, "panic", r, "stack", string(debug.Stack()))
		}
	}()
	d.handler.Handle(ctx, ch, m)
}
