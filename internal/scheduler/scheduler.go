// Package scheduler refreshes the model list on a cron schedule so
// validation rarely has to wait on the provider.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/reginold/slack-bot-agentic/internal/logging"
)

// Refresher reloads the model list.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// refreshTimeout bounds one scheduled refresh.
const refreshTimeout = 30 * time.Second

// Scheduler manages the model refresh cron job
type Scheduler struct {
	cron   *cron.Cron
	target Refresher
	logger *slog.Logger
}

// New creates a scheduler running target.Refresh on spec, a standard
// five-field cron expression or descriptor such as "@every 4m". An empty
// spec returns nil: scheduling is disabled and refreshes happen on demand.
func New(spec string, target Refresher, logger *slog.Logger) (*Scheduler, error) {
	if spec == "" {
		return nil, nil
	}
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Scheduler{
		cron:   cron.New(),
		target: target,
		logger: logger.With("component", "scheduler"),
	}
	if _, err := s.cron.AddFunc(spec, s.refresh); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	if s == nil {
		return
	}
	s.cron.Start()
	s.logger.Info("model refresh scheduled", "next", s.Next())
}

// Stop stops the scheduler and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	if s == nil {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Next returns the time of the next scheduled refresh.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	if err := s.target.Refresh(ctx); err != nil {
		s.logger.Warn("scheduled model refresh failed", "error", err)
		return
	}
	s.logger.Debug("scheduled model refresh complete")
}
