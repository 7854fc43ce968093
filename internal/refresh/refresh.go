// Package refresh periodically re-resolves the remembered location so the
// displayed conditions do not go stale.
package refresh

import (
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/weatherdeck/weatherdeck/internal/resolve"
)

// Scheduler drives periodic resolver refreshes.
type Scheduler struct {
	scheduler *gocron.Scheduler
	resolver  *resolve.Resolver
	interval  time.Duration
	log       *zap.Logger
}

// New creates a Scheduler refreshing every interval. An interval of zero or
// less disables refreshing.
func New(resolver *resolve.Resolver, interval time.Duration, log *zap.Logger) *Scheduler {
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		resolver:  resolver,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the refresh job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		s.log.Info("periodic refresh disabled")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).Do(func() {
		s.log.Debug("refreshing current conditions")
		s.resolver.Refresh()
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
