package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/isdelr/prep-deck-be/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler runs periodic maintenance jobs on a cron schedule.
type Scheduler struct {
	eventSvc  services.EventServiceProvider
	retention time.Duration
	cron      *cron.Cron
	now       func() time.Time
}

// NewScheduler creates a scheduler that prunes events older than retention
// every time schedule fires. schedule uses the standard cron syntax, including
// descriptors such as "@every 1h".
func NewScheduler(eventSvc services.EventServiceProvider, schedule string, retention time.Duration) (*Scheduler, error) {
	s := &Scheduler{
		eventSvc:  eventSvc,
		retention: retention,
		cron:      cron.New(),
		now:       time.Now,
	}
	if _, err := s.cron.AddFunc(schedule, func() { s.RunMaintenance(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid maintenance schedule %q: %w", schedule, err)
	}
	return s, nil
}

// Run starts the cron loop in the background and runs maintenance once immediately.
func (s *Scheduler) Run() {
	log.Info().Msg("Starting background scheduler...")
	s.RunMaintenance(context.Background())
	s.cron.Start()
}

// Stop halts the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	log.Info().Msg("Stopping background scheduler.")
}

// RunMaintenance deletes events that fell out of the retention window.
func (s *Scheduler) RunMaintenance(ctx context.Context) int64 {
	cutoff := s.now().Add(-s.retention)
	removed, err := s.eventSvc.PruneEvents(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Scheduler: Failed to prune events")
		return 0
	}
	if removed > 0 {
		log.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("Scheduler: Pruned old events")
	}
	return removed
}
