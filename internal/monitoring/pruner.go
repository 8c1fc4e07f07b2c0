package monitoring

import (
	"context"
	"fmt"
	"time"

	"github.com/avikl/user-admin-be/internal/services"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Pruner deletes activity events past the retention window on a cron
// schedule.
type Pruner struct {
	eventSvc  services.EventServiceProvider
	retention time.Duration
	cron      *cron.Cron
}

// NewPruner validates the cron spec and creates a Pruner. retentionDays
// bounds how long events are kept.
func NewPruner(eventSvc services.EventServiceProvider, spec string, retentionDays int) (*Pruner, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid cron expression: %w", err)
	}

	p := &Pruner{
		eventSvc:  eventSvc,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		cron:      cron.New(),
	}
	if _, err := p.cron.AddFunc(spec, p.PruneOnce); err != nil {
		return nil, err
	}
	return p, nil
}

// Start begins the schedule in a background goroutine.
func (p *Pruner) Start() {
	log.Info().Dur("retention", p.retention).Msg("Starting background event pruner...")
	p.cron.Start()
}

// Stop halts the schedule, waiting for a running prune to finish.
func (p *Pruner) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("Stopped background event pruner.")
}

// PruneOnce deletes all events older than the retention window.
func (p *Pruner) PruneOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().UTC().Add(-p.retention)
	removed, err := p.eventSvc.PruneOlderThan(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("Pruner: Failed to prune events")
		return
	}
	if removed > 0 {
		log.Info().Int64("removed", removed).Time("cutoff", cutoff).Msg("Pruned old events")
	}
}
