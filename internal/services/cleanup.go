package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"socio/internal/domain"
)

// Cleanup periodically removes fests past their closing date and standalone
// events past their end date, including their stored files and registrations.
// It runs the same cascade as a user-initiated delete, just without an actor.
type Cleanup struct {
	festRepo  domain.FestRepository
	eventRepo domain.EventRepository
	regRepo   domain.RegistrationRepository
	files     *FileLifecycle
	logger    *slog.Logger
	interval  time.Duration
}

func NewCleanup(festRepo domain.FestRepository,
	eventRepo domain.EventRepository,
	regRepo domain.RegistrationRepository,
	files *FileLifecycle,
	logger *slog.Logger,
	interval time.Duration,
) *Cleanup {
	return &Cleanup{
		festRepo:  festRepo,
		eventRepo: eventRepo,
		regRepo:   regRepo,
		files:     files,
		logger:    logger,
		interval:  interval,
	}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled.
func (c *Cleanup) Run(ctx context.Context) {
	c.Sweep(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}

// Sweep removes everything that has expired. Per-record failures are logged
// and skipped so one bad row never blocks the rest of the sweep; anything
// missed is picked up on the next run.
func (c *Cleanup) Sweep(ctx context.Context) {
	now := time.Now()

	fests, err := c.festRepo.ListExpired(ctx, now)
	if err != nil {
		c.logger.Error("cleanup: failed to list expired fests", "err", err)
	}
	for _, fest := range fests {
		err := cascadeDeleteFest(ctx, c.festRepo, c.eventRepo, c.regRepo, c.files, c.logger, fest)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			c.logger.Error("cleanup: failed to delete expired fest", "fest_id", fest.FestID, "err", err)
			continue
		}
		c.logger.Info("cleanup: removed expired fest", "fest_id", fest.FestID)
	}

	events, err := c.eventRepo.ListExpired(ctx, now)
	if err != nil {
		c.logger.Error("cleanup: failed to list expired events", "err", err)
	}
	for _, event := range events {
		err := deleteEventArtifacts(ctx, c.eventRepo, c.regRepo, c.files, c.logger, event)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			c.logger.Error("cleanup: failed to delete expired event", "event_id", event.EventID, "err", err)
			continue
		}
		c.logger.Info("cleanup: removed expired event", "event_id", event.EventID)
	}
}
