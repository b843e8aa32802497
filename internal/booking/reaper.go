package booking

import (
	"context"
	"log/slog"
	"time"

	"booking-service/internal/store"
)

// Reaper periodically fails requested meetings that were never confirmed, so their
// claims stop blocking new reservations.
type Reaper struct {
	store    store.Store
	interval time.Duration
	logger   *slog.Logger
}

func NewReaper(st store.Store, interval time.Duration, logger *slog.Logger) *Reaper {
	return &Reaper{store: st, interval: interval, logger: logger}
}

// RunOnce reaps once and returns the number of meetings failed.
func (r *Reaper) RunOnce(ctx context.Context) (int, error) {
	n, err := r.store.ReapAbandoned(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.logger.Info("Reaped abandoned meetings", "count", n)
	}
	return n, nil
}

// Run blocks until ctx is done.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.Error("Reap cycle failed", "error", err)
			}
		}
	}
}
