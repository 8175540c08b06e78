package sync

import (
	"context"
	"log/slog"
	"time"

	"whistleinn/internal/app/commands"
	bookingapp "whistleinn/internal/app/handlers/booking"
	"whistleinn/internal/app/services/feedsync"
	"whistleinn/internal/infra/obs"
)

// FeedWorker re-imports every enabled external calendar on a fixed cadence.
// The syncer isolates failures per feed, so the worker only has to keep the
// ticker alive.
type FeedWorker struct {
	Syncer   *feedsync.Syncer
	Interval time.Duration
	Metrics  *obs.Metrics
	Logger   *slog.Logger
}

func (w *FeedWorker) Run(ctx context.Context) error {
	interval := w.Interval
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// One pass at startup so a fresh deploy does not wait a full interval
	// before the calendar reflects other platforms.
	w.syncOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.syncOnce(ctx)
		}
	}
}

func (w *FeedWorker) syncOnce(ctx context.Context) {
	result, err := w.Syncer.SyncAll(ctx)
	if err != nil {
		w.Logger.Error("feed sync pass failed", "error", err)
		return
	}
	if w.Metrics != nil {
		for _, report := range result.Reports {
			if report.Error != "" {
				w.Metrics.FeedSyncError()
			}
		}
	}
}

// ReaperWorker expires stale pending holds so abandoned checkouts release
// their dates.
type ReaperWorker struct {
	Commands commands.Bus
	Interval time.Duration
	HoldTTL  time.Duration
	Logger   *slog.Logger
}

func (w *ReaperWorker) Run(ctx context.Context) error {
	interval := w.Interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	holdTTL := w.HoldTTL
	if holdTTL <= 0 {
		holdTTL = 30 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			cmd := bookingapp.ExpirePendingCommand{OlderThan: holdTTL}
			if _, err := commands.Dispatch[bookingapp.ExpirePendingCommand, *bookingapp.ExpirePendingResult](ctx, w.Commands, cmd); err != nil {
				w.Logger.Error("pending reaper pass failed", "error", err)
			}
		}
	}
}
