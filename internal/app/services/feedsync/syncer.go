package feedsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"whistleinn/internal/app/dto"
	"whistleinn/internal/app/policies"
	"whistleinn/internal/app/uow"
	domaincalendar "whistleinn/internal/domain/calendar"
	"whistleinn/internal/domain/shared/daterange"
)

// Syncer imports external iCal feeds into the external-bookings table. Each
// feed syncs in its own transaction: one unreachable platform never blocks
// the others, and a failed parse leaves the feed's previous entries intact.
type Syncer struct {
	UoWFactory uow.Factory
	Fetcher    policies.FeedFetcher
	Logger     *slog.Logger
}

// SyncAll runs every enabled feed and reports per-feed outcomes. It is
// invoked both by the background scheduler and the admin's manual trigger.
func (s *Syncer) SyncAll(ctx context.Context) (dto.SyncResult, error) {
	feeds, err := s.listEnabled(ctx)
	if err != nil {
		return dto.SyncResult{}, err
	}

	result := dto.SyncResult{Reports: make([]dto.FeedSyncReport, 0, len(feeds))}
	for _, feed := range feeds {
		report := dto.FeedSyncReport{FeedID: feed.ID, Name: feed.Name}
		imported, err := s.syncOne(ctx, feed.ID)
		if err != nil {
			report.Error = err.Error()
			s.Logger.Error("feed sync failed", "feed_id", feed.ID, "name", feed.Name, "error", err)
		} else {
			report.Imported = imported
			s.Logger.Info("feed synced", "feed_id", feed.ID, "name", feed.Name, "imported", imported)
		}
		result.Reports = append(result.Reports, report)
	}
	return result, nil
}

// SyncFeed syncs a single feed by ID, regardless of its enabled flag. Admins
// use it to verify a feed right after creating it.
func (s *Syncer) SyncFeed(ctx context.Context, feedID string) (dto.FeedSyncReport, error) {
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.FeedSyncReport{}, err
	}
	feed, err := unit.Feeds().ByID(ctx, feedID)
	_ = unit.Rollback(ctx)
	if err != nil {
		return dto.FeedSyncReport{}, err
	}

	report := dto.FeedSyncReport{FeedID: feed.ID, Name: feed.Name}
	imported, err := s.syncOne(ctx, feed.ID)
	if err != nil {
		report.Error = err.Error()
		return report, nil
	}
	report.Imported = imported
	return report, nil
}

func (s *Syncer) listEnabled(ctx context.Context) ([]*domaincalendar.Feed, error) {
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer unit.Rollback(ctx)

	all, err := unit.Feeds().List(ctx)
	if err != nil {
		return nil, err
	}
	enabled := all[:0:0]
	for _, f := range all {
		if f.Enabled {
			enabled = append(enabled, f)
		}
	}
	return enabled, nil
}

// syncOne fetches outside any transaction, then writes the replacement set
// and the feed's sync bookkeeping atomically.
func (s *Syncer) syncOne(ctx context.Context, feedID string) (int, error) {
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return 0, err
	}
	feed, err := unit.Feeds().ByID(ctx, feedID)
	if err != nil {
		_ = unit.Rollback(ctx)
		return 0, err
	}

	now := time.Now().UTC()
	events, fetchErr := s.Fetcher.Fetch(ctx, feed.URL)

	var entries []*domaincalendar.ExternalBooking
	if fetchErr == nil {
		entries, fetchErr = s.buildEntries(feed, events, now)
	}
	if fetchErr == nil {
		fetchErr = unit.External().ReplaceBySource(ctx, feed.Source, entries)
	}

	feed.RecordSync(fetchErr, now)
	if err := unit.Feeds().Save(ctx, feed); err != nil {
		_ = unit.Rollback(ctx)
		return 0, err
	}
	if err := unit.Commit(ctx); err != nil {
		return 0, err
	}
	if fetchErr != nil {
		return 0, fetchErr
	}
	return len(entries), nil
}

func (s *Syncer) buildEntries(feed *domaincalendar.Feed, events []policies.FeedEvent, now time.Time) ([]*domaincalendar.ExternalBooking, error) {
	entries := make([]*domaincalendar.ExternalBooking, 0, len(events))
	for _, ev := range events {
		dr, err := daterange.New(ev.StartDate, ev.EndDate)
		if err != nil {
			// Zero-length blocks show up in some platforms' feeds; skip
			// them instead of failing the whole import.
			s.Logger.Warn("skipping feed event with invalid range",
				"feed_id", feed.ID, "uid", ev.UID, "error", err)
			continue
		}
		eb, err := domaincalendar.NewExternalBooking(domaincalendar.ExternalParams{
			ID:        uuid.NewString(),
			Source:    feed.Source,
			GuestName: ev.Summary,
			Range:     dr,
			Notes:     fmt.Sprintf("imported from %s (uid %s)", feed.Name, ev.UID),
			Now:       now,
		})
		if err != nil {
			return nil, err
		}
		entries = append(entries, eb)
	}
	return entries, nil
}
