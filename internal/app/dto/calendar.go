package dto

import (
	"time"

	domaincalendar "whistleinn/internal/domain/calendar"
)

// BlockedRange is one unavailable interval shown on the public calendar.
type BlockedRange struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

type BlockedRanges struct {
	Items []BlockedRange `json:"items"`
}

type Feed struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Source     string     `json:"source"`
	URL        string     `json:"url"`
	Enabled    bool       `json:"enabled"`
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	SyncStatus string     `json:"sync_status"`
	SyncError  string     `json:"sync_error,omitempty"`
}

func MapFeed(f *domaincalendar.Feed) Feed {
	return Feed{
		ID:         f.ID,
		Name:       f.Name,
		Source:     f.Source,
		URL:        f.URL,
		Enabled:    f.Enabled,
		LastSyncAt: f.LastSyncAt,
		SyncStatus: string(f.SyncStatus),
		SyncError:  f.SyncError,
	}
}

// FeedSyncReport summarizes one feed's outcome in a sync run. Failures are
// isolated per feed.
type FeedSyncReport struct {
	FeedID   string `json:"feed_id"`
	Name     string `json:"name"`
	Imported int    `json:"imported"`
	Error    string `json:"error,omitempty"`
}

type SyncResult struct {
	Reports []FeedSyncReport `json:"reports"`
}

// CalendarEntry is one all-day block in the exported iCal document.
type CalendarEntry struct {
	UID       string
	Summary   string
	StartDate time.Time
	EndDate   time.Time
	CreatedAt time.Time
}

type CalendarExport struct {
	Entries []CalendarEntry
}
