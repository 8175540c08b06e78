package calendar

import (
	"context"
	"errors"
	"time"
)

var (
	ErrFeedNotFound    = errors.New("calendar: feed not found")
	ErrFeedURLRequired = errors.New("calendar: feed url required")
)

// SyncStatus tracks the outcome of the most recent sync attempt per feed.
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncOK      SyncStatus = "success"
	SyncFailed  SyncStatus = "error"
)

// Feed is a subscribed external iCal calendar. Each successful sync replaces
// the external bookings attributed to the feed's source.
type Feed struct {
	ID         string
	Name       string
	Source     string
	URL        string
	Enabled    bool
	LastSyncAt *time.Time
	SyncStatus SyncStatus
	SyncError  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type FeedRepository interface {
	ByID(ctx context.Context, id string) (*Feed, error)
	List(ctx context.Context) ([]*Feed, error)
	Save(ctx context.Context, f *Feed) error
	Delete(ctx context.Context, id string) error
}

type FeedParams struct {
	ID     string
	Name   string
	Source string
	URL    string
	Now    time.Time
}

func NewFeed(params FeedParams) (*Feed, error) {
	if params.URL == "" {
		return nil, ErrFeedURLRequired
	}
	if params.Source == "" {
		return nil, ErrSourceRequired
	}
	now := params.Now.UTC()
	return &Feed{
		ID:         params.ID,
		Name:       params.Name,
		Source:     params.Source,
		URL:        params.URL,
		Enabled:    true,
		SyncStatus: SyncPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// RecordSync updates the feed's bookkeeping after a sync attempt.
func (f *Feed) RecordSync(err error, now time.Time) {
	t := now.UTC()
	f.LastSyncAt = &t
	f.UpdatedAt = t
	if err != nil {
		f.SyncStatus = SyncFailed
		f.SyncError = err.Error()
		return
	}
	f.SyncStatus = SyncOK
	f.SyncError = ""
}
