package policies

import (
	"context"
	"time"
)

// FeedEvent is one reservation parsed out of an external iCal feed.
type FeedEvent struct {
	UID       string
	Summary   string
	StartDate time.Time
	EndDate   time.Time
}

// FeedFetcher retrieves and parses an external calendar. Implementations
// bound the HTTP fetch with the context deadline.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]FeedEvent, error)
}
