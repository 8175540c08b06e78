package feedsync

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"whistleinn/internal/app/policies"
	domaincalendar "whistleinn/internal/domain/calendar"
	"whistleinn/internal/infra/storage/memory"
)

type stubFetcher struct {
	events map[string][]policies.FeedEvent
	errs   map[string]error
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) ([]policies.FeedEvent, error) {
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	return f.events[url], nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seedFeed(t *testing.T, factory memory.Factory, id, source, url string, enabled bool) *domaincalendar.Feed {
	t.Helper()
	feed, err := domaincalendar.NewFeed(domaincalendar.FeedParams{
		ID: id, Name: id, Source: source, URL: url, Now: time.Now(),
	})
	if err != nil {
		t.Fatalf("NewFeed: %v", err)
	}
	feed.Enabled = enabled
	if err := factory.FeedRepo.Save(context.Background(), feed); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return feed
}

func TestSyncAll(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedFeed(t, factory, "feed-a", "airbnb", "https://a.example.com/cal.ics", true)
	seedFeed(t, factory, "feed-b", "vrbo", "https://b.example.com/cal.ics", true)
	seedFeed(t, factory, "feed-off", "booking", "https://off.example.com/cal.ics", false)

	fetcher := &stubFetcher{
		events: map[string][]policies.FeedEvent{
			"https://a.example.com/cal.ics": {
				{UID: "u1", Summary: "Reserved", StartDate: day(2026, 7, 1), EndDate: day(2026, 7, 4)},
				{UID: "u2", Summary: "Reserved", StartDate: day(2026, 7, 10), EndDate: day(2026, 7, 12)},
			},
		},
		errs: map[string]error{
			"https://b.example.com/cal.ics": errors.New("connection refused"),
		},
	}
	syncer := &Syncer{UoWFactory: factory, Fetcher: fetcher, Logger: quietLogger()}

	result, err := syncer.SyncAll(ctx)
	if err != nil {
		t.Fatalf("SyncAll: %v", err)
	}
	if len(result.Reports) != 2 {
		t.Fatalf("got %d reports, want 2 (disabled feed skipped)", len(result.Reports))
	}

	byID := map[string]int{}
	for i, r := range result.Reports {
		byID[r.FeedID] = i
	}
	okReport := result.Reports[byID["feed-a"]]
	if okReport.Imported != 2 || okReport.Error != "" {
		t.Errorf("feed-a report: %+v", okReport)
	}
	failReport := result.Reports[byID["feed-b"]]
	if failReport.Error == "" {
		t.Errorf("feed-b should report its fetch error: %+v", failReport)
	}

	imported, err := factory.ExternalRepo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(imported) != 2 {
		t.Fatalf("got %d external bookings, want 2", len(imported))
	}
	for _, eb := range imported {
		if eb.Source != "airbnb" {
			t.Errorf("unexpected source %q", eb.Source)
		}
	}

	feedA, _ := factory.FeedRepo.ByID(ctx, "feed-a")
	if feedA.SyncStatus != domaincalendar.SyncOK || feedA.LastSyncAt == nil {
		t.Errorf("feed-a bookkeeping: %s %v", feedA.SyncStatus, feedA.LastSyncAt)
	}
	feedB, _ := factory.FeedRepo.ByID(ctx, "feed-b")
	if feedB.SyncStatus != domaincalendar.SyncFailed || feedB.SyncError == "" {
		t.Errorf("feed-b bookkeeping: %s %q", feedB.SyncStatus, feedB.SyncError)
	}
}

func TestSyncReplacesPreviousEntries(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedFeed(t, factory, "feed-a", "airbnb", "https://a.example.com/cal.ics", true)

	fetcher := &stubFetcher{events: map[string][]policies.FeedEvent{
		"https://a.example.com/cal.ics": {
			{UID: "u1", StartDate: day(2026, 7, 1), EndDate: day(2026, 7, 4)},
		},
	}}
	syncer := &Syncer{UoWFactory: factory, Fetcher: fetcher, Logger: quietLogger()}

	if _, err := syncer.SyncAll(ctx); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	// The platform moved the block; the old entry must disappear.
	fetcher.events["https://a.example.com/cal.ics"] = []policies.FeedEvent{
		{UID: "u9", StartDate: day(2026, 8, 1), EndDate: day(2026, 8, 5)},
	}
	if _, err := syncer.SyncAll(ctx); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	imported, _ := factory.ExternalRepo.List(ctx)
	if len(imported) != 1 {
		t.Fatalf("got %d external bookings, want 1", len(imported))
	}
	if !imported[0].Range.Start.Equal(day(2026, 8, 1)) {
		t.Errorf("stale entry survived the replace: %+v", imported[0])
	}
}

func TestSyncFailureKeepsPreviousEntries(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedFeed(t, factory, "feed-a", "airbnb", "https://a.example.com/cal.ics", true)

	fetcher := &stubFetcher{events: map[string][]policies.FeedEvent{
		"https://a.example.com/cal.ics": {
			{UID: "u1", StartDate: day(2026, 7, 1), EndDate: day(2026, 7, 4)},
		},
	}}
	syncer := &Syncer{UoWFactory: factory, Fetcher: fetcher, Logger: quietLogger()}
	if _, err := syncer.SyncAll(ctx); err != nil {
		t.Fatalf("seed sync: %v", err)
	}

	fetcher.errs = map[string]error{"https://a.example.com/cal.ics": errors.New("timeout")}
	if _, err := syncer.SyncAll(ctx); err != nil {
		t.Fatalf("failing sync: %v", err)
	}

	imported, _ := factory.ExternalRepo.List(ctx)
	if len(imported) != 1 {
		t.Fatalf("previous entries lost on a failed fetch: %d", len(imported))
	}
	feed, _ := factory.FeedRepo.ByID(ctx, "feed-a")
	if feed.SyncStatus != domaincalendar.SyncFailed {
		t.Errorf("sync status: got %s, want error", feed.SyncStatus)
	}
}

func TestSyncSkipsInvalidRanges(t *testing.T) {
	ctx := context.Background()
	factory := memory.NewFactory()
	seedFeed(t, factory, "feed-a", "airbnb", "https://a.example.com/cal.ics", true)

	fetcher := &stubFetcher{events: map[string][]policies.FeedEvent{
		"https://a.example.com/cal.ics": {
			{UID: "zero", StartDate: day(2026, 7, 1), EndDate: day(2026, 7, 1)},
			{UID: "ok", StartDate: day(2026, 7, 2), EndDate: day(2026, 7, 5)},
		},
	}}
	syncer := &Syncer{UoWFactory: factory, Fetcher: fetcher, Logger: quietLogger()}

	report, err := syncer.SyncFeed(ctx, "feed-a")
	if err != nil {
		t.Fatalf("SyncFeed: %v", err)
	}
	if report.Imported != 1 || report.Error != "" {
		t.Errorf("report: %+v", report)
	}
}

func TestSyncFeedUnknownID(t *testing.T) {
	syncer := &Syncer{UoWFactory: memory.NewFactory(), Fetcher: &stubFetcher{}, Logger: quietLogger()}
	_, err := syncer.SyncFeed(context.Background(), "nope")
	if !errors.Is(err, domaincalendar.ErrFeedNotFound) {
		t.Fatalf("got %v, want ErrFeedNotFound", err)
	}
}
