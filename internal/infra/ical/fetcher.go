package ical

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"whistleinn/internal/app/policies"
)

// Fetcher retrieves and parses external iCal feeds over HTTP.
type Fetcher struct {
	Client  *http.Client
	Timeout time.Duration
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		Client:  &http.Client{Timeout: 30 * time.Second},
		Timeout: 30 * time.Second,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, url string) ([]policies.FeedEvent, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/calendar")

	resp, err := f.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("ical: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ical: fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	cal, err := ics.ParseCalendar(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ical: parse %s: %w", url, err)
	}
	return Events(cal), nil
}

func (f *Fetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

// Events extracts reservation events from a parsed calendar. Events without a
// parseable start or end are dropped; feeds from other platforms routinely
// contain informational entries.
func Events(cal *ics.Calendar) []policies.FeedEvent {
	var out []policies.FeedEvent
	for _, ev := range cal.Events() {
		start, err := eventStart(ev)
		if err != nil {
			continue
		}
		end, err := eventEnd(ev)
		if err != nil {
			continue
		}
		summary := ""
		if prop := ev.GetProperty(ics.ComponentPropertySummary); prop != nil {
			summary = strings.TrimSpace(prop.Value)
		}
		out = append(out, policies.FeedEvent{
			UID:       ev.Id(),
			Summary:   summary,
			StartDate: start,
			EndDate:   end,
		})
	}
	return out
}

func eventStart(ev *ics.VEvent) (time.Time, error) {
	if t, err := ev.GetAllDayStartAt(); err == nil {
		return t, nil
	}
	return ev.GetStartAt()
}

func eventEnd(ev *ics.VEvent) (time.Time, error) {
	if t, err := ev.GetAllDayEndAt(); err == nil {
		return t, nil
	}
	return ev.GetEndAt()
}

var _ policies.FeedFetcher = (*Fetcher)(nil)
