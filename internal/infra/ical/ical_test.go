package ical

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"whistleinn/internal/app/dto"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBuild(t *testing.T) {
	export := dto.CalendarExport{Entries: []dto.CalendarEntry{
		{
			UID:       "bk-1@whistleinn",
			Summary:   "Reserved",
			StartDate: day(2026, 7, 10),
			EndDate:   day(2026, 7, 13),
			CreatedAt: day(2026, 7, 1),
		},
		{
			UID:       "bk-2@whistleinn",
			Summary:   "Reserved",
			StartDate: day(2026, 8, 1),
			EndDate:   day(2026, 8, 4),
			CreatedAt: day(2026, 7, 20),
		},
	}}

	body := Build(export)
	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"END:VCALENDAR",
		"METHOD:PUBLISH",
		"UID:bk-1@whistleinn",
		"UID:bk-2@whistleinn",
		"SUMMARY:Reserved",
		"STATUS:CONFIRMED",
		"DTSTART;VALUE=DATE:20260710",
		"DTEND;VALUE=DATE:20260713",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("missing %q in serialized calendar:\n%s", want, body)
		}
	}
	if got := strings.Count(body, "BEGIN:VEVENT"); got != 2 {
		t.Errorf("got %d events, want 2", got)
	}
}

func TestBuildEmpty(t *testing.T) {
	body := Build(dto.CalendarExport{})
	if strings.Contains(body, "BEGIN:VEVENT") {
		t.Error("empty export must produce no events")
	}
	if !strings.Contains(body, "BEGIN:VCALENDAR") {
		t.Error("still a valid calendar document")
	}
}

func TestFetchRoundTrip(t *testing.T) {
	export := dto.CalendarExport{Entries: []dto.CalendarEntry{
		{
			UID:       "abc-1@other.platform",
			Summary:   "Airbnb (Not available)",
			StartDate: day(2026, 7, 10),
			EndDate:   day(2026, 7, 13),
			CreatedAt: day(2026, 7, 1),
		},
	}}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		_, _ = w.Write([]byte(Build(export)))
	}))
	defer server.Close()

	events, err := NewFetcher().Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.UID != "abc-1@other.platform" {
		t.Errorf("uid: got %q", ev.UID)
	}
	if ev.Summary != "Airbnb (Not available)" {
		t.Errorf("summary: got %q", ev.Summary)
	}
	if !ev.StartDate.Equal(day(2026, 7, 10)) || !ev.EndDate.Equal(day(2026, 7, 13)) {
		t.Errorf("range: got [%v, %v)", ev.StartDate, ev.EndDate)
	}
}

func TestFetchRejectsNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer server.Close()

	if _, err := NewFetcher().Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("expected an error for a non-200 response")
	}
}

func TestFetchRejectsGarbage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not a calendar</html>"))
	}))
	defer server.Close()

	if _, err := NewFetcher().Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("expected a parse error")
	}
}
