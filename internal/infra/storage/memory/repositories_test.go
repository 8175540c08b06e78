package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	domainbooking "whistleinn/internal/domain/booking"
	"whistleinn/internal/domain/shared/daterange"
)

func mustRange(t *testing.T, start, end time.Time) daterange.DateRange {
	t.Helper()
	dr, err := daterange.New(start, end)
	if err != nil {
		t.Fatalf("daterange.New: %v", err)
	}
	return dr
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBookingRepositoryHoldDates(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository()

	first := mustRange(t, day(2026, 9, 1), day(2026, 9, 4))
	if err := repo.HoldDates(ctx, "bk-1", first); err != nil {
		t.Fatalf("first hold: %v", err)
	}

	// Any overlap with a held night loses, even a single shared night.
	overlapping := mustRange(t, day(2026, 9, 3), day(2026, 9, 6))
	if err := repo.HoldDates(ctx, "bk-2", overlapping); !errors.Is(err, domainbooking.ErrDatesUnavailable) {
		t.Fatalf("overlapping hold: got %v, want ErrDatesUnavailable", err)
	}

	// A losing hold must not leave partial night locks behind: the range
	// starting at the held booking's checkout day is still free.
	adjacent := mustRange(t, day(2026, 9, 4), day(2026, 9, 7))
	if err := repo.HoldDates(ctx, "bk-3", adjacent); err != nil {
		t.Fatalf("back-to-back hold: %v", err)
	}
}

func TestBookingRepositoryHoldDatesIsIdempotentPerBooking(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository()
	dr := mustRange(t, day(2026, 9, 1), day(2026, 9, 4))

	if err := repo.HoldDates(ctx, "bk-1", dr); err != nil {
		t.Fatalf("hold: %v", err)
	}
	if err := repo.HoldDates(ctx, "bk-1", dr); err != nil {
		t.Fatalf("re-hold by same booking: %v", err)
	}
}

func TestBookingRepositoryReleaseDatesFreesNights(t *testing.T) {
	ctx := context.Background()
	repo := NewBookingRepository()
	dr := mustRange(t, day(2026, 9, 1), day(2026, 9, 4))

	if err := repo.HoldDates(ctx, "bk-1", dr); err != nil {
		t.Fatalf("hold: %v", err)
	}
	if err := repo.ReleaseDates(ctx, "bk-1"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := repo.HoldDates(ctx, "bk-2", dr); err != nil {
		t.Fatalf("hold after release: %v", err)
	}
}
