package daterange

import (
	"errors"
	"testing"
	"time"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		start   time.Time
		end     time.Time
		wantErr error
		nights  int
	}{
		{"three nights", day(2026, 3, 2), day(2026, 3, 5), nil, 3},
		{"single night", day(2026, 3, 2), day(2026, 3, 3), nil, 1},
		{"same day", day(2026, 3, 2), day(2026, 3, 2), ErrInvalidRange, 0},
		{"reversed", day(2026, 3, 5), day(2026, 3, 2), ErrInvalidRange, 0},
		{"zero start", time.Time{}, day(2026, 3, 5), ErrInvalidRange, 0},
		{"truncates to midnight", day(2026, 3, 2).Add(15 * time.Hour), day(2026, 3, 5).Add(11 * time.Hour), nil, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dr, err := New(tt.start, tt.end)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("New: got error %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if got := dr.Nights(); got != tt.nights {
				t.Errorf("Nights: got %d, want %d", got, tt.nights)
			}
			if dr.Start.Hour() != 0 || dr.End.Hour() != 0 {
				t.Errorf("bounds not normalized to midnight: %v %v", dr.Start, dr.End)
			}
		})
	}
}

func TestOverlaps(t *testing.T) {
	base, _ := New(day(2026, 3, 10), day(2026, 3, 14))
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{"identical", day(2026, 3, 10), day(2026, 3, 14), true},
		{"contained", day(2026, 3, 11), day(2026, 3, 13), true},
		{"straddles start", day(2026, 3, 8), day(2026, 3, 11), true},
		{"straddles end", day(2026, 3, 13), day(2026, 3, 16), true},
		{"checkout day is checkin day", day(2026, 3, 14), day(2026, 3, 17), false},
		{"ends on checkin day", day(2026, 3, 7), day(2026, 3, 10), false},
		{"disjoint before", day(2026, 3, 1), day(2026, 3, 5), false},
		{"disjoint after", day(2026, 3, 20), day(2026, 3, 25), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			other, _ := New(tt.start, tt.end)
			if got := base.Overlaps(other); got != tt.want {
				t.Errorf("Overlaps: got %v, want %v", got, tt.want)
			}
			if got := other.Overlaps(base); got != tt.want {
				t.Errorf("Overlaps is not symmetric: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContainsDay(t *testing.T) {
	dr, _ := New(day(2026, 3, 10), day(2026, 3, 13))
	if !dr.ContainsDay(day(2026, 3, 10)) {
		t.Error("checkin day should be contained")
	}
	if !dr.ContainsDay(day(2026, 3, 12)) {
		t.Error("last night should be contained")
	}
	if dr.ContainsDay(day(2026, 3, 13)) {
		t.Error("checkout day must not be contained")
	}
}

func TestDays(t *testing.T) {
	dr, _ := New(day(2026, 3, 10), day(2026, 3, 13))
	days := dr.Days()
	if len(days) != 3 {
		t.Fatalf("got %d days, want 3", len(days))
	}
	if !days[0].Equal(day(2026, 3, 10)) || !days[2].Equal(day(2026, 3, 12)) {
		t.Errorf("unexpected days: %v", days)
	}
}

func TestAdjacent(t *testing.T) {
	a, _ := New(day(2026, 3, 10), day(2026, 3, 13))
	b, _ := New(day(2026, 3, 13), day(2026, 3, 15))
	c, _ := New(day(2026, 3, 14), day(2026, 3, 16))
	if !a.Adjacent(b) || !b.Adjacent(a) {
		t.Error("back-to-back ranges should be adjacent")
	}
	if a.Adjacent(c) {
		t.Error("ranges with a gap are not adjacent")
	}
}
