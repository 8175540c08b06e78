package calendar

import (
	"context"
	"errors"
	"time"

	"whistleinn/internal/domain/shared/daterange"
)

var (
	ErrExternalNotFound = errors.New("calendar: external booking not found")
	ErrSourceRequired   = errors.New("calendar: source required")
)

// ExternalBooking blocks availability for a reservation made outside this
// system: another platform's calendar or a manual admin block. It is never
// paid here.
type ExternalBooking struct {
	ID        string
	Source    string
	GuestName string
	Range     daterange.DateRange
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ExternalRepository persists external bookings. ReplaceBySource swaps a
// feed's entries wholesale on each successful sync.
type ExternalRepository interface {
	ByID(ctx context.Context, id string) (*ExternalBooking, error)
	List(ctx context.Context) ([]*ExternalBooking, error)
	Overlapping(ctx context.Context, dr daterange.DateRange) ([]*ExternalBooking, error)
	Save(ctx context.Context, eb *ExternalBooking) error
	Delete(ctx context.Context, id string) error
	ReplaceBySource(ctx context.Context, source string, entries []*ExternalBooking) error
}

type ExternalParams struct {
	ID        string
	Source    string
	GuestName string
	Range     daterange.DateRange
	Notes     string
	Now       time.Time
}

func NewExternalBooking(params ExternalParams) (*ExternalBooking, error) {
	if params.Source == "" {
		return nil, ErrSourceRequired
	}
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	now := params.Now.UTC()
	return &ExternalBooking{
		ID:        params.ID,
		Source:    params.Source,
		GuestName: params.GuestName,
		Range:     params.Range,
		Notes:     params.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
