package calendar

import (
	"context"

	"whistleinn/internal/app/dto"
	"whistleinn/internal/app/queries"
	"whistleinn/internal/app/uow"
	domainbooking "whistleinn/internal/domain/booking"
)

const exportKey = "calendar.export"

// ExportQuery produces the entries for the public iCal feed. Only paid stays
// are published, each as an anonymous all-day "Reserved" block: the feed is
// consumed by other platforms and must not leak guest details.
type ExportQuery struct{}

func (q ExportQuery) Key() string { return exportKey }

type ExportHandler struct {
	UoWFactory uow.Factory
}

func (h *ExportHandler) Handle(ctx context.Context, q ExportQuery) (dto.CalendarExport, error) {
	ctx, unit, owned, err := uow.Acquire(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.CalendarExport{}, err
	}
	if owned {
		defer unit.Rollback(ctx)
	}

	paid, err := unit.Bookings().List(ctx, domainbooking.ListFilter{
		Statuses: []domainbooking.Status{domainbooking.StatusPaid},
	})
	if err != nil {
		return dto.CalendarExport{}, err
	}

	out := dto.CalendarExport{Entries: make([]dto.CalendarEntry, 0, len(paid))}
	for _, b := range paid {
		out.Entries = append(out.Entries, dto.CalendarEntry{
			UID:       string(b.ID) + "@whistleinn",
			Summary:   "Reserved",
			StartDate: b.Range.Start,
			EndDate:   b.Range.End,
			CreatedAt: b.CreatedAt,
		})
	}
	return out, nil
}

var _ queries.Handler[ExportQuery, dto.CalendarExport] = (*ExportHandler)(nil)
