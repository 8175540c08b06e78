package booking

import (
	"context"
	"time"

	"whistleinn/internal/app/dto"
	"whistleinn/internal/app/queries"
	"whistleinn/internal/app/uow"
	domainbooking "whistleinn/internal/domain/booking"
)

const (
	getBookingKey   = "booking.get"
	listBookingsKey = "booking.list"
)

type GetBookingQuery struct {
	BookingID string
}

func (q GetBookingQuery) Key() string { return getBookingKey }

type GetBookingHandler struct {
	UoWFactory uow.Factory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.BookingDetail, error) {
	ctx, unit, owned, err := uow.Acquire(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.BookingDetail{}, err
	}
	if owned {
		defer unit.Rollback(ctx)
	}
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.BookingDetail{}, err
	}
	return dto.MapBookingDetail(b), nil
}

var _ queries.Handler[GetBookingQuery, dto.BookingDetail] = (*GetBookingHandler)(nil)

type ListBookingsQuery struct {
	Statuses []string
	From     time.Time
	To       time.Time
}

func (q ListBookingsQuery) Key() string { return listBookingsKey }

type ListBookingsHandler struct {
	UoWFactory uow.Factory
}

func (h *ListBookingsHandler) Handle(ctx context.Context, q ListBookingsQuery) (dto.BookingCollection, error) {
	ctx, unit, owned, err := uow.Acquire(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if owned {
		defer unit.Rollback(ctx)
	}

	filter := domainbooking.ListFilter{From: q.From, To: q.To}
	for _, s := range q.Statuses {
		filter.Statuses = append(filter.Statuses, domainbooking.Status(s))
	}
	items, err := unit.Bookings().List(ctx, filter)
	if err != nil {
		return dto.BookingCollection{}, err
	}

	out := dto.BookingCollection{Items: make([]dto.BookingSummary, 0, len(items)), Total: len(items)}
	for _, b := range items {
		out.Items = append(out.Items, dto.MapBookingSummary(b))
	}
	return out, nil
}

var _ queries.Handler[ListBookingsQuery, dto.BookingCollection] = (*ListBookingsHandler)(nil)
