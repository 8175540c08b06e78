package dto

import (
	"time"

	domainbooking "whistleinn/internal/domain/booking"
	domaincalendar "whistleinn/internal/domain/calendar"
)

type BookingSummary struct {
	ID           string    `json:"id"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	GuestName    string    `json:"guest_name"`
	GuestEmail   string    `json:"guest_email"`
	Guests       int       `json:"guests"`
	Status       string    `json:"status"`
	Total        MoneyDTO  `json:"total"`
	PaymentRef   string    `json:"payment_ref,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	CancelReason string    `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type BookingDetail struct {
	BookingSummary
	Price Quote `json:"price"`
}

type BookingCollection struct {
	Items []BookingSummary `json:"items"`
	Total int              `json:"total"`
}

func MapBookingSummary(b *domainbooking.Booking) BookingSummary {
	return BookingSummary{
		ID:           string(b.ID),
		StartDate:    b.Range.Start,
		EndDate:      b.Range.End,
		GuestName:    b.GuestName,
		GuestEmail:   b.GuestEmail,
		Guests:       b.Guests,
		Status:       string(b.Status),
		Total:        MapMoney(b.Price.Total),
		PaymentRef:   b.PaymentRef,
		Notes:        b.Notes,
		CancelReason: b.CancelReason,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func MapBookingDetail(b *domainbooking.Booking) BookingDetail {
	return BookingDetail{
		BookingSummary: MapBookingSummary(b),
		Price:          MapQuote(b.Price),
	}
}

type ExternalBooking struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`
	GuestName string    `json:"guest_name"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func MapExternalBooking(eb *domaincalendar.ExternalBooking) ExternalBooking {
	return ExternalBooking{
		ID:        eb.ID,
		Source:    eb.Source,
		GuestName: eb.GuestName,
		StartDate: eb.Range.Start,
		EndDate:   eb.Range.End,
		Notes:     eb.Notes,
		CreatedAt: eb.CreatedAt,
	}
}
