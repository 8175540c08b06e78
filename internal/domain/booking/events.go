package booking

import (
	"whistleinn/internal/domain/shared/daterange"
	"whistleinn/internal/domain/shared/events"
)

// Created is recorded when a pending hold is inserted.
type Created struct {
	events.BaseEvent
	Range daterange.DateRange `json:"range"`
	Total int64               `json:"total"`
}

// Paid is recorded when the payment collaborator confirms the session.
type Paid struct {
	events.BaseEvent
	PaymentRef string `json:"payment_ref"`
	Total      int64  `json:"total"`
}

// Cancelled is recorded on admin cancellation or reaper expiry.
type Cancelled struct {
	events.BaseEvent
	Reason  string `json:"reason"`
	WasPaid bool   `json:"was_paid"`
}
