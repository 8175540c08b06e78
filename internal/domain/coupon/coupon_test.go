package coupon

import (
	"errors"
	"testing"
	"time"

	"whistleinn/internal/domain/shared/money"
)

func timePtr(t time.Time) *time.Time { return &t }

func intPtr(n int) *int { return &n }

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"summer10", "SUMMER10"},
		{"  Summer10 ", "SUMMER10"},
		{"SUMMER10", "SUMMER10"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeCode(tt.in); got != tt.want {
			t.Errorf("NormalizeCode(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNew(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		params  CreateParams
		wantErr error
	}{
		{"valid percent", CreateParams{ID: "1", Code: "ten", Kind: DiscountPercent, Value: 10, Active: true, Now: now}, nil},
		{"valid fixed", CreateParams{ID: "2", Code: "fifty", Kind: DiscountFixed, Value: 50, Active: true, Now: now}, nil},
		{"missing code", CreateParams{ID: "3", Kind: DiscountPercent, Value: 10, Now: now}, ErrCodeRequired},
		{"zero value", CreateParams{ID: "4", Code: "zero", Kind: DiscountPercent, Value: 0, Now: now}, ErrValueInvalid},
		{"unknown kind", CreateParams{ID: "5", Code: "odd", Kind: "WEIRD", Value: 10, Now: now}, ErrUnknownKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.params)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("New: got error %v, want %v", err, tt.wantErr)
			}
			if err == nil && c.Code != NormalizeCode(tt.params.Code) {
				t.Errorf("code not normalized: %q", c.Code)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	now := time.Date(2026, 5, 15, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		coupon  Coupon
		wantErr error
	}{
		{"active without window", Coupon{Active: true}, nil},
		{"inactive", Coupon{Active: false}, ErrInvalid},
		{"before window", Coupon{Active: true, ValidFrom: timePtr(now.AddDate(0, 0, 1))}, ErrInvalid},
		{"after window", Coupon{Active: true, ValidUntil: timePtr(now.AddDate(0, 0, -1))}, ErrInvalid},
		{"inside window", Coupon{Active: true, ValidFrom: timePtr(now.AddDate(0, 0, -1)), ValidUntil: timePtr(now.AddDate(0, 0, 1))}, nil},
		{"uses remaining", Coupon{Active: true, MaxUses: intPtr(5), UsedCount: 4}, nil},
		{"uses exhausted", Coupon{Active: true, MaxUses: intPtr(5), UsedCount: 5}, ErrUsesExhausted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.coupon.Validate(now); !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate: got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDiscountFor(t *testing.T) {
	subtotal := money.USD(1950)
	tests := []struct {
		name   string
		coupon Coupon
		want   int64
	}{
		{"ten percent", Coupon{Kind: DiscountPercent, Value: 10}, 195},
		{"hundred percent", Coupon{Kind: DiscountPercent, Value: 100}, 1950},
		{"fixed", Coupon{Kind: DiscountFixed, Value: 300}, 300},
		{"fixed clamped", Coupon{Kind: DiscountFixed, Value: 5000}, 1950},
		{"unknown kind", Coupon{Kind: "WEIRD", Value: 10}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.coupon.DiscountFor(subtotal)
			if got.Amount != tt.want {
				t.Errorf("DiscountFor: got %d, want %d", got.Amount, tt.want)
			}
			if got.Currency != "USD" {
				t.Errorf("currency: got %q", got.Currency)
			}
		})
	}
}
