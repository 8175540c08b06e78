package ginserver

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"

	"whistleinn/internal/app/dto"
	availabilityapp "whistleinn/internal/app/handlers/availability"
	"whistleinn/internal/app/queries"
	domainbooking "whistleinn/internal/domain/booking"
	"whistleinn/internal/domain/shared/daterange"
	"whistleinn/internal/infra/storage/memory"
)

func newAvailabilityRouter(t *testing.T, factory memory.Factory) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	bus := queries.NewInMemoryBus()
	queries.RegisterHandler(bus, availabilityapp.BlockedRangesQuery{}.Key(), &availabilityapp.BlockedRangesHandler{
		UoWFactory: factory,
	})
	router := gin.New()
	router.GET("/api/v1/availability", AvailabilityHandler{
		Queries: bus,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}.BlockedRanges)
	return router
}

func seedPaidBooking(t *testing.T, factory memory.Factory, id string, start time.Time) {
	t.Helper()
	dr, err := daterange.New(start, start.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("daterange.New: %v", err)
	}
	b, err := domainbooking.NewPending(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(id),
		Range:     dr,
		GuestName: "Nia",
		Guests:    2,
		Now:       time.Now(),
	})
	if err != nil {
		t.Fatalf("NewPending: %v", err)
	}
	if err := b.MarkPaid("pi_"+id, "", "", time.Now()); err != nil {
		t.Fatalf("MarkPaid: %v", err)
	}
	b.ClearEvents()
	if err := factory.BookingRepo.Save(context.Background(), b); err != nil {
		t.Fatalf("Save: %v", err)
	}
}

func TestAvailabilityDefaultsWindowWithoutParams(t *testing.T) {
	factory := memory.NewFactory()
	start := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 1, 0)
	seedPaidBooking(t, factory, "bk-1", start)
	router := newAvailabilityRouter(t, factory)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/availability", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d (%s), want 200", rec.Code, rec.Body.String())
	}
	var out dto.BlockedRanges
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Items) != 1 {
		t.Fatalf("items: got %d, want 1", len(out.Items))
	}
	if !out.Items[0].StartDate.Equal(start) {
		t.Errorf("start: got %s, want %s", out.Items[0].StartDate, start)
	}
}

func TestAvailabilityExplicitWindowFilters(t *testing.T) {
	factory := memory.NewFactory()
	seedPaidBooking(t, factory, "bk-1", time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC))
	router := newAvailabilityRouter(t, factory)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/availability?from=2027-02-01&to=2027-03-01", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	var out dto.BlockedRanges
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Items) != 0 {
		t.Errorf("items outside the window: %+v", out.Items)
	}
}

func TestAvailabilityRejectsMalformedDates(t *testing.T) {
	router := newAvailabilityRouter(t, memory.NewFactory())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/availability?from=not-a-date", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rec.Code)
	}
}
