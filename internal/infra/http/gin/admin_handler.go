package ginserver

import (
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"whistleinn/internal/app/commands"
	"whistleinn/internal/app/dto"
	bookingapp "whistleinn/internal/app/handlers/booking"
	calendarapp "whistleinn/internal/app/handlers/calendar"
	couponsapp "whistleinn/internal/app/handlers/coupons"
	externalapp "whistleinn/internal/app/handlers/external"
	ratesapp "whistleinn/internal/app/handlers/rates"
	"whistleinn/internal/app/queries"
	"whistleinn/internal/app/services/feedsync"
)

type AdminHTTP interface {
	ListBookings(c *gin.Context)
	GetBooking(c *gin.Context)
	UpdateBookingStatus(c *gin.Context)

	ListRates(c *gin.Context)
	GetRate(c *gin.Context)
	CreateRate(c *gin.Context)
	UpdateRate(c *gin.Context)
	DeleteRate(c *gin.Context)

	ListCoupons(c *gin.Context)
	GetCoupon(c *gin.Context)
	CreateCoupon(c *gin.Context)
	UpdateCoupon(c *gin.Context)
	DeleteCoupon(c *gin.Context)

	ListExternalBookings(c *gin.Context)
	GetExternalBooking(c *gin.Context)
	CreateExternalBooking(c *gin.Context)
	UpdateExternalBooking(c *gin.Context)
	DeleteExternalBooking(c *gin.Context)

	ListFeeds(c *gin.Context)
	GetFeed(c *gin.Context)
	CreateFeed(c *gin.Context)
	UpdateFeed(c *gin.Context)
	DeleteFeed(c *gin.Context)
	SyncFeeds(c *gin.Context)
	SchedulerStatus(c *gin.Context)
}

// SchedulerInfo is the static view of the background workers exposed on the
// admin scheduler endpoint.
type SchedulerInfo struct {
	FeedSyncInterval string `json:"feed_sync_interval"`
	ReaperInterval   string `json:"reaper_interval"`
	PendingHoldTTL   string `json:"pending_hold_ttl"`
}

type AdminHandler struct {
	Commands  commands.Bus
	Queries   queries.Bus
	Rates     *ratesapp.AdminService
	Coupons   *couponsapp.AdminService
	External  *externalapp.AdminService
	Feeds     *calendarapp.FeedAdminService
	Syncer    *feedsync.Syncer
	Scheduler SchedulerInfo
	Logger    *slog.Logger
}

// Bookings

func (h AdminHandler) ListBookings(c *gin.Context) {
	q := bookingapp.ListBookingsQuery{}
	if statuses, ok := c.GetQueryArray("status"); ok {
		q.Statuses = statuses
	}
	if v := c.Query("from"); v != "" {
		t, err := parseDateParam(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
			return
		}
		q.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := parseDateParam(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
			return
		}
		q.To = t
	}
	result, err := queries.Ask[bookingapp.ListBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, q)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) GetBooking(c *gin.Context) {
	result, err := queries.Ask[bookingapp.GetBookingQuery, dto.BookingDetail](c.Request.Context(), h.Queries, bookingapp.GetBookingQuery{
		BookingID: c.Param("id"),
	})
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type updateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
	Notes  string `json:"notes"`
}

func (h AdminHandler) UpdateBookingStatus(c *gin.Context) {
	var req updateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.UpdateBookingStatusCommand{
		BookingID: c.Param("id"),
		Status:    req.Status,
		Reason:    req.Reason,
		Notes:     req.Notes,
	}
	result, err := commands.Dispatch[bookingapp.UpdateBookingStatusCommand, *bookingapp.UpdateBookingStatusResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Special rates

type rateRequest struct {
	Label      string    `json:"label" binding:"required"`
	StartDate  time.Time `json:"start_date" binding:"required"`
	EndDate    time.Time `json:"end_date" binding:"required"`
	PricePer   *int64    `json:"price_per_night"`
	Multiplier *float64  `json:"multiplier"`
}

func (r rateRequest) params() ratesapp.UpsertParams {
	return ratesapp.UpsertParams{
		Label:      r.Label,
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		PricePer:   r.PricePer,
		Multiplier: r.Multiplier,
	}
}

func (h AdminHandler) ListRates(c *gin.Context) {
	items, err := h.Rates.List(c.Request.Context())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h AdminHandler) GetRate(c *gin.Context) {
	item, err := h.Rates.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h AdminHandler) CreateRate(c *gin.Context) {
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.Rates.Create(c.Request.Context(), req.params())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h AdminHandler) UpdateRate(c *gin.Context) {
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.Rates.Update(c.Request.Context(), c.Param("id"), req.params())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h AdminHandler) DeleteRate(c *gin.Context) {
	if err := h.Rates.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Coupons

type couponRequest struct {
	Code       string     `json:"code" binding:"required"`
	Kind       string     `json:"kind" binding:"required"`
	Value      int64      `json:"value" binding:"required"`
	Active     bool       `json:"active"`
	ValidFrom  *time.Time `json:"valid_from"`
	ValidUntil *time.Time `json:"valid_until"`
	MaxUses    *int       `json:"max_uses"`
}

func (r couponRequest) params() couponsapp.UpsertParams {
	return couponsapp.UpsertParams{
		Code:       r.Code,
		Kind:       r.Kind,
		Value:      r.Value,
		Active:     r.Active,
		ValidFrom:  r.ValidFrom,
		ValidUntil: r.ValidUntil,
		MaxUses:    r.MaxUses,
	}
}

func (h AdminHandler) ListCoupons(c *gin.Context) {
	items, err := h.Coupons.List(c.Request.Context())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h AdminHandler) GetCoupon(c *gin.Context) {
	item, err := h.Coupons.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h AdminHandler) CreateCoupon(c *gin.Context) {
	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.Coupons.Create(c.Request.Context(), req.params())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h AdminHandler) UpdateCoupon(c *gin.Context) {
	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.Coupons.Update(c.Request.Context(), c.Param("id"), req.params())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h AdminHandler) DeleteCoupon(c *gin.Context) {
	if err := h.Coupons.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// External bookings (manual blocks and imported stays)

type externalBookingRequest struct {
	Source    string    `json:"source"`
	GuestName string    `json:"guest_name"`
	StartDate time.Time `json:"start_date" binding:"required"`
	EndDate   time.Time `json:"end_date" binding:"required"`
	Notes     string    `json:"notes"`
}

func (r externalBookingRequest) params() externalapp.UpsertParams {
	return externalapp.UpsertParams{
		Source:    r.Source,
		GuestName: r.GuestName,
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		Notes:     r.Notes,
	}
}

func (h AdminHandler) ListExternalBookings(c *gin.Context) {
	items, err := h.External.List(c.Request.Context())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h AdminHandler) GetExternalBooking(c *gin.Context) {
	item, err := h.External.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h AdminHandler) CreateExternalBooking(c *gin.Context) {
	var req externalBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.External.Create(c.Request.Context(), req.params())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h AdminHandler) UpdateExternalBooking(c *gin.Context) {
	var req externalBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.External.Update(c.Request.Context(), c.Param("id"), req.params())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h AdminHandler) DeleteExternalBooking(c *gin.Context) {
	if err := h.External.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// iCal feeds

type feedRequest struct {
	Name    string `json:"name" binding:"required"`
	Source  string `json:"source" binding:"required"`
	URL     string `json:"url" binding:"required"`
	Enabled *bool  `json:"enabled"`
}

func (r feedRequest) params() calendarapp.FeedUpsertParams {
	return calendarapp.FeedUpsertParams{
		Name:    r.Name,
		Source:  r.Source,
		URL:     r.URL,
		Enabled: r.Enabled,
	}
}

func (h AdminHandler) ListFeeds(c *gin.Context) {
	items, err := h.Feeds.List(c.Request.Context())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h AdminHandler) GetFeed(c *gin.Context) {
	item, err := h.Feeds.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h AdminHandler) CreateFeed(c *gin.Context) {
	var req feedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.Feeds.Create(c.Request.Context(), req.params())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h AdminHandler) UpdateFeed(c *gin.Context) {
	var req feedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.Feeds.Update(c.Request.Context(), c.Param("id"), req.params())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h AdminHandler) DeleteFeed(c *gin.Context) {
	if err := h.Feeds.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SyncFeeds triggers an on-demand import. With ?feed_id= it syncs one feed,
// otherwise every enabled feed.
func (h AdminHandler) SyncFeeds(c *gin.Context) {
	if feedID := c.Query("feed_id"); feedID != "" {
		report, err := h.Syncer.SyncFeed(c.Request.Context(), feedID)
		if err != nil {
			respondError(c, h.Logger, err)
			return
		}
		c.JSON(http.StatusOK, dto.SyncResult{Reports: []dto.FeedSyncReport{report}})
		return
	}
	result, err := h.Syncer.SyncAll(c.Request.Context())
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) SchedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.Scheduler)
}

var _ AdminHTTP = AdminHandler{}
