package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainbooking "whistleinn/internal/domain/booking"
	domaincalendar "whistleinn/internal/domain/calendar"
	domaincoupon "whistleinn/internal/domain/coupon"
	domainrates "whistleinn/internal/domain/rates"
	"whistleinn/internal/domain/shared/daterange"
)

// BookingRepository keeps bookings in memory. The nights map mirrors the
// per-night lock documents of the Mongo repository: one holder per night,
// enforced under the same mutex that guards the aggregates.
type BookingRepository struct {
	mu     sync.RWMutex
	items  map[domainbooking.BookingID]*domainbooking.Booking
	nights map[string]domainbooking.BookingID
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{
		items:  make(map[domainbooking.BookingID]*domainbooking.Booking),
		nights: make(map[string]domainbooking.BookingID),
	}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (r *BookingRepository) BySessionID(ctx context.Context, sessionID string) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.items {
		if b.SessionID == sessionID && sessionID != "" {
			return cloneBooking(b), nil
		}
	}
	return nil, domainbooking.ErrNotFound
}

func (r *BookingRepository) List(ctx context.Context, filter domainbooking.ListFilter) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domainbooking.Booking
	for _, b := range r.items {
		if !matchesFilter(b, filter) {
			continue
		}
		out = append(out, cloneBooking(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Range.Start.Before(out[j].Range.Start) })
	return out, nil
}

func (r *BookingRepository) AnyOverlapping(ctx context.Context, dr daterange.DateRange, statuses []domainbooking.Status) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.items {
		if !statusIn(b.Status, statuses) {
			continue
		}
		if b.Range.Overlaps(dr) {
			return true, nil
		}
	}
	return false, nil
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b.Version++
	r.items[b.ID] = cloneBooking(b)
	return nil
}

func (r *BookingRepository) HoldDates(ctx context.Context, id domainbooking.BookingID, dr daterange.DateRange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, 0, dr.Nights())
	for _, night := range dr.Days() {
		key := night.Format("2006-01-02")
		if holder, held := r.nights[key]; held && holder != id {
			return domainbooking.ErrDatesUnavailable
		}
		keys = append(keys, key)
	}
	for _, key := range keys {
		r.nights[key] = id
	}
	return nil
}

func (r *BookingRepository) ReleaseDates(ctx context.Context, id domainbooking.BookingID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, holder := range r.nights {
		if holder == id {
			delete(r.nights, key)
		}
	}
	return nil
}

func matchesFilter(b *domainbooking.Booking, filter domainbooking.ListFilter) bool {
	if len(filter.Statuses) > 0 && !statusIn(b.Status, filter.Statuses) {
		return false
	}
	if !filter.From.IsZero() && !filter.To.IsZero() {
		window := daterange.DateRange{Start: filter.From, End: filter.To}
		if !b.Range.Overlaps(window) {
			return false
		}
	}
	if !filter.CreatedBefore.IsZero() && !b.CreatedAt.Before(filter.CreatedBefore) {
		return false
	}
	return true
}

func statusIn(status domainbooking.Status, set []domainbooking.Status) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	copied := *b
	copied.ClearEvents()
	return &copied
}

// ExternalRepository keeps external bookings in memory.
type ExternalRepository struct {
	mu    sync.RWMutex
	items map[string]*domaincalendar.ExternalBooking
}

func NewExternalRepository() *ExternalRepository {
	return &ExternalRepository{items: make(map[string]*domaincalendar.ExternalBooking)}
}

func (r *ExternalRepository) ByID(ctx context.Context, id string) (*domaincalendar.ExternalBooking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	eb, ok := r.items[id]
	if !ok {
		return nil, domaincalendar.ErrExternalNotFound
	}
	copied := *eb
	return &copied, nil
}

func (r *ExternalRepository) List(ctx context.Context) ([]*domaincalendar.ExternalBooking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domaincalendar.ExternalBooking, 0, len(r.items))
	for _, eb := range r.items {
		copied := *eb
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Range.Start.Before(out[j].Range.Start) })
	return out, nil
}

func (r *ExternalRepository) Overlapping(ctx context.Context, dr daterange.DateRange) ([]*domaincalendar.ExternalBooking, error) {
	all, _ := r.List(ctx)
	var out []*domaincalendar.ExternalBooking
	for _, eb := range all {
		if eb.Range.Overlaps(dr) {
			out = append(out, eb)
		}
	}
	return out, nil
}

func (r *ExternalRepository) Save(ctx context.Context, eb *domaincalendar.ExternalBooking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *eb
	r.items[eb.ID] = &copied
	return nil
}

func (r *ExternalRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domaincalendar.ErrExternalNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *ExternalRepository) ReplaceBySource(ctx context.Context, source string, entries []*domaincalendar.ExternalBooking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, eb := range r.items {
		if eb.Source == source {
			delete(r.items, id)
		}
	}
	for _, eb := range entries {
		copied := *eb
		r.items[eb.ID] = &copied
	}
	return nil
}

// RatesRepository keeps special rates in memory, returned newest first.
type RatesRepository struct {
	mu    sync.RWMutex
	items map[string]*domainrates.SpecialRate
}

func NewRatesRepository() *RatesRepository {
	return &RatesRepository{items: make(map[string]*domainrates.SpecialRate)}
}

func (r *RatesRepository) ByID(ctx context.Context, id string) (*domainrates.SpecialRate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rate, ok := r.items[id]
	if !ok {
		return nil, domainrates.ErrRateNotFound
	}
	copied := *rate
	return &copied, nil
}

func (r *RatesRepository) Overlapping(ctx context.Context, dr daterange.DateRange) ([]*domainrates.SpecialRate, error) {
	all, _ := r.List(ctx)
	var out []*domainrates.SpecialRate
	for _, rate := range all {
		if rate.Range.Overlaps(dr) {
			out = append(out, rate)
		}
	}
	return out, nil
}

func (r *RatesRepository) List(ctx context.Context) ([]*domainrates.SpecialRate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domainrates.SpecialRate, 0, len(r.items))
	for _, rate := range r.items {
		copied := *rate
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *RatesRepository) Save(ctx context.Context, rate *domainrates.SpecialRate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *rate
	r.items[rate.ID] = &copied
	return nil
}

func (r *RatesRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domainrates.ErrRateNotFound
	}
	delete(r.items, id)
	return nil
}

// CouponRepository keeps coupons in memory with an atomic Redeem.
type CouponRepository struct {
	mu    sync.Mutex
	items map[string]*domaincoupon.Coupon
}

func NewCouponRepository() *CouponRepository {
	return &CouponRepository{items: make(map[string]*domaincoupon.Coupon)}
}

func (r *CouponRepository) ByID(ctx context.Context, id string) (*domaincoupon.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return nil, domaincoupon.ErrNotFound
	}
	copied := *c
	return &copied, nil
}

func (r *CouponRepository) ByCode(ctx context.Context, code string) (*domaincoupon.Coupon, error) {
	code = domaincoupon.NormalizeCode(code)
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.items {
		if c.Code == code {
			copied := *c
			return &copied, nil
		}
	}
	return nil, domaincoupon.ErrNotFound
}

func (r *CouponRepository) List(ctx context.Context) ([]*domaincoupon.Coupon, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domaincoupon.Coupon, 0, len(r.items))
	for _, c := range r.items {
		copied := *c
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *CouponRepository) Save(ctx context.Context, c *domaincoupon.Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *c
	r.items[c.ID] = &copied
	return nil
}

func (r *CouponRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domaincoupon.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *CouponRepository) Redeem(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.items[id]
	if !ok {
		return domaincoupon.ErrNotFound
	}
	if c.MaxUses != nil && c.UsedCount >= *c.MaxUses {
		return domaincoupon.ErrRedeemConflict
	}
	c.UsedCount++
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// FeedRepository keeps iCal feeds in memory.
type FeedRepository struct {
	mu    sync.RWMutex
	items map[string]*domaincalendar.Feed
}

func NewFeedRepository() *FeedRepository {
	return &FeedRepository{items: make(map[string]*domaincalendar.Feed)}
}

func (r *FeedRepository) ByID(ctx context.Context, id string) (*domaincalendar.Feed, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.items[id]
	if !ok {
		return nil, domaincalendar.ErrFeedNotFound
	}
	copied := *f
	return &copied, nil
}

func (r *FeedRepository) List(ctx context.Context) ([]*domaincalendar.Feed, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domaincalendar.Feed, 0, len(r.items))
	for _, f := range r.items {
		copied := *f
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *FeedRepository) Save(ctx context.Context, f *domaincalendar.Feed) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *f
	r.items[f.ID] = &copied
	return nil
}

func (r *FeedRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domaincalendar.ErrFeedNotFound
	}
	delete(r.items, id)
	return nil
}
