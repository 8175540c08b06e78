package availability

import (
	"context"
	"sort"
	"time"

	"whistleinn/internal/app/dto"
	"whistleinn/internal/app/queries"
	"whistleinn/internal/app/uow"
	domainbooking "whistleinn/internal/domain/booking"
	"whistleinn/internal/domain/shared/daterange"
)

const blockedRangesKey = "availability.blocked_ranges"

// BlockedRangesQuery asks for every unavailable interval inside a window.
// The public calendar widget consumes the result; it deliberately does not
// distinguish a pending hold from a paid stay or an external block.
type BlockedRangesQuery struct {
	From time.Time
	To   time.Time
}

func (q BlockedRangesQuery) Key() string { return blockedRangesKey }

type BlockedRangesHandler struct {
	UoWFactory uow.Factory
}

func (h *BlockedRangesHandler) Handle(ctx context.Context, q BlockedRangesQuery) (dto.BlockedRanges, error) {
	window, err := daterange.New(q.From, q.To)
	if err != nil {
		return dto.BlockedRanges{}, err
	}

	ctx, unit, owned, err := uow.Acquire(ctx, h.UoWFactory, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.BlockedRanges{}, err
	}
	if owned {
		defer unit.Rollback(ctx)
	}

	bookings, err := unit.Bookings().List(ctx, domainbooking.ListFilter{
		Statuses: domainbooking.HoldStatuses(),
		From:     window.Start,
		To:       window.End,
	})
	if err != nil {
		return dto.BlockedRanges{}, err
	}
	external, err := unit.External().Overlapping(ctx, window)
	if err != nil {
		return dto.BlockedRanges{}, err
	}

	ranges := make([]daterange.DateRange, 0, len(bookings)+len(external))
	for _, b := range bookings {
		ranges = append(ranges, b.Range)
	}
	for _, eb := range external {
		ranges = append(ranges, eb.Range)
	}

	out := dto.BlockedRanges{Items: make([]dto.BlockedRange, 0, len(ranges))}
	for _, r := range Merge(ranges) {
		out.Items = append(out.Items, dto.BlockedRange{StartDate: r.Start, EndDate: r.End})
	}
	return out, nil
}

var _ queries.Handler[BlockedRangesQuery, dto.BlockedRanges] = (*BlockedRangesHandler)(nil)

// Merge coalesces overlapping and back-to-back ranges into a sorted minimal
// set, so two consecutive stays render as one blocked interval.
func Merge(ranges []daterange.DateRange) []daterange.DateRange {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]daterange.DateRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })

	merged := []daterange.DateRange{sorted[0]}
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if last.Overlaps(r) || last.Adjacent(r) {
			if r.End.After(last.End) {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}
