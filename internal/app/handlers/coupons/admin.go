package coupons

import (
	"context"
	"time"

	"github.com/google/uuid"

	"whistleinn/internal/app/dto"
	"whistleinn/internal/app/uow"
	domaincoupon "whistleinn/internal/domain/coupon"
)

// AdminService is the admin CRUD surface for coupons.
type AdminService struct {
	UoWFactory uow.Factory
}

type UpsertParams struct {
	Code       string
	Kind       string
	Value      int64
	Active     bool
	ValidFrom  *time.Time
	ValidUntil *time.Time
	MaxUses    *int
}

func (s *AdminService) List(ctx context.Context) ([]dto.Coupon, error) {
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer unit.Rollback(ctx)

	coupons, err := unit.Coupons().List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.Coupon, 0, len(coupons))
	for _, c := range coupons {
		out = append(out, dto.MapCoupon(c))
	}
	return out, nil
}

func (s *AdminService) Get(ctx context.Context, id string) (dto.Coupon, error) {
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.Coupon{}, err
	}
	defer unit.Rollback(ctx)

	c, err := unit.Coupons().ByID(ctx, id)
	if err != nil {
		return dto.Coupon{}, err
	}
	return dto.MapCoupon(c), nil
}

func (s *AdminService) Create(ctx context.Context, params UpsertParams) (dto.Coupon, error) {
	c, err := domaincoupon.New(domaincoupon.CreateParams{
		ID:         uuid.NewString(),
		Code:       params.Code,
		Kind:       domaincoupon.DiscountKind(params.Kind),
		Value:      params.Value,
		Active:     params.Active,
		ValidFrom:  params.ValidFrom,
		ValidUntil: params.ValidUntil,
		MaxUses:    params.MaxUses,
		Now:        time.Now(),
	})
	if err != nil {
		return dto.Coupon{}, err
	}

	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return dto.Coupon{}, err
	}
	if err := unit.Coupons().Save(ctx, c); err != nil {
		_ = unit.Rollback(ctx)
		return dto.Coupon{}, err
	}
	if err := unit.Commit(ctx); err != nil {
		return dto.Coupon{}, err
	}
	return dto.MapCoupon(c), nil
}

func (s *AdminService) Update(ctx context.Context, id string, params UpsertParams) (dto.Coupon, error) {
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return dto.Coupon{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	c, err := unit.Coupons().ByID(ctx, id)
	if err != nil {
		return dto.Coupon{}, err
	}
	if params.Code != "" {
		c.Code = domaincoupon.NormalizeCode(params.Code)
	}
	if params.Kind != "" {
		switch kind := domaincoupon.DiscountKind(params.Kind); kind {
		case domaincoupon.DiscountPercent, domaincoupon.DiscountFixed:
			c.Kind = kind
		default:
			return dto.Coupon{}, domaincoupon.ErrUnknownKind
		}
	}
	if params.Value > 0 {
		c.Value = params.Value
	}
	c.Active = params.Active
	c.ValidFrom = params.ValidFrom
	c.ValidUntil = params.ValidUntil
	c.MaxUses = params.MaxUses
	c.UpdatedAt = time.Now().UTC()

	if err := unit.Coupons().Save(ctx, c); err != nil {
		return dto.Coupon{}, err
	}
	if err := unit.Commit(ctx); err != nil {
		return dto.Coupon{}, err
	}
	committed = true
	return dto.MapCoupon(c), nil
}

func (s *AdminService) Delete(ctx context.Context, id string) error {
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	if err := unit.Coupons().Delete(ctx, id); err != nil {
		_ = unit.Rollback(ctx)
		return err
	}
	return unit.Commit(ctx)
}
