package rates

import (
	"context"
	"time"

	"github.com/google/uuid"

	"whistleinn/internal/app/dto"
	"whistleinn/internal/app/uow"
	domainrates "whistleinn/internal/domain/rates"
	"whistleinn/internal/domain/shared/daterange"
	"whistleinn/internal/domain/shared/money"
)

// AdminService is the admin CRUD surface for special rates.
type AdminService struct {
	UoWFactory uow.Factory
}

type UpsertParams struct {
	Label      string
	StartDate  time.Time
	EndDate    time.Time
	PricePer   *int64
	Multiplier *float64
}

func (s *AdminService) List(ctx context.Context) ([]dto.SpecialRate, error) {
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer unit.Rollback(ctx)

	rates, err := unit.Rates().List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SpecialRate, 0, len(rates))
	for _, r := range rates {
		out = append(out, dto.MapSpecialRate(r))
	}
	return out, nil
}

func (s *AdminService) Get(ctx context.Context, id string) (dto.SpecialRate, error) {
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.SpecialRate{}, err
	}
	defer unit.Rollback(ctx)

	rate, err := unit.Rates().ByID(ctx, id)
	if err != nil {
		return dto.SpecialRate{}, err
	}
	return dto.MapSpecialRate(rate), nil
}

func (s *AdminService) Create(ctx context.Context, params UpsertParams) (dto.SpecialRate, error) {
	dr, err := daterange.New(params.StartDate, params.EndDate)
	if err != nil {
		return dto.SpecialRate{}, err
	}
	rate, err := domainrates.NewSpecialRate(domainrates.CreateParams{
		ID:         uuid.NewString(),
		Label:      params.Label,
		Range:      dr,
		PricePer:   moneyPtr(params.PricePer),
		Multiplier: params.Multiplier,
		Now:        time.Now(),
	})
	if err != nil {
		return dto.SpecialRate{}, err
	}
	if err := s.save(ctx, rate); err != nil {
		return dto.SpecialRate{}, err
	}
	return dto.MapSpecialRate(rate), nil
}

func (s *AdminService) Update(ctx context.Context, id string, params UpsertParams) (dto.SpecialRate, error) {
	dr, err := daterange.New(params.StartDate, params.EndDate)
	if err != nil {
		return dto.SpecialRate{}, err
	}
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return dto.SpecialRate{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	rate, err := unit.Rates().ByID(ctx, id)
	if err != nil {
		return dto.SpecialRate{}, err
	}
	if params.Label != "" {
		rate.Label = params.Label
	}
	rate.Range = dr
	rate.PricePer = moneyPtr(params.PricePer)
	rate.Multiplier = params.Multiplier
	if rate.PricePer == nil && rate.Multiplier == nil {
		return dto.SpecialRate{}, domainrates.ErrNoPriceOrMulti
	}
	rate.UpdatedAt = time.Now().UTC()
	if err := unit.Rates().Save(ctx, rate); err != nil {
		return dto.SpecialRate{}, err
	}
	if err := unit.Commit(ctx); err != nil {
		return dto.SpecialRate{}, err
	}
	committed = true
	return dto.MapSpecialRate(rate), nil
}

func (s *AdminService) Delete(ctx context.Context, id string) error {
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	if err := unit.Rates().Delete(ctx, id); err != nil {
		_ = unit.Rollback(ctx)
		return err
	}
	return unit.Commit(ctx)
}

func (s *AdminService) save(ctx context.Context, rate *domainrates.SpecialRate) error {
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	if err := unit.Rates().Save(ctx, rate); err != nil {
		_ = unit.Rollback(ctx)
		return err
	}
	return unit.Commit(ctx)
}

func moneyPtr(amount *int64) *money.Money {
	if amount == nil {
		return nil
	}
	m := money.USD(*amount)
	return &m
}
