package external

import (
	"context"
	"time"

	"github.com/google/uuid"

	"whistleinn/internal/app/dto"
	"whistleinn/internal/app/uow"
	domaincalendar "whistleinn/internal/domain/calendar"
	"whistleinn/internal/domain/shared/daterange"
)

// AdminService is the admin CRUD surface for external bookings: manual blocks
// and corrections to imported entries.
type AdminService struct {
	UoWFactory uow.Factory
}

type UpsertParams struct {
	Source    string
	GuestName string
	StartDate time.Time
	EndDate   time.Time
	Notes     string
}

func (s *AdminService) List(ctx context.Context) ([]dto.ExternalBooking, error) {
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer unit.Rollback(ctx)

	items, err := unit.External().List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ExternalBooking, 0, len(items))
	for _, eb := range items {
		out = append(out, dto.MapExternalBooking(eb))
	}
	return out, nil
}

func (s *AdminService) Get(ctx context.Context, id string) (dto.ExternalBooking, error) {
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.ExternalBooking{}, err
	}
	defer unit.Rollback(ctx)

	eb, err := unit.External().ByID(ctx, id)
	if err != nil {
		return dto.ExternalBooking{}, err
	}
	return dto.MapExternalBooking(eb), nil
}

func (s *AdminService) Create(ctx context.Context, params UpsertParams) (dto.ExternalBooking, error) {
	dr, err := daterange.New(params.StartDate, params.EndDate)
	if err != nil {
		return dto.ExternalBooking{}, err
	}
	source := params.Source
	if source == "" {
		source = "manual"
	}
	eb, err := domaincalendar.NewExternalBooking(domaincalendar.ExternalParams{
		ID:        uuid.NewString(),
		Source:    source,
		GuestName: params.GuestName,
		Range:     dr,
		Notes:     params.Notes,
		Now:       time.Now(),
	})
	if err != nil {
		return dto.ExternalBooking{}, err
	}

	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return dto.ExternalBooking{}, err
	}
	if err := unit.External().Save(ctx, eb); err != nil {
		_ = unit.Rollback(ctx)
		return dto.ExternalBooking{}, err
	}
	if err := unit.Commit(ctx); err != nil {
		return dto.ExternalBooking{}, err
	}
	return dto.MapExternalBooking(eb), nil
}

func (s *AdminService) Update(ctx context.Context, id string, params UpsertParams) (dto.ExternalBooking, error) {
	dr, err := daterange.New(params.StartDate, params.EndDate)
	if err != nil {
		return dto.ExternalBooking{}, err
	}
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return dto.ExternalBooking{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	eb, err := unit.External().ByID(ctx, id)
	if err != nil {
		return dto.ExternalBooking{}, err
	}
	if params.Source != "" {
		eb.Source = params.Source
	}
	eb.GuestName = params.GuestName
	eb.Range = dr
	eb.Notes = params.Notes
	eb.UpdatedAt = time.Now().UTC()

	if err := unit.External().Save(ctx, eb); err != nil {
		return dto.ExternalBooking{}, err
	}
	if err := unit.Commit(ctx); err != nil {
		return dto.ExternalBooking{}, err
	}
	committed = true
	return dto.MapExternalBooking(eb), nil
}

func (s *AdminService) Delete(ctx context.Context, id string) error {
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	if err := unit.External().Delete(ctx, id); err != nil {
		_ = unit.Rollback(ctx)
		return err
	}
	return unit.Commit(ctx)
}
