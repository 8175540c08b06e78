package calendar

import (
	"context"
	"time"

	"github.com/google/uuid"

	"whistleinn/internal/app/dto"
	"whistleinn/internal/app/uow"
	domaincalendar "whistleinn/internal/domain/calendar"
)

// FeedAdminService is the admin CRUD surface for iCal feed subscriptions.
type FeedAdminService struct {
	UoWFactory uow.Factory
}

type FeedUpsertParams struct {
	Name    string
	Source  string
	URL     string
	Enabled *bool
}

func (s *FeedAdminService) List(ctx context.Context) ([]dto.Feed, error) {
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, err
	}
	defer unit.Rollback(ctx)

	feeds, err := unit.Feeds().List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.Feed, 0, len(feeds))
	for _, f := range feeds {
		out = append(out, dto.MapFeed(f))
	}
	return out, nil
}

func (s *FeedAdminService) Get(ctx context.Context, id string) (dto.Feed, error) {
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return dto.Feed{}, err
	}
	defer unit.Rollback(ctx)

	f, err := unit.Feeds().ByID(ctx, id)
	if err != nil {
		return dto.Feed{}, err
	}
	return dto.MapFeed(f), nil
}

func (s *FeedAdminService) Create(ctx context.Context, params FeedUpsertParams) (dto.Feed, error) {
	f, err := domaincalendar.NewFeed(domaincalendar.FeedParams{
		ID:     uuid.NewString(),
		Name:   params.Name,
		Source: params.Source,
		URL:    params.URL,
		Now:    time.Now(),
	})
	if err != nil {
		return dto.Feed{}, err
	}
	if params.Enabled != nil {
		f.Enabled = *params.Enabled
	}

	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return dto.Feed{}, err
	}
	if err := unit.Feeds().Save(ctx, f); err != nil {
		_ = unit.Rollback(ctx)
		return dto.Feed{}, err
	}
	if err := unit.Commit(ctx); err != nil {
		return dto.Feed{}, err
	}
	return dto.MapFeed(f), nil
}

func (s *FeedAdminService) Update(ctx context.Context, id string, params FeedUpsertParams) (dto.Feed, error) {
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return dto.Feed{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	f, err := unit.Feeds().ByID(ctx, id)
	if err != nil {
		return dto.Feed{}, err
	}
	if params.Name != "" {
		f.Name = params.Name
	}
	if params.Source != "" {
		f.Source = params.Source
	}
	if params.URL != "" {
		f.URL = params.URL
	}
	if params.Enabled != nil {
		f.Enabled = *params.Enabled
	}
	f.UpdatedAt = time.Now().UTC()

	if err := unit.Feeds().Save(ctx, f); err != nil {
		return dto.Feed{}, err
	}
	if err := unit.Commit(ctx); err != nil {
		return dto.Feed{}, err
	}
	committed = true
	return dto.MapFeed(f), nil
}

// Delete removes the subscription and the external bookings it imported, so
// the availability calendar stops honoring a feed the moment it is dropped.
func (s *FeedAdminService) Delete(ctx context.Context, id string) error {
	unit, err := s.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(ctx)
		}
	}()

	f, err := unit.Feeds().ByID(ctx, id)
	if err != nil {
		return err
	}
	if err := unit.External().ReplaceBySource(ctx, f.Source, nil); err != nil {
		return err
	}
	if err := unit.Feeds().Delete(ctx, id); err != nil {
		return err
	}
	if err := unit.Commit(ctx); err != nil {
		return err
	}
	committed = true
	return nil
}
