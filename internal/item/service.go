package item

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/item/entity"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/internal/repomanager"
	userentity "github.com/ovaphlow/pitchfork/service-fullstack-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-fullstack-go/pkg/utilities"
)

var (
	ErrItemNotFound = apperr.New(apperr.KindNotFound, "Item not found")
	ErrNotPermitted = apperr.New(apperr.KindForbidden, "Not enough permissions")
)

const MsgItemDeleted = "Item deleted successfully"

// Service applies the ownership policy: regular users see and touch only
// their own items, superusers see everything.
type Service struct {
	rm     repomanager.Manager
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewService(rm repomanager.Manager, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{rm: rm, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) List(ctx context.Context, caller *userentity.User, skip, limit int) (*entity.ItemsPublic, error) {
	repo := s.rm.Items(s.rm.Conn())
	var (
		items []entity.Item
		count int
		err   error
	)
	if caller.IsSuperuser {
		if count, err = repo.Count(ctx); err == nil {
			items, err = repo.List(ctx, skip, limit)
		}
	} else {
		if count, err = repo.CountByOwner(ctx, caller.ID); err == nil {
			items, err = repo.ListByOwner(ctx, caller.ID, skip, limit)
		}
	}
	if err != nil {
		return nil, err
	}
	out := &entity.ItemsPublic{Data: make([]entity.ItemPublic, 0, len(items)), Count: count}
	for i := range items {
		out.Data = append(out.Data, items[i].Public())
	}
	return out, nil
}

// Get loads an item the caller may act on.
func (s *Service) Get(ctx context.Context, caller *userentity.User, id uuid.UUID) (*entity.Item, error) {
	it, err := s.rm.Items(s.rm.Conn()).GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	if !caller.IsSuperuser && it.OwnerID != caller.ID {
		return nil, ErrNotPermitted
	}
	return it, nil
}

func (s *Service) Create(ctx context.Context, caller *userentity.User, in entity.ItemCreate) (*entity.Item, error) {
	it := &entity.Item{
		ID:          utilities.NewUUID(),
		Title:       in.Title,
		Description: in.Description,
		OwnerID:     caller.ID,
		CreatedAt:   s.now(),
	}
	if err := s.rm.Items(s.rm.Conn()).Create(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

func (s *Service) Update(ctx context.Context, caller *userentity.User, id uuid.UUID, in entity.ItemUpdate) (*entity.Item, error) {
	it, err := s.Get(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		it.Title = *in.Title
	}
	if in.Description != nil {
		it.Description = in.Description
	}
	if err := s.rm.Items(s.rm.Conn()).Update(ctx, it); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return it, nil
}

func (s *Service) Delete(ctx context.Context, caller *userentity.User, id uuid.UUID) error {
	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}
	err := s.rm.Items(s.rm.Conn()).Delete(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return ErrItemNotFound
	}
	if err != nil {
		return err
	}
	s.logger.Debugw("item deleted", "item_id", id, "by", caller.ID)
	return nil
}
