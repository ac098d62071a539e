package reservation

import (
	"context"
	"time"

	"github.com/openbookings/reservation-backend/internal/auth"
	"github.com/openbookings/reservation-backend/internal/pkg/query"
	"github.com/openbookings/reservation-backend/internal/user"
)

// CreateRequest carries the raw reservation fields. Times arrive as strings
// and are parsed to instants here so a malformed date is rejected, not
// string-compared.
type CreateRequest struct {
	ResourceID string
	StartTime  string
	EndTime    string
}

// UpdateRequest replaces the whole slot; a reservation can be moved to a
// different resource.
type UpdateRequest = CreateRequest

type Service interface {
	Create(ctx context.Context, actor *auth.Identity, req CreateRequest) (*Reservation, error)
	GetByID(ctx context.Context, id string) (*Reservation, error)
	List(ctx context.Context, q *query.Params) ([]*Reservation, int, error)
	Update(ctx context.Context, actor *auth.Identity, id string, req UpdateRequest) (*Reservation, error)
	Delete(ctx context.Context, actor *auth.Identity, id string) error
}

type service struct {
	repo        Repository
	userService user.Service
}

func NewService(repo Repository, userService user.Service) Service {
	return &service{repo: repo, userService: userService}
}

type slot struct {
	resourceID string
	start      time.Time
	end        time.Time
}

func parseSlot(req CreateRequest) (*slot, error) {
	if req.ResourceID == "" {
		return nil, ErrMissingResource
	}
	start, err := query.ParseTime(req.StartTime)
	if err != nil {
		return nil, ErrInvalidDates
	}
	end, err := query.ParseTime(req.EndTime)
	if err != nil {
		return nil, ErrInvalidDates
	}
	if !start.Before(end) {
		return nil, ErrStartAfterEnd
	}
	return &slot{resourceID: req.ResourceID, start: start, end: end}, nil
}

// schedule writes the reservation while holding a row lock on its resource,
// so the conflict check and the write are atomic against concurrent bookings
// of the same resource.
func (s *service) schedule(ctx context.Context, sl *slot, b *Reservation, write func(Repository) error) error {
	return s.repo.InTx(ctx, func(tx Repository) error {
		if err := tx.LockResource(ctx, sl.resourceID); err != nil {
			return err
		}
		conflictID, conflicted, err := tx.FirstConflict(ctx, sl.resourceID, sl.start, sl.end, b.ID)
		if err != nil {
			return err
		}
		if conflicted {
			return NewOverlapError(conflictID)
		}

		b.ResourceID = sl.resourceID
		b.StartTime = sl.start
		b.EndTime = sl.end
		return write(tx)
	})
}

func (s *service) Create(ctx context.Context, actor *auth.Identity, req CreateRequest) (*Reservation, error) {
	sl, err := parseSlot(req)
	if err != nil {
		return nil, err
	}

	// The actor may not be mirrored locally yet (first action after login).
	reservee, err := s.userService.EnsureExists(ctx, actor.UserID, actor.Username)
	if err != nil {
		return nil, err
	}

	b := &Reservation{UserID: reservee.ID, UserName: reservee.UserName}
	if err := s.schedule(ctx, sl, b, func(tx Repository) error {
		return tx.Create(ctx, b)
	}); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, b.ID)
}

func (s *service) GetByID(ctx context.Context, id string) (*Reservation, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, q *query.Params) ([]*Reservation, int, error) {
	return s.repo.List(ctx, q)
}

// Update checks existence before ownership, then revalidates the whole slot
// against the target resource, excluding the reservation itself from the
// conflict scan.
func (s *service) Update(ctx context.Context, actor *auth.Identity, id string, req UpdateRequest) (*Reservation, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireOwner(actor, b.UserName, ErrPermissionDenied); err != nil {
		return nil, err
	}

	sl, err := parseSlot(req)
	if err != nil {
		return nil, err
	}

	if err := s.schedule(ctx, sl, b, func(tx Repository) error {
		return tx.Update(ctx, b)
	}); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, b.ID)
}

func (s *service) Delete(ctx context.Context, actor *auth.Identity, id string) error {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.RequireOwner(actor, b.UserName, ErrPermissionDenied); err != nil {
		return err
	}
	return s.repo.Delete(ctx, b.ID)
}
