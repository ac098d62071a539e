package resource

import (
	"context"
	"unicode/utf8"

	"github.com/openbookings/reservation-backend/internal/auth"
	"github.com/openbookings/reservation-backend/internal/pkg/query"
	"github.com/openbookings/reservation-backend/internal/user"
)

type CreateRequest struct {
	Name        string
	Description *string
}

// UpdateRequest replaces the name; a nil description leaves the stored one
// untouched.
type UpdateRequest struct {
	Name        string
	Description *string
}

type Service interface {
	Create(ctx context.Context, actor *auth.Identity, req CreateRequest) (*Resource, error)
	GetDetail(ctx context.Context, id string) (*Detail, error)
	List(ctx context.Context, q *query.Params) ([]*Resource, int, error)
	Update(ctx context.Context, actor *auth.Identity, id string, req UpdateRequest) (*Resource, error)
	Delete(ctx context.Context, actor *auth.Identity, id string) error
}

type service struct {
	repo        Repository
	userService user.Service
}

func NewService(repo Repository, userService user.Service) Service {
	return &service{repo: repo, userService: userService}
}

func validateFields(name string, description *string) error {
	if name == "" {
		return ErrMissingName
	}
	if utf8.RuneCountInString(name) > NameMaxLen {
		return ErrInvalidName
	}
	if description != nil && utf8.RuneCountInString(*description) > DescriptionMaxLen {
		return ErrInvalidDescription
	}
	return nil
}

func (s *service) Create(ctx context.Context, actor *auth.Identity, req CreateRequest) (*Resource, error) {
	if err := validateFields(req.Name, req.Description); err != nil {
		return nil, err
	}

	// The actor may not be mirrored locally yet (first action after login).
	owner, err := s.userService.EnsureExists(ctx, actor.UserID, actor.Username)
	if err != nil {
		return nil, err
	}

	res := &Resource{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     owner.ID,
		OwnerName:   owner.UserName,
	}
	if err := s.repo.Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *service) GetDetail(ctx context.Context, id string) (*Detail, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	reservations, err := s.repo.UpcomingReservations(ctx, res.ID)
	if err != nil {
		return nil, err
	}
	return &Detail{Resource: *res, Reservations: reservations}, nil
}

func (s *service) List(ctx context.Context, q *query.Params) ([]*Resource, int, error) {
	return s.repo.List(ctx, q)
}

// Update checks existence before ownership so probing callers learn whether
// the resource exists, matching the permission model of the delete path.
func (s *service) Update(ctx context.Context, actor *auth.Identity, id string, req UpdateRequest) (*Resource, error) {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := auth.RequireOwner(actor, res.OwnerName, ErrPermissionDenied); err != nil {
		return nil, err
	}
	if err := validateFields(req.Name, req.Description); err != nil {
		return nil, err
	}

	res.Name = req.Name
	if req.Description != nil {
		res.Description = req.Description
	}
	if err := s.repo.Update(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *service) Delete(ctx context.Context, actor *auth.Identity, id string) error {
	res, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := auth.RequireOwner(actor, res.OwnerName, ErrPermissionDenied); err != nil {
		return err
	}
	// Reservations on the resource go with it via the FK cascade.
	return s.repo.Delete(ctx, res.ID)
}
