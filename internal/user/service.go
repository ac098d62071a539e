package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/openbookings/reservation-backend/internal/identity"
	"github.com/openbookings/reservation-backend/internal/pkg/query"
)

// Roles an account can be switched between. Only the admin role exists at the
// provider; every account without it is a plain user.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type Service interface {
	// EnsureExists upserts the local mirror row for a known provider account.
	EnsureExists(ctx context.Context, id, userName string) (*User, error)
	// Reconcile pulls the provider's account list and mirrors it locally.
	Reconcile(ctx context.Context) error
	List(ctx context.Context, q *query.Params) ([]*User, int, error)
	DetailByID(ctx context.Context, id string) (*Detail, error)
	DetailByUserName(ctx context.Context, userName string) (*Detail, error)
	Role(ctx context.Context, id string) (string, error)
	ChangeRole(ctx context.Context, id, role string) (string, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo     Repository
	provider identity.Provider
}

func NewService(repo Repository, provider identity.Provider) Service {
	return &service{repo: repo, provider: provider}
}

func (s *service) EnsureExists(ctx context.Context, id, userName string) (*User, error) {
	return s.repo.Upsert(ctx, id, strings.ToLower(userName))
}

func (s *service) Reconcile(ctx context.Context) error {
	accounts, err := s.provider.Users(ctx)
	if err != nil {
		return err
	}

	users := make(map[string]string, len(accounts))
	for _, a := range accounts {
		users[a.ID] = strings.ToLower(a.Username)
	}
	return s.repo.UpsertAll(ctx, users)
}

// List reconciles first so accounts created directly at the provider show up.
func (s *service) List(ctx context.Context, q *query.Params) ([]*User, int, error) {
	if err := s.Reconcile(ctx); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, q)
}

func (s *service) DetailByID(ctx context.Context, id string) (*Detail, error) {
	if err := s.Reconcile(ctx); err != nil {
		return nil, err
	}
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	// Least-booked resources first; only reservations that have not ended.
	now := time.Now()
	return s.attach(ctx, u, "reservation_count ASC", &now)
}

// DetailByUserName backs the caller's own profile view. It shows the full
// reservation history, not just upcoming ones.
func (s *service) DetailByUserName(ctx context.Context, userName string) (*Detail, error) {
	if err := s.Reconcile(ctx); err != nil {
		return nil, err
	}
	u, err := s.repo.GetByUserName(ctx, strings.ToLower(userName))
	if err != nil {
		return nil, err
	}
	return s.attach(ctx, u, "r.name ASC", nil)
}

func (s *service) attach(ctx context.Context, u *User, resourceOrder string, reservationsAfter *time.Time) (*Detail, error) {
	resources, err := s.repo.ResourcesByOwner(ctx, u.ID, resourceOrder)
	if err != nil {
		return nil, err
	}
	reservations, err := s.repo.ReservationsByUser(ctx, u.ID, reservationsAfter)
	if err != nil {
		return nil, err
	}
	return &Detail{User: *u, Resources: resources, Reservations: reservations}, nil
}

// Role reduces the provider's realm roles to the single admin/user axis the
// API exposes.
func (s *service) Role(ctx context.Context, id string) (string, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return "", err
	}
	roles, err := s.provider.Roles(ctx, id)
	if err != nil {
		return "", mapProviderErr(err)
	}
	for _, r := range roles {
		if r == RoleAdmin {
			return RoleAdmin, nil
		}
	}
	return RoleUser, nil
}

// ChangeRole promotes or demotes an account at the provider and returns the
// resulting role. The local mirror never stores roles; tokens pick the change
// up on their next refresh.
func (s *service) ChangeRole(ctx context.Context, id, role string) (string, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return "", err
	}

	var err error
	switch role {
	case RoleAdmin:
		err = s.provider.GrantRole(ctx, id, RoleAdmin)
	case RoleUser:
		err = s.provider.RevokeRole(ctx, id, RoleAdmin)
	default:
		return "", ErrInvalidRole
	}
	if err != nil {
		return "", mapProviderErr(err)
	}
	return s.Role(ctx, id)
}

// Delete removes the account at the provider first, then the local mirror.
// The schema cascades the mirror delete to resources and reservations.
func (s *service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.provider.DeleteUser(ctx, id); err != nil {
		return mapProviderErr(err)
	}
	if err := s.repo.Delete(ctx, id); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

func mapProviderErr(err error) error {
	var status *identity.ErrorStatus
	if errors.As(err, &status) && status.StatusCode == 404 {
		return ErrNotFound
	}
	return err
}
