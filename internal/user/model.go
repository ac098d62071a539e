package user

import (
	"net/http"
	"time"

	"github.com/openbookings/reservation-backend/internal/pkg/apperror"
)

var (
	ErrNotFound      = apperror.New(http.StatusNotFound, "User not found")
	ErrInvalidRole   = apperror.New(http.StatusBadRequest, "Given role invalid")
	ErrDuplicateName = apperror.New(http.StatusConflict, "User with same name already exists")
)

// User is the local mirror of a provider account, joined with usage counts.
// The provider owns credentials and roles; only the ID and username are
// persisted here so resources and reservations have something to reference.
type User struct {
	ID               string
	UserName         string
	ResourceCount    int
	ReservationCount int
}

// ResourceSummary is a resource row attached to a user detail.
type ResourceSummary struct {
	ID               string
	Name             string
	Description      *string
	ReservationCount int
	CreatedAt        time.Time
}

// ReservationSummary is a reservation row attached to a user detail.
type ReservationSummary struct {
	ID           string
	ResourceID   string
	ResourceName string
	StartTime    time.Time
	EndTime      time.Time
}

// Detail is a user with its owned resources and reservations attached.
type Detail struct {
	User
	Resources    []ResourceSummary
	Reservations []ReservationSummary
}
