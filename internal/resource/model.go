package resource

import (
	"net/http"
	"time"

	"github.com/openbookings/reservation-backend/internal/pkg/apperror"
)

var (
	ErrNotFound           = apperror.New(http.StatusNotFound, "Resource not found")
	ErrPermissionDenied   = apperror.New(http.StatusForbidden, "Resources can only be edited by their owner or by admins")
	ErrMissingName        = apperror.New(http.StatusBadRequest, "Resource must have a name")
	ErrInvalidName        = apperror.New(http.StatusBadRequest, "Resource name must be between 1 and 30 characters long")
	ErrInvalidDescription = apperror.New(http.StatusBadRequest, "Resource description must be at most 280 characters long")
)

// Validation bounds for the user-supplied fields.
const (
	NameMaxLen        = 30
	DescriptionMaxLen = 280
)

// Resource is a reservable thing owned by a user.
type Resource struct {
	ID               string
	Name             string
	Description      *string
	OwnerID          string
	OwnerName        string
	ReservationCount int
	CreatedAt        time.Time
}

// ReservationEntry is a reservation row attached to a resource detail.
type ReservationEntry struct {
	ID           string
	StartTime    time.Time
	EndTime      time.Time
	ReserveeID   string
	ReserveeName string
}

// Detail is a resource with its upcoming reservations attached.
type Detail struct {
	Resource
	Reservations []ReservationEntry
}
