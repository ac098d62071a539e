package reservation

import (
	"net/http"
	"time"

	"github.com/openbookings/reservation-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "Reservation not found")
	ErrResourceNotFound = apperror.New(http.StatusNotFound, "Resource not found")
	ErrPermissionDenied = apperror.New(http.StatusForbidden, "Reservations can only be edited by their reservee or by admins")
	ErrMissingResource  = apperror.New(http.StatusBadRequest, "Must specify resource to reserve")
	ErrInvalidDates     = apperror.New(http.StatusBadRequest, "Both start and end times must be valid dates")
	ErrStartAfterEnd    = apperror.New(http.StatusBadRequest, "Start time must be before end time")
)

// NewOverlapError reports a conflict with a specific existing reservation so
// the caller can look it up.
func NewOverlapError(reservationID string) *apperror.AppError {
	return apperror.Conflict("Overlap with reservation " + reservationID)
}

// Reservation is a booked interval on a resource, half-open in effect:
// back-to-back reservations sharing an endpoint do not overlap.
type Reservation struct {
	ID           string
	ResourceID   string
	ResourceName string
	UserID       string
	UserName     string
	StartTime    time.Time
	EndTime      time.Time
	CreatedAt    time.Time
}

// Overlaps reports whether the two intervals share any positive span of time.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
