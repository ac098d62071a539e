package http

import (
	"time"

	"github.com/openbookings/reservation-backend/internal/reservation"
)

// ResourceTag is the embedded resource reference on reservation payloads.
type ResourceTag struct {
	ID   string `json:"resourceID"`
	Name string `json:"resourceName"`
}

// UserTag is the embedded reservee reference on reservation payloads.
type UserTag struct {
	ID   string `json:"userID"`
	Name string `json:"userName"`
}

type ReservationResponse struct {
	ID               string      `json:"reservationID"`
	StartTime        time.Time   `json:"startTime"`
	EndTime          time.Time   `json:"endTime"`
	ReservedResource ResourceTag `json:"reservedResource"`
	Reservee         UserTag     `json:"reservee"`
}

func NewReservationResponse(b *reservation.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:               b.ID,
		StartTime:        b.StartTime,
		EndTime:          b.EndTime,
		ReservedResource: ResourceTag{ID: b.ResourceID, Name: b.ResourceName},
		Reservee:         UserTag{ID: b.UserID, Name: b.UserName},
	}
}

// ReservationBody is the create/update payload. Times stay strings here; the
// service parses and validates them.
type ReservationBody struct {
	ResourceID string `json:"resourceID"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
}
