package http

import (
	"time"

	"github.com/openbookings/reservation-backend/internal/resource"
)

// OwnerTag is the embedded owner reference on resource payloads.
type OwnerTag struct {
	ID   string `json:"userID"`
	Name string `json:"userName"`
}

type ResourceResponse struct {
	ID               string    `json:"resourceID"`
	Name             string    `json:"resourceName"`
	Description      *string   `json:"description"`
	Owner            OwnerTag  `json:"owner"`
	ReservationCount int       `json:"reservationCount"`
	CreatedAt        time.Time `json:"createdAt"`
}

func NewResourceResponse(res *resource.Resource) ResourceResponse {
	return ResourceResponse{
		ID:               res.ID,
		Name:             res.Name,
		Description:      res.Description,
		Owner:            OwnerTag{ID: res.OwnerID, Name: res.OwnerName},
		ReservationCount: res.ReservationCount,
		CreatedAt:        res.CreatedAt,
	}
}

type ReservationEntryResponse struct {
	ID        string    `json:"reservationID"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Reservee  OwnerTag  `json:"reservee"`
}

type DetailResponse struct {
	ResourceResponse
	Reservations []ReservationEntryResponse `json:"reservations"`
}

func NewDetailResponse(d *resource.Detail) DetailResponse {
	resp := DetailResponse{
		ResourceResponse: NewResourceResponse(&d.Resource),
		Reservations:     make([]ReservationEntryResponse, len(d.Reservations)),
	}
	for i, e := range d.Reservations {
		resp.Reservations[i] = ReservationEntryResponse{
			ID:        e.ID,
			StartTime: e.StartTime,
			EndTime:   e.EndTime,
			Reservee:  OwnerTag{ID: e.ReserveeID, Name: e.ReserveeName},
		}
	}
	return resp
}

// ResourceBody is the create/update payload.
type ResourceBody struct {
	Name        string  `json:"resourceName"`
	Description *string `json:"description"`
}
