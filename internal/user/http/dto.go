package http

import (
	"time"

	"github.com/openbookings/reservation-backend/internal/user"
)

type UserResponse struct {
	ID               string `json:"userID"`
	UserName         string `json:"userName"`
	ResourceCount    int    `json:"resourceCount"`
	ReservationCount int    `json:"reservationCount"`
}

func NewUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:               u.ID,
		UserName:         u.UserName,
		ResourceCount:    u.ResourceCount,
		ReservationCount: u.ReservationCount,
	}
}

type ResourceSummaryResponse struct {
	ID               string    `json:"resourceID"`
	Name             string    `json:"resourceName"`
	Description      *string   `json:"description"`
	ReservationCount int       `json:"reservationCount"`
	CreatedAt        time.Time `json:"createdAt"`
}

type ReservationSummaryResponse struct {
	ID           string    `json:"reservationID"`
	ResourceID   string    `json:"resourceID"`
	ResourceName string    `json:"resourceName"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
}

type DetailResponse struct {
	UserResponse
	Resources    []ResourceSummaryResponse    `json:"resources"`
	Reservations []ReservationSummaryResponse `json:"reservations"`
}

func NewDetailResponse(d *user.Detail) DetailResponse {
	resp := DetailResponse{
		UserResponse: NewUserResponse(&d.User),
		Resources:    make([]ResourceSummaryResponse, len(d.Resources)),
		Reservations: make([]ReservationSummaryResponse, len(d.Reservations)),
	}
	for i, r := range d.Resources {
		resp.Resources[i] = ResourceSummaryResponse{
			ID:               r.ID,
			Name:             r.Name,
			Description:      r.Description,
			ReservationCount: r.ReservationCount,
			CreatedAt:        r.CreatedAt,
		}
	}
	for i, b := range d.Reservations {
		resp.Reservations[i] = ReservationSummaryResponse{
			ID:           b.ID,
			ResourceID:   b.ResourceID,
			ResourceName: b.ResourceName,
			StartTime:    b.StartTime,
			EndTime:      b.EndTime,
		}
	}
	return resp
}

// ChangeRoleBody is the payload for the admin role switch.
type ChangeRoleBody struct {
	Role string `json:"role" binding:"required"`
}

type RoleResponse struct {
	Role string `json:"role"`
}
