package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openbookings/reservation-backend/internal/auth"
	"github.com/openbookings/reservation-backend/internal/pkg/query"
	"github.com/openbookings/reservation-backend/internal/pkg/request"
	"github.com/openbookings/reservation-backend/internal/pkg/response"
	"github.com/openbookings/reservation-backend/internal/reservation"
)

type Handler struct {
	service reservation.Service
}

func NewHandler(service reservation.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(c *gin.Context) {
	var body ReservationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, reservation.ErrMissingResource)
		return
	}

	b, err := h.service.Create(c.Request.Context(), auth.GetIdentity(c), reservation.CreateRequest{
		ResourceID: body.ResourceID,
		StartTime:  body.StartTime,
		EndTime:    body.EndTime,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewReservationResponse(b))
}

func (h *Handler) List(c *gin.Context) {
	q, err := query.Parse(c.Request.URL.Query(), reservation.ListColumns)
	if err != nil {
		response.Error(c, err)
		return
	}

	reservations, total, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ReservationResponse, len(reservations))
	for i, b := range reservations {
		items[i] = NewReservationResponse(b)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, q.Page, q.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.Error(c, reservation.ErrNotFound)
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewReservationResponse(b))
}

func (h *Handler) Update(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.Error(c, reservation.ErrNotFound)
		return
	}

	var body ReservationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, reservation.ErrMissingResource)
		return
	}

	b, err := h.service.Update(c.Request.Context(), auth.GetIdentity(c), req.ID, reservation.UpdateRequest{
		ResourceID: body.ResourceID,
		StartTime:  body.StartTime,
		EndTime:    body.EndTime,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewReservationResponse(b))
}

func (h *Handler) Delete(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.Error(c, reservation.ErrNotFound)
		return
	}

	if err := h.service.Delete(c.Request.Context(), auth.GetIdentity(c), req.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
