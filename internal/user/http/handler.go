package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openbookings/reservation-backend/internal/pkg/query"
	"github.com/openbookings/reservation-backend/internal/pkg/request"
	"github.com/openbookings/reservation-backend/internal/pkg/response"
	"github.com/openbookings/reservation-backend/internal/user"
)

type Handler struct {
	service user.Service
}

func NewHandler(service user.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	q, err := query.Parse(c.Request.URL.Query(), user.ListColumns)
	if err != nil {
		response.Error(c, err)
		return
	}

	users, total, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]UserResponse, len(users))
	for i, u := range users {
		items[i] = NewUserResponse(u)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, q.Page, q.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.Error(c, user.ErrNotFound)
		return
	}

	detail, err := h.service.DetailByID(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewDetailResponse(detail))
}

func (h *Handler) GetRole(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.Error(c, user.ErrNotFound)
		return
	}

	role, err := h.service.Role(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, RoleResponse{Role: role})
}

func (h *Handler) ChangeRole(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.Error(c, user.ErrNotFound)
		return
	}

	var body ChangeRoleBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, user.ErrInvalidRole)
		return
	}

	role, err := h.service.ChangeRole(c.Request.Context(), req.ID, body.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, RoleResponse{Role: role})
}

func (h *Handler) Delete(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.Error(c, user.ErrNotFound)
		return
	}

	if err := h.service.Delete(c.Request.Context(), req.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
