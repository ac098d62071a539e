package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/openbookings/reservation-backend/internal/auth"
	"github.com/openbookings/reservation-backend/internal/pkg/query"
	"github.com/openbookings/reservation-backend/internal/pkg/request"
	"github.com/openbookings/reservation-backend/internal/pkg/response"
	"github.com/openbookings/reservation-backend/internal/resource"
)

type Handler struct {
	service resource.Service
}

func NewHandler(service resource.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Create(c *gin.Context) {
	var body ResourceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, resource.ErrMissingName)
		return
	}

	res, err := h.service.Create(c.Request.Context(), auth.GetIdentity(c), resource.CreateRequest{
		Name:        body.Name,
		Description: body.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewResourceResponse(res))
}

func (h *Handler) List(c *gin.Context) {
	q, err := query.Parse(c.Request.URL.Query(), resource.ListColumns)
	if err != nil {
		response.Error(c, err)
		return
	}

	resources, total, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]ResourceResponse, len(resources))
	for i, res := range resources {
		items[i] = NewResourceResponse(res)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, q.Page, q.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.Error(c, resource.ErrNotFound)
		return
	}

	detail, err := h.service.GetDetail(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewDetailResponse(detail))
}

func (h *Handler) Update(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.Error(c, resource.ErrNotFound)
		return
	}

	var body ResourceBody
	if err := c.ShouldBindJSON(&body); err != nil {
		response.Error(c, resource.ErrMissingName)
		return
	}

	res, err := h.service.Update(c.Request.Context(), auth.GetIdentity(c), req.ID, resource.UpdateRequest{
		Name:        body.Name,
		Description: body.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewResourceResponse(res))
}

func (h *Handler) Delete(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		response.Error(c, resource.ErrNotFound)
		return
	}

	if err := h.service.Delete(c.Request.Context(), auth.GetIdentity(c), req.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
