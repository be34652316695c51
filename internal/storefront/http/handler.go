package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tidebook/booking-backend/internal/auth"
	"github.com/tidebook/booking-backend/internal/pkg/request"
	"github.com/tidebook/booking-backend/internal/pkg/response"
	"github.com/tidebook/booking-backend/internal/storefront"
)

type Handler struct {
	service storefront.Service
}

func NewHandler(service storefront.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	var req ListSectionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	filter := storefront.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
	}
	if req.Published != nil && *req.Published {
		filter.PublishedOnly = true
	}

	sections, total, err := h.service.List(c.Request.Context(), auth.GetTenantID(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]SectionResponse, len(sections))
	for i, s := range sections {
		items[i] = NewSectionResponse(s)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid section id"})
		return
	}

	s, err := h.service.GetByID(c.Request.Context(), auth.GetTenantID(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSectionResponse(s))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateSectionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	s, err := h.service.Create(c.Request.Context(), auth.GetTenantID(c), storefront.CreateRequest{
		Slug:      body.Slug,
		Title:     body.Title,
		Body:      body.Body,
		Position:  body.Position,
		Published: body.Published,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewSectionResponse(s))
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid section id"})
		return
	}

	var body UpdateSectionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	s, err := h.service.Update(c.Request.Context(), auth.GetTenantID(c), uri.ID, storefront.UpdateRequest{
		Slug:      body.Slug,
		Title:     body.Title,
		Body:      body.Body,
		Position:  body.Position,
		Published: body.Published,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewSectionResponse(s))
}

func (h *Handler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid section id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), auth.GetTenantID(c), uri.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
