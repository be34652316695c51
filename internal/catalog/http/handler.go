package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tidebook/booking-backend/internal/auth"
	"github.com/tidebook/booking-backend/internal/catalog"
	"github.com/tidebook/booking-backend/internal/pkg/request"
	"github.com/tidebook/booking-backend/internal/pkg/response"
)

type Handler struct {
	service catalog.Service
}

func NewHandler(service catalog.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) List(c *gin.Context) {
	var req ListOfferingsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}

	offerings, total, err := h.service.List(c.Request.Context(), auth.GetTenantID(c), catalog.Filter{
		CategoryID: req.CategoryID,
		Active:     req.Active,
		Page:       req.Page,
		PageSize:   req.PageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]OfferingResponse, len(offerings))
	for i, o := range offerings {
		items[i] = NewOfferingResponse(o)
	}
	c.JSON(http.StatusOK, response.NewPageResponse(items, req.Page, req.PageSize, total))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offering id"})
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), auth.GetTenantID(c), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewOfferingResponse(o))
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateOfferingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	o, err := h.service.Create(c.Request.Context(), auth.GetTenantID(c), catalog.CreateRequest{
		CategoryID:      body.CategoryID,
		Name:            body.Name,
		Description:     body.Description,
		PriceCents:      body.PriceCents,
		Currency:        body.Currency,
		DurationMinutes: body.DurationMinutes,
		BookingMode:     catalog.BookingMode(body.BookingMode),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewOfferingResponse(o))
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offering id"})
		return
	}

	var body UpdateOfferingRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	o, err := h.service.Update(c.Request.Context(), auth.GetTenantID(c), uri.ID, catalog.UpdateRequest{
		CategoryID:      body.CategoryID,
		Name:            body.Name,
		Description:     body.Description,
		PriceCents:      body.PriceCents,
		DurationMinutes: body.DurationMinutes,
		IsActive:        body.IsActive,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewOfferingResponse(o))
}

func (h *Handler) Deactivate(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid offering id"})
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), auth.GetTenantID(c), uri.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var body CreateCategoryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	cat, err := h.service.CreateCategory(c.Request.Context(), auth.GetTenantID(c), body.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewCategoryResponse(cat))
}

func (h *Handler) ListCategories(c *gin.Context) {
	cats, err := h.service.ListCategories(c.Request.Context(), auth.GetTenantID(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]CategoryResponse, len(cats))
	for i, cat := range cats {
		items[i] = NewCategoryResponse(cat)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category id"})
		return
	}

	if err := h.service.DeleteCategory(c.Request.Context(), auth.GetTenantID(c), uri.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
