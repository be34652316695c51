package http

import (
	"time"

	"github.com/tidebook/booking-backend/internal/catalog"
	"github.com/tidebook/booking-backend/internal/pkg/request"
)

type ListOfferingsRequest struct {
	request.ListParams
	CategoryID string `form:"category_id" binding:"omitempty,uuid"`
	Active     *bool  `form:"active"`
}

type CreateOfferingRequest struct {
	Name            string  `json:"name" binding:"required"`
	Description     string  `json:"description"`
	CategoryID      *string `json:"category_id" binding:"omitempty,uuid"`
	PriceCents      int64   `json:"price_cents" binding:"min=0"`
	Currency        string  `json:"currency" binding:"omitempty,len=3"`
	DurationMinutes int     `json:"duration_minutes" binding:"omitempty,min=1"`
	BookingMode     string  `json:"booking_mode" binding:"required,oneof=date slot"`
}

type UpdateOfferingRequest struct {
	Name            *string `json:"name"`
	Description     *string `json:"description"`
	CategoryID      *string `json:"category_id" binding:"omitempty,uuid"`
	PriceCents      *int64  `json:"price_cents" binding:"omitempty,min=0"`
	DurationMinutes *int    `json:"duration_minutes" binding:"omitempty,min=1"`
	IsActive        *bool   `json:"is_active"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

type OfferingResponse struct {
	ID              string    `json:"id"`
	CategoryID      *string   `json:"category_id,omitempty"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	PriceCents      int64     `json:"price_cents"`
	Currency        string    `json:"currency"`
	DurationMinutes int       `json:"duration_minutes,omitempty"`
	BookingMode     string    `json:"booking_mode"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func NewOfferingResponse(o *catalog.Offering) OfferingResponse {
	return OfferingResponse{
		ID:              o.ID,
		CategoryID:      o.CategoryID,
		Name:            o.Name,
		Description:     o.Description,
		PriceCents:      o.PriceCents,
		Currency:        o.Currency,
		DurationMinutes: o.DurationMinutes,
		BookingMode:     string(o.BookingMode),
		IsActive:        o.IsActive,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

type CategoryResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func NewCategoryResponse(c *catalog.Category) CategoryResponse {
	return CategoryResponse{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}
