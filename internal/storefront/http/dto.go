package http

import (
	"time"

	"github.com/tidebook/booking-backend/internal/pkg/request"
	"github.com/tidebook/booking-backend/internal/storefront"
)

type ListSectionsRequest struct {
	request.ListParams
	Published *bool `form:"published"`
}

type CreateSectionRequest struct {
	Slug      string `json:"slug" binding:"required"`
	Title     string `json:"title" binding:"required"`
	Body      string `json:"body"`
	Position  int    `json:"position"`
	Published bool   `json:"published"`
}

type UpdateSectionRequest struct {
	Slug      *string `json:"slug"`
	Title     *string `json:"title"`
	Body      *string `json:"body"`
	Position  *int    `json:"position"`
	Published *bool   `json:"published"`
}

type SectionResponse struct {
	ID        string    `json:"id"`
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Position  int       `json:"position"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewSectionResponse(s *storefront.Section) SectionResponse {
	return SectionResponse{
		ID:        s.ID,
		Slug:      s.Slug,
		Title:     s.Title,
		Body:      s.Body,
		Position:  s.Position,
		Published: s.Published,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
