package http

import (
	"time"

	"github.com/tidebook/booking-backend/internal/media"
)

type MediaResponse struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	ContentType  string    `json:"content_type"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	ThumbnailURL *string   `json:"thumbnail_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func NewMediaResponse(m *media.Media) MediaResponse {
	resp := MediaResponse{
		ID:          m.ID,
		Filename:    m.Filename,
		ContentType: m.ContentType,
		Size:        m.Size,
		URL:         media.URL(m.ID),
		CreatedAt:   m.CreatedAt,
	}
	if m.ThumbnailPath != nil {
		u := media.ThumbnailURL(m.ID)
		resp.ThumbnailURL = &u
	}
	return resp
}
