package storefront

import (
	"net/http"
	"time"

	"github.com/tidebook/booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound      = apperror.New(http.StatusNotFound, "storefront section not found")
	ErrSlugRequired  = apperror.New(http.StatusBadRequest, "slug is required")
	ErrTitleRequired = apperror.New(http.StatusBadRequest, "title is required")
	ErrSlugTaken     = apperror.New(http.StatusConflict, "a section with this slug already exists")
)

// Section is one block of a tenant's public storefront page: an about
// paragraph, opening hours, a policies blurb. Sections render in Position
// order; unpublished sections are drafts only staff can see.
type Section struct {
	ID        string
	TenantID  string
	Slug      string
	Title     string
	Body      string
	Position  int
	Published bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Filter defines parameters for listing sections.
type Filter struct {
	PublishedOnly bool
	Page          int
	PageSize      int
}
