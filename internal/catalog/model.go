package catalog

import (
	"net/http"
	"time"

	"github.com/tidebook/booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "service not found")
	ErrCategoryNotFound = apperror.New(http.StatusNotFound, "category not found")
	ErrNameRequired     = apperror.New(http.StatusBadRequest, "service name is required")
	ErrInvalidPrice     = apperror.New(http.StatusBadRequest, "price must not be negative")
	ErrInvalidMode      = apperror.New(http.StatusBadRequest, "booking mode must be date or slot")
)

// BookingMode determines the slot identity of an offering: date-bound
// offerings occupy a whole calendar day, slot-bound offerings occupy a
// [start, end) time interval.
type BookingMode string

const (
	ModeDate BookingMode = "date"
	ModeSlot BookingMode = "slot"
)

// Offering is a sellable service or package in a tenant's catalog.
type Offering struct {
	ID              string
	TenantID        string
	CategoryID      *string
	Name            string
	Description     string
	PriceCents      int64
	Currency        string
	DurationMinutes int
	BookingMode     BookingMode
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Category groups offerings within a tenant's catalog.
type Category struct {
	ID        string
	TenantID  string
	Name      string
	CreatedAt time.Time
}

// Filter defines filter options for listing offerings.
type Filter struct {
	CategoryID string
	Active     *bool
	Page       int
	PageSize   int
}
