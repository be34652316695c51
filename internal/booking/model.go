package booking

import (
	"net/http"
	"time"

	"github.com/tidebook/booking-backend/internal/pkg/apperror"
)

var (
	ErrNotFound         = apperror.New(http.StatusNotFound, "booking not found")
	ErrSlotConflict     = apperror.New(http.StatusConflict, "that slot is already booked")
	ErrInvalidTimeRange = apperror.New(http.StatusBadRequest, "start time must be before end time")
	ErrInvalidStatus    = apperror.New(http.StatusBadRequest, "invalid booking status transition")
	ErrOfferingNotFound = apperror.New(http.StatusNotFound, "service not found")
	ErrOfferingInactive = apperror.New(http.StatusBadRequest, "service is not bookable")
	ErrSlotInPast       = apperror.New(http.StatusBadRequest, "cannot book a slot in the past")
	ErrMissingSlot      = apperror.New(http.StatusBadRequest, "booking requires a date or a time slot matching the service's booking mode")
	ErrSlotSpansDays    = apperror.New(http.StatusBadRequest, "a time slot may not cross midnight UTC")
	ErrCustomerRequired = apperror.New(http.StatusBadRequest, "customer name is required")
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusConfirmed Status = "confirmed"
	StatusCanceled  Status = "canceled"
	StatusRefunded  Status = "refunded"
	StatusFulfilled Status = "fulfilled"
)

// transitions is the forward-only lifecycle graph. Bookings are never
// deleted; cancellation and refunding are status transitions so the slot
// history stays auditable.
var transitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusConfirmed, StatusCanceled},
	StatusPaid:      {StatusConfirmed, StatusCanceled, StatusRefunded},
	StatusConfirmed: {StatusFulfilled, StatusCanceled},
	StatusCanceled:  {StatusRefunded},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Active reports whether the booking still occupies its slot. Canceled and
// refunded bookings vacate the slot; every other status holds it.
func (s Status) Active() bool {
	return s != StatusCanceled && s != StatusRefunded
}

// ValidStatus reports whether s is a known booking status.
func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusPaid, StatusConfirmed, StatusCanceled, StatusRefunded, StatusFulfilled:
		return true
	}
	return false
}

// Booking is a customer's reservation of a tenant offering for a calendar
// date (date-mode offerings) or a [StartTime, EndTime) interval (slot-mode
// offerings). Exactly one of the two slot representations is set.
type Booking struct {
	ID         string
	TenantID   string
	OfferingID string

	CustomerName  string
	CustomerEmail string
	CustomerPhone string

	BookingDate *time.Time // date-mode: the day occupied, midnight UTC
	StartTime   *time.Time // slot-mode
	EndTime     *time.Time // slot-mode

	TotalCents int64
	Currency   string
	Status     Status

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SlotKey is the advisory lock key for the booking's slot. Date-mode
// bookings lock the whole day for the offering; slot-mode bookings lock the
// day their interval starts on, which serializes all overlap checks for
// that offering and day. Slot validation rejects intervals crossing
// midnight UTC, so two overlapping intervals always share a key.
func (b *Booking) SlotKey() string {
	if b.BookingDate != nil {
		return b.OfferingID + ":" + b.BookingDate.UTC().Format("2006-01-02")
	}
	return b.OfferingID + ":" + b.StartTime.UTC().Format("2006-01-02")
}

// Filter defines filter options for listing bookings.
type Filter struct {
	OfferingID string
	Status     string
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}
