package booking

import (
	"context"
	"strings"
	"time"

	"github.com/tidebook/booking-backend/internal/catalog"
)

// CreateRequest holds fields for creating a booking.
type CreateRequest struct {
	OfferingID    string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string

	Date      *time.Time // date-mode offerings
	StartTime *time.Time // slot-mode offerings
	EndTime   *time.Time
}

// RescheduleRequest holds the new slot for an existing booking.
type RescheduleRequest struct {
	Date      *time.Time
	StartTime *time.Time
	EndTime   *time.Time
}

// Service defines business logic for bookings.
type Service interface {
	Create(ctx context.Context, tenantID string, req CreateRequest) (*Booking, error)
	GetByID(ctx context.Context, tenantID, id string) (*Booking, error)
	List(ctx context.Context, tenantID string, filter Filter) ([]*Booking, int, error)
	Reschedule(ctx context.Context, tenantID, id string, req RescheduleRequest) (*Booking, error)
	Cancel(ctx context.Context, tenantID, id string) (*Booking, error)
	UpdateStatus(ctx context.Context, tenantID, id string, to Status) (*Booking, error)
}

// offeringGetter is the only part of the catalog the booking service needs.
type offeringGetter interface {
	GetByID(ctx context.Context, tenantID, id string) (*catalog.Offering, error)
}

type service struct {
	repo    Repository
	catalog offeringGetter
}

// NewService creates a new booking service.
func NewService(repo Repository, catalogService offeringGetter) Service {
	return &service{repo: repo, catalog: catalogService}
}

func (s *service) Create(ctx context.Context, tenantID string, req CreateRequest) (*Booking, error) {
	if strings.TrimSpace(req.CustomerName) == "" {
		return nil, ErrCustomerRequired
	}

	offering, err := s.catalog.GetByID(ctx, tenantID, req.OfferingID)
	if err != nil {
		return nil, ErrOfferingNotFound
	}
	if !offering.IsActive {
		return nil, ErrOfferingInactive
	}

	b := &Booking{
		TenantID:      tenantID,
		OfferingID:    offering.ID,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		TotalCents:    offering.PriceCents,
		Currency:      offering.Currency,
		Status:        StatusPending,
	}

	if err := applySlot(b, offering.BookingMode, req.Date, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// applySlot validates the requested slot against the offering's booking mode
// and writes the normalized slot onto b.
func applySlot(b *Booking, mode catalog.BookingMode, date, start, end *time.Time) error {
	now := time.Now().UTC()

	switch mode {
	case catalog.ModeDate:
		if date == nil || start != nil || end != nil {
			return ErrMissingSlot
		}
		day := date.UTC().Truncate(24 * time.Hour)
		if day.Before(now.Truncate(24 * time.Hour)) {
			return ErrSlotInPast
		}
		b.BookingDate = &day
		b.StartTime = nil
		b.EndTime = nil
	case catalog.ModeSlot:
		if start == nil || end == nil || date != nil {
			return ErrMissingSlot
		}
		if !start.Before(*end) {
			return ErrInvalidTimeRange
		}
		if start.Before(now) {
			return ErrSlotInPast
		}
		st, en := start.UTC(), end.UTC()
		// The slot lock is keyed by the start day; an interval crossing
		// midnight would escape the lock covering its tail. An end exactly
		// at the next midnight is fine since the interval is half-open.
		if en.After(st.Truncate(24 * time.Hour).Add(24 * time.Hour)) {
			return ErrSlotSpansDays
		}
		b.StartTime = &st
		b.EndTime = &en
		b.BookingDate = nil
	default:
		return ErrMissingSlot
	}
	return nil
}

func (s *service) GetByID(ctx context.Context, tenantID, id string) (*Booking, error) {
	return s.repo.GetByID(ctx, tenantID, id)
}

func (s *service) List(ctx context.Context, tenantID string, filter Filter) ([]*Booking, int, error) {
	return s.repo.List(ctx, tenantID, filter)
}

func (s *service) Reschedule(ctx context.Context, tenantID, id string, req RescheduleRequest) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !b.Status.Active() {
		return nil, ErrInvalidStatus
	}

	// The booking's existing shape tells us the offering's mode.
	mode := catalog.ModeSlot
	if b.BookingDate != nil {
		mode = catalog.ModeDate
	}
	if err := applySlot(b, mode, req.Date, req.StartTime, req.EndTime); err != nil {
		return nil, err
	}

	if err := s.repo.Reschedule(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) Cancel(ctx context.Context, tenantID, id string) (*Booking, error) {
	return s.UpdateStatus(ctx, tenantID, id, StatusCanceled)
}

func (s *service) UpdateStatus(ctx context.Context, tenantID, id string, to Status) (*Booking, error) {
	if !ValidStatus(to) {
		return nil, ErrInvalidStatus
	}

	b, err := s.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(b.Status, to) {
		return nil, ErrInvalidStatus
	}

	return s.repo.TransitionStatus(ctx, tenantID, id, b.Status, to)
}
