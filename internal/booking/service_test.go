package booking

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidebook/booking-backend/internal/catalog"
)

type fakeRepo struct {
	seq   int
	items map[string]*Booking
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: make(map[string]*Booking)}
}

func (r *fakeRepo) Create(ctx context.Context, b *Booking) error {
	// Mirror the slot-occupancy rule enforced under the advisory lock.
	for _, other := range r.items {
		if other.TenantID != b.TenantID || other.OfferingID != b.OfferingID || !other.Status.Active() {
			continue
		}
		if b.BookingDate != nil && other.BookingDate != nil && other.BookingDate.Equal(*b.BookingDate) {
			return ErrSlotConflict
		}
		if b.StartTime != nil && other.StartTime != nil &&
			other.StartTime.Before(*b.EndTime) && other.EndTime.After(*b.StartTime) {
			return ErrSlotConflict
		}
	}
	r.seq++
	b.ID = fmt.Sprintf("bk-%d", r.seq)
	b.CreatedAt = time.Now()
	cp := *b
	r.items[b.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, tenantID, id string) (*Booking, error) {
	b, ok := r.items[id]
	if !ok || b.TenantID != tenantID {
		return nil, ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeRepo) List(ctx context.Context, tenantID string, filter Filter) ([]*Booking, int, error) {
	var out []*Booking
	for _, b := range r.items {
		if b.TenantID == tenantID {
			cp := *b
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (r *fakeRepo) Reschedule(ctx context.Context, b *Booking) error {
	stored, ok := r.items[b.ID]
	if !ok || stored.TenantID != b.TenantID {
		return ErrNotFound
	}
	cp := *b
	r.items[b.ID] = &cp
	return nil
}

func (r *fakeRepo) TransitionStatus(ctx context.Context, tenantID, id string, from, to Status) (*Booking, error) {
	b, ok := r.items[id]
	if !ok || b.TenantID != tenantID {
		return nil, ErrNotFound
	}
	if b.Status != from {
		return nil, ErrInvalidStatus
	}
	b.Status = to
	cp := *b
	return &cp, nil
}

type fakeCatalog struct {
	offerings map[string]*catalog.Offering
}

func (f *fakeCatalog) GetByID(ctx context.Context, tenantID, id string) (*catalog.Offering, error) {
	o, ok := f.offerings[id]
	if !ok || o.TenantID != tenantID {
		return nil, catalog.ErrNotFound
	}
	return o, nil
}

func newTestService() (Service, *fakeRepo) {
	repo := newFakeRepo()
	cat := &fakeCatalog{offerings: map[string]*catalog.Offering{
		"off-date": {
			ID: "off-date", TenantID: "tenant-a", Name: "Full Day Rental",
			PriceCents: 50000, Currency: "USD",
			BookingMode: catalog.ModeDate, IsActive: true,
		},
		"off-slot": {
			ID: "off-slot", TenantID: "tenant-a", Name: "Deep Tissue Massage",
			PriceCents: 9500, Currency: "USD", DurationMinutes: 60,
			BookingMode: catalog.ModeSlot, IsActive: true,
		},
		"off-retired": {
			ID: "off-retired", TenantID: "tenant-a",
			BookingMode: catalog.ModeSlot, IsActive: false,
		},
	}}
	return NewService(repo, cat), repo
}

func futureDate(days int) *time.Time {
	t := time.Now().UTC().AddDate(0, 0, days).Truncate(24 * time.Hour)
	return &t
}

func futureSlot(daysAhead int, durMinutes int) (*time.Time, *time.Time) {
	start := time.Now().UTC().AddDate(0, 0, daysAhead)
	end := start.Add(time.Duration(durMinutes) * time.Minute)
	return &start, &end
}

func TestCreateDateMode(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	b, err := svc.Create(ctx, "tenant-a", CreateRequest{
		OfferingID:   "off-date",
		CustomerName: "Dana Lee",
		Date:         futureDate(3),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, b.Status)
	require.NotNil(t, b.BookingDate)
	assert.Nil(t, b.StartTime)
	// Price snapshotted from the offering at creation time.
	assert.Equal(t, int64(50000), b.TotalCents)
	assert.Equal(t, "USD", b.Currency)
}

func TestCreateSlotMode(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	start, end := futureSlot(1, 60)
	b, err := svc.Create(ctx, "tenant-a", CreateRequest{
		OfferingID:   "off-slot",
		CustomerName: "Omar Haddad",
		StartTime:    start,
		EndTime:      end,
	})
	require.NoError(t, err)
	require.NotNil(t, b.StartTime)
	assert.Nil(t, b.BookingDate)
	assert.Equal(t, int64(9500), b.TotalCents)
}

func TestCreateValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	start, end := futureSlot(1, 60)

	cases := []struct {
		name string
		req  CreateRequest
		want error
	}{
		{"missing customer", CreateRequest{OfferingID: "off-date", Date: futureDate(1)}, ErrCustomerRequired},
		{"unknown offering", CreateRequest{OfferingID: "off-x", CustomerName: "A", Date: futureDate(1)}, ErrOfferingNotFound},
		{"inactive offering", CreateRequest{OfferingID: "off-retired", CustomerName: "A", StartTime: start, EndTime: end}, ErrOfferingInactive},
		{"date for slot offering", CreateRequest{OfferingID: "off-slot", CustomerName: "A", Date: futureDate(1)}, ErrMissingSlot},
		{"slot for date offering", CreateRequest{OfferingID: "off-date", CustomerName: "A", StartTime: start, EndTime: end}, ErrMissingSlot},
		{"end before start", CreateRequest{OfferingID: "off-slot", CustomerName: "A", StartTime: end, EndTime: start}, ErrInvalidTimeRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "tenant-a", tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("past date", func(t *testing.T) {
		past := time.Now().UTC().AddDate(0, 0, -2)
		_, err := svc.Create(ctx, "tenant-a", CreateRequest{
			OfferingID: "off-date", CustomerName: "A", Date: &past,
		})
		assert.ErrorIs(t, err, ErrSlotInPast)
	})
}

func TestCreateDateConflict(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	day := futureDate(5)

	_, err := svc.Create(ctx, "tenant-a", CreateRequest{
		OfferingID: "off-date", CustomerName: "First", Date: day,
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, "tenant-a", CreateRequest{
		OfferingID: "off-date", CustomerName: "Second", Date: day,
	})
	assert.ErrorIs(t, err, ErrSlotConflict)
}

func TestCreateSlotOverlapConflict(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	start, end := futureSlot(2, 60)
	_, err := svc.Create(ctx, "tenant-a", CreateRequest{
		OfferingID: "off-slot", CustomerName: "First", StartTime: start, EndTime: end,
	})
	require.NoError(t, err)

	// Overlapping interval conflicts.
	s2 := start.Add(30 * time.Minute)
	e2 := s2.Add(time.Hour)
	_, err = svc.Create(ctx, "tenant-a", CreateRequest{
		OfferingID: "off-slot", CustomerName: "Second", StartTime: &s2, EndTime: &e2,
	})
	assert.ErrorIs(t, err, ErrSlotConflict)

	// Back-to-back is fine: [start, end) does not include end.
	s3 := *end
	e3 := s3.Add(time.Hour)
	_, err = svc.Create(ctx, "tenant-a", CreateRequest{
		OfferingID: "off-slot", CustomerName: "Third", StartTime: &s3, EndTime: &e3,
	})
	assert.NoError(t, err)
}

func TestSlotMayNotCrossMidnight(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	day := time.Now().UTC().AddDate(0, 0, 2).Truncate(24 * time.Hour)
	late := day.Add(23 * time.Hour)

	// 23:00-01:00 spills into the next day, where the start day's lock
	// would not cover the overlap check.
	crossEnd := late.Add(2 * time.Hour)
	_, err := svc.Create(ctx, "tenant-a", CreateRequest{
		OfferingID: "off-slot", CustomerName: "Night Owl",
		StartTime: &late, EndTime: &crossEnd,
	})
	assert.ErrorIs(t, err, ErrSlotSpansDays)

	// Ending exactly at midnight stays within the day: [start, end) is
	// half-open.
	midnight := day.Add(24 * time.Hour)
	b, err := svc.Create(ctx, "tenant-a", CreateRequest{
		OfferingID: "off-slot", CustomerName: "Night Owl",
		StartTime: &late, EndTime: &midnight,
	})
	require.NoError(t, err)

	// Rescheduling goes through the same validation.
	_, err = svc.Reschedule(ctx, "tenant-a", b.ID, RescheduleRequest{
		StartTime: &late, EndTime: &crossEnd,
	})
	assert.ErrorIs(t, err, ErrSlotSpansDays)

	// With the constraint in place, any interval that can overlap a slot
	// shares its lock key.
	earlier := day.Add(22 * time.Hour)
	overlapEnd := day.Add(23*time.Hour + 30*time.Minute)
	other := &Booking{OfferingID: b.OfferingID, StartTime: &earlier, EndTime: &overlapEnd}
	assert.Equal(t, b.SlotKey(), other.SlotKey())
}

func TestCanceledBookingFreesSlot(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	day := futureDate(7)

	first, err := svc.Create(ctx, "tenant-a", CreateRequest{
		OfferingID: "off-date", CustomerName: "First", Date: day,
	})
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, "tenant-a", first.ID)
	require.NoError(t, err)

	_, err = svc.Create(ctx, "tenant-a", CreateRequest{
		OfferingID: "off-date", CustomerName: "Second", Date: day,
	})
	assert.NoError(t, err)
}

func TestStatusTransitions(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	b, err := svc.Create(ctx, "tenant-a", CreateRequest{
		OfferingID: "off-date", CustomerName: "Dana", Date: futureDate(1),
	})
	require.NoError(t, err)

	// pending -> paid -> confirmed -> fulfilled
	for _, to := range []Status{StatusPaid, StatusConfirmed, StatusFulfilled} {
		b, err = svc.UpdateStatus(ctx, "tenant-a", b.ID, to)
		require.NoError(t, err)
		assert.Equal(t, to, b.Status)
	}

	// fulfilled is terminal
	_, err = svc.UpdateStatus(ctx, "tenant-a", b.ID, StatusCanceled)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestRefundRequiresCancelOrPaid(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	b, err := svc.Create(ctx, "tenant-a", CreateRequest{
		OfferingID: "off-date", CustomerName: "Dana", Date: futureDate(1),
	})
	require.NoError(t, err)

	// pending cannot refund directly
	_, err = svc.UpdateStatus(ctx, "tenant-a", b.ID, StatusRefunded)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = svc.Cancel(ctx, "tenant-a", b.ID)
	require.NoError(t, err)

	got, err := svc.UpdateStatus(ctx, "tenant-a", b.ID, StatusRefunded)
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, got.Status)
}

func TestReschedule(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	b, err := svc.Create(ctx, "tenant-a", CreateRequest{
		OfferingID: "off-date", CustomerName: "Dana", Date: futureDate(1),
	})
	require.NoError(t, err)

	moved, err := svc.Reschedule(ctx, "tenant-a", b.ID, RescheduleRequest{Date: futureDate(4)})
	require.NoError(t, err)
	assert.True(t, moved.BookingDate.Equal(*futureDate(4)))

	// A canceled booking cannot move.
	_, err = svc.Cancel(ctx, "tenant-a", b.ID)
	require.NoError(t, err)
	_, err = svc.Reschedule(ctx, "tenant-a", b.ID, RescheduleRequest{Date: futureDate(5)})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestTenantScoping(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	b, err := svc.Create(ctx, "tenant-a", CreateRequest{
		OfferingID: "off-date", CustomerName: "Dana", Date: futureDate(1),
	})
	require.NoError(t, err)

	// Another tenant sees not-found, and cannot book against this
	// tenant's offering either.
	_, err = svc.GetByID(ctx, "tenant-b", b.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Create(ctx, "tenant-b", CreateRequest{
		OfferingID: "off-date", CustomerName: "Eve", Date: futureDate(2),
	})
	assert.ErrorIs(t, err, ErrOfferingNotFound)
}

func TestStatusGraph(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusPaid))
	assert.True(t, CanTransition(StatusPaid, StatusRefunded))
	assert.True(t, CanTransition(StatusConfirmed, StatusCanceled))
	assert.False(t, CanTransition(StatusRefunded, StatusPending))
	assert.False(t, CanTransition(StatusFulfilled, StatusCanceled))
	assert.False(t, CanTransition(StatusPending, StatusFulfilled))

	assert.True(t, StatusPending.Active())
	assert.False(t, StatusCanceled.Active())
	assert.False(t, StatusRefunded.Active())
}
