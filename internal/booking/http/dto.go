package http

import (
	"time"

	"github.com/tidebook/booking-backend/internal/booking"
	"github.com/tidebook/booking-backend/internal/pkg/request"
)

// ListBookingsRequest defines query parameters for listing bookings.
type ListBookingsRequest struct {
	request.ListParams
	OfferingID string     `form:"offering_id" binding:"omitempty,uuid"`
	Status     string     `form:"status" binding:"omitempty,oneof=pending paid confirmed canceled refunded fulfilled"`
	From       *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To         *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
}

type CreateBookingRequest struct {
	OfferingID    string `json:"offering_id" binding:"required,uuid"`
	CustomerName  string `json:"customer_name" binding:"required"`
	CustomerEmail string `json:"customer_email" binding:"omitempty,email"`
	CustomerPhone string `json:"customer_phone"`

	Date      *time.Time `json:"date"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

type RescheduleBookingRequest struct {
	Date      *time.Time `json:"date"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=pending paid confirmed canceled refunded fulfilled"`
}

type BookingResponse struct {
	ID         string `json:"id"`
	OfferingID string `json:"offering_id"`

	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`

	Date      *time.Time `json:"date,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`

	TotalCents int64  `json:"total_cents"`
	Currency   string `json:"currency"`
	Status     string `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewBookingResponse(b *booking.Booking) BookingResponse {
	return BookingResponse{
		ID:            b.ID,
		OfferingID:    b.OfferingID,
		CustomerName:  b.CustomerName,
		CustomerEmail: b.CustomerEmail,
		CustomerPhone: b.CustomerPhone,
		Date:          b.BookingDate,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		TotalCents:    b.TotalCents,
		Currency:      b.Currency,
		Status:        string(b.Status),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}
