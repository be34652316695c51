package agent

import "time"

// Payload types for each tool. The proposal stores the marshaled payload at
// creation time and the executor decodes it back; nothing is re-read from
// the conversation between approval and execution.

type UpdateStorefrontSectionPayload struct {
	SectionID string  `json:"section_id"`
	Title     *string `json:"title,omitempty"`
	Body      *string `json:"body,omitempty"`
	Published *bool   `json:"published,omitempty"`
}

type UpdateOfferingPricePayload struct {
	OfferingID string `json:"offering_id"`
	PriceCents int64  `json:"price_cents"`
}

type CreateBookingPayload struct {
	OfferingID    string     `json:"offering_id"`
	CustomerName  string     `json:"customer_name"`
	CustomerEmail string     `json:"customer_email"`
	CustomerPhone string     `json:"customer_phone"`
	Date          *time.Time `json:"date,omitempty"`
	StartTime     *time.Time `json:"start_time,omitempty"`
	EndTime       *time.Time `json:"end_time,omitempty"`
}

type CancelBookingPayload struct {
	BookingID string `json:"booking_id"`
}

type RescheduleBookingPayload struct {
	BookingID string     `json:"booking_id"`
	Date      *time.Time `json:"date,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
}
