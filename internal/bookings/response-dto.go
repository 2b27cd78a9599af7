package bookings

import (
	"time"

	"gigbook/internal/availability"
	"gigbook/internal/window"
)

type BookingResponse struct {
	BookingID          string                     `json:"booking_id"`
	BookingRef         string                     `json:"booking_ref"`
	Status             string                     `json:"status"`
	Resources          []availability.ResourceRef `json:"resources"`
	Window             window.Window              `json:"window"`
	HoldExpiry         time.Time                  `json:"hold_expiry"`
	CancellationReason *string                    `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time                 `json:"cancelled_at,omitempty"`
	CreatedAt          time.Time                  `json:"created_at"`
}

func toBookingResponse(b *Booking) BookingResponse {
	return BookingResponse{
		BookingID:          b.ID.String(),
		BookingRef:         b.BookingRef,
		Status:             b.Status.String(),
		Resources:          b.Resources,
		Window:             b.Window,
		HoldExpiry:         b.HoldExpiry,
		CancellationReason: b.CancellationReason,
		CancelledAt:        b.CancelledAt,
		CreatedAt:          b.CreatedAt,
	}
}
