package bookings

import (
	"time"

	"github.com/google/uuid"

	"gigbook/internal/availability"
	"gigbook/internal/window"
)

// Booking is the combined reservation: one user taking several resources
// for one window under a single status.
type Booking struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingRef string    `gorm:"unique;not null" json:"booking_ref"`
	UserID     uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	SessionID  string    `gorm:"not null" json:"session_id"`

	Status    Status                     `gorm:"type:varchar(20);check:status IN ('PENDING', 'CONFIRMED', 'CANCELLED', 'EXPIRED', 'COMPLETED', 'REFUNDED');default:'PENDING'" json:"status"`
	Resources []availability.ResourceRef `gorm:"serializer:json;not null" json:"resources"`
	Window    window.Window              `gorm:"serializer:json;not null" json:"window"`

	HoldExpiry   time.Time  `gorm:"index;not null" json:"hold_expiry"`
	PaymentLogID *uuid.UUID `gorm:"type:uuid" json:"payment_log_id,omitempty"`

	// PriorStatus records where the last status flip came from and SettledAt
	// when its capacity side effects finished. A flipped booking with a nil
	// SettledAt still owes its confirms or releases.
	PriorStatus *Status    `gorm:"type:varchar(20)" json:"-"`
	SettledAt   *time.Time `json:"-"`

	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}

// IsHoldExpired reports whether the pending hold has run out
func (b *Booking) IsHoldExpired(now time.Time) bool {
	return b.Status == StatusPending && b.HoldExpiry.Before(now)
}

// IsSettled reports whether the capacity side effects of the last status
// flip have completed
func (b *Booking) IsSettled() bool {
	return b.SettledAt != nil
}

// RefsOfType returns the booking's resource refs of one type
func (b *Booking) RefsOfType(resourceType string) []availability.ResourceRef {
	var refs []availability.ResourceRef
	for _, ref := range b.Resources {
		if ref.Type == resourceType {
			refs = append(refs, ref)
		}
	}
	return refs
}
