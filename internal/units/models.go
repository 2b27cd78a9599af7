package units

import (
	"time"

	"github.com/google/uuid"
)

// Kind of identity-based venue resource
const (
	KindSeat  = "SEAT"
	KindTable = "TABLE"
	KindBooth = "BOOTH"
)

// Stored booking status values. A stored LOCKED whose expiry has passed is
// treated as AVAILABLE by every reader until the sweeper reconciles it.
const (
	StatusAvailable = "AVAILABLE"
	StatusLocked    = "LOCKED"
	StatusBooked    = "BOOKED"
	StatusBlocked   = "BLOCKED"
)

// Unit defines an identity-based venue resource (seat, table or booth)
type Unit struct {
	ID      uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	VenueID uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_venue_unit" json:"venue_id"`
	Kind    string    `gorm:"type:varchar(10);check:kind IN ('SEAT', 'TABLE', 'BOOTH');not null" json:"kind"`
	Label   string    `gorm:"not null;uniqueIndex:idx_venue_unit" json:"label"`
	Price   float64   `gorm:"not null" json:"price"`

	BookingStatus string     `gorm:"type:varchar(20);check:booking_status IN ('AVAILABLE', 'LOCKED', 'BOOKED', 'BLOCKED');default:'AVAILABLE'" json:"booking_status"`
	LockExpiry    *time.Time `json:"lock_expiry,omitempty"`
	LockedBy      *string    `json:"locked_by,omitempty"` // session id

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for Unit
func (Unit) TableName() string {
	return "venue_units"
}

// EffectiveStatus applies lazy expiry: a lock whose expiry has passed reads
// as available regardless of the stored status.
func (u *Unit) EffectiveStatus(now time.Time) string {
	if u.BookingStatus == StatusLocked && u.LockExpiry != nil && u.LockExpiry.Before(now) {
		return StatusAvailable
	}
	return u.BookingStatus
}

// IsAvailable reports whether the unit can be locked right now
func (u *Unit) IsAvailable(now time.Time) bool {
	return u.EffectiveStatus(now) == StatusAvailable
}

// IsLockedBy reports whether the unit holds a live lock for the session
func (u *Unit) IsLockedBy(sessionID string, now time.Time) bool {
	return u.BookingStatus == StatusLocked &&
		u.LockedBy != nil && *u.LockedBy == sessionID &&
		u.LockExpiry != nil && u.LockExpiry.After(now)
}

// ValidKind reports whether the string names a unit kind
func ValidKind(kind string) bool {
	switch kind {
	case KindSeat, KindTable, KindBooth:
		return true
	}
	return false
}
