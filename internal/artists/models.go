package artists

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"gigbook/internal/window"
)

// Booking status values for artist engagements. An artist booking is never
// hard-deleted; cancellation is a status change.
const (
	BookingStatusPending   = "PENDING"
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusCancelled = "CANCELLED"
)

// Artist defines an artist profile with its reservation policy
type Artist struct {
	ID   uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name string    `gorm:"not null" json:"name"`
	Slug string    `gorm:"unique;not null" json:"slug"`
	// Genre is catalog metadata, not consulted by the reservation engine
	Genre  string `gorm:"type:varchar(50)" json:"genre"`
	Active bool   `gorm:"default:true;index" json:"active"`

	// CooldownPeriodHours is the minimum gap required after a prior booking
	// before a new one may start on the same date.
	CooldownPeriodHours int `gorm:"default:0" json:"cooldown_period_hours"`
	// MaximumPerformanceHours caps the length of a single engagement window.
	// Zero means no cap.
	MaximumPerformanceHours int `gorm:"default:0" json:"maximum_performance_hours"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ArtistBooking defines one pending or confirmed engagement of an artist.
// Owned by the booking party; the artist is referenced by id only.
type ArtistBooking struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ArtistID  uuid.UUID `gorm:"type:uuid;index:idx_artist_date;not null" json:"artist_id"`
	BookingID uuid.UUID `gorm:"type:uuid;index;not null" json:"booking_id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Date      string    `gorm:"type:varchar(10);index:idx_artist_date;not null" json:"date"`
	StartHour int       `gorm:"not null" json:"start_hour"`
	EndHour   int       `gorm:"not null" json:"end_hour"`
	Status    string    `gorm:"type:varchar(20);check:status IN ('PENDING', 'CONFIRMED', 'CANCELLED');default:'PENDING'" json:"status"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

// EngagementOverlap flags active engagements holding the same artist's hours.
// Produced by the reconciliation sweep for manual resolution.
type EngagementOverlap struct {
	ArtistID uuid.UUID       `json:"artist_id"`
	Date     string          `json:"date"`
	Windows  []window.Window `json:"windows"`
}

// ArtistUnavailability is an artist-declared blackout: one row per artist per
// date, hours merged by set union on repeated writes.
type ArtistUnavailability struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ArtistID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_artist_unavail_date" json:"artist_id"`
	Date     string    `gorm:"type:varchar(10);not null;uniqueIndex:idx_artist_unavail_date" json:"date"`
	Hours    []int     `gorm:"serializer:json" json:"hours"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for Artist
func (Artist) TableName() string {
	return "artists"
}

// TableName sets the table name for ArtistBooking
func (ArtistBooking) TableName() string {
	return "artist_bookings"
}

// TableName sets the table name for ArtistUnavailability
func (ArtistUnavailability) TableName() string {
	return "artist_unavailability"
}

// IsActive reports whether the booking still holds the artist's time
func (b *ArtistBooking) IsActive() bool {
	return b.Status == BookingStatusPending || b.Status == BookingStatusConfirmed
}

// Cancel marks the booking cancelled
func (b *ArtistBooking) Cancel() {
	b.Status = BookingStatusCancelled
	now := time.Now()
	b.CancelledAt = &now
	b.UpdatedAt = now
}

// HourSet returns the blackout hours as a set
func (u *ArtistUnavailability) HourSet() map[int]bool {
	set := make(map[int]bool, len(u.Hours))
	for _, h := range u.Hours {
		set[h] = true
	}
	return set
}

// Slugify computes a URL-safe slug at creation time
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		default:
			return -1
		}
	}, slug)
	return strings.Trim(slug, "-")
}
