package artists

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"gigbook/internal/shared/faults"
)

type Repository interface {
	// Artist catalog reads
	GetArtist(ctx context.Context, id uuid.UUID) (*Artist, error)
	ListActiveArtistIDs(ctx context.Context) ([]uuid.UUID, error)
	CreateArtist(ctx context.Context, artist *Artist) error

	// Engagement ledger
	GetActiveBookings(ctx context.Context, artistID uuid.UUID, date string) ([]ArtistBooking, error)
	ListActiveBookings(ctx context.Context) ([]ArtistBooking, error)
	CreateBooking(ctx context.Context, booking *ArtistBooking) error
	UpdateBookingStatus(ctx context.Context, bookingID uuid.UUID, expected, next string, cancelledAt *time.Time) error
	GetBookingsByBookingID(ctx context.Context, bookingID uuid.UUID) ([]ArtistBooking, error)

	// Blackouts
	GetUnavailability(ctx context.Context, artistID uuid.UUID, date string) (*ArtistUnavailability, error)
	UpsertUnavailability(ctx context.Context, artistID uuid.UUID, date string, hours []int) (*ArtistUnavailability, error)
	ListUnavailableArtistIDs(ctx context.Context, date string, startHour, endHour int) ([]uuid.UUID, error)
	ListBookedArtistIDs(ctx context.Context, date string, startHour, endHour int) ([]uuid.UUID, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetArtist(ctx context.Context, id uuid.UUID) (*Artist, error) {
	var artist Artist
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&artist).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: artist %s", faults.ErrNotFound, id)
		}
		return nil, err
	}
	return &artist, nil
}

func (r *repository) ListActiveArtistIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&Artist{}).
		Where("active = ?", true).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *repository) CreateArtist(ctx context.Context, artist *Artist) error {
	if artist.Slug == "" {
		artist.Slug = Slugify(artist.Name)
	}
	return r.db.WithContext(ctx).Create(artist).Error
}

func (r *repository) GetActiveBookings(ctx context.Context, artistID uuid.UUID, date string) ([]ArtistBooking, error) {
	var bookings []ArtistBooking
	err := r.db.WithContext(ctx).
		Where("artist_id = ? AND date = ? AND status IN ?", artistID, date,
			[]string{BookingStatusPending, BookingStatusConfirmed}).
		Order("start_hour ASC").
		Find(&bookings).Error
	return bookings, err
}

func (r *repository) ListActiveBookings(ctx context.Context) ([]ArtistBooking, error) {
	var bookings []ArtistBooking
	err := r.db.WithContext(ctx).
		Where("status IN ?", []string{BookingStatusPending, BookingStatusConfirmed}).
		Order("artist_id ASC, date ASC, start_hour ASC").
		Find(&bookings).Error
	return bookings, err
}

func (r *repository) CreateBooking(ctx context.Context, booking *ArtistBooking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

// UpdateBookingStatus flips all engagements of a combined booking from the
// expected prior status to the next one. Zero affected rows with engagements
// present means the transition already happened, which is not an error here.
func (r *repository) UpdateBookingStatus(ctx context.Context, bookingID uuid.UUID, expected, next string, cancelledAt *time.Time) error {
	updates := map[string]interface{}{
		"status":     next,
		"updated_at": time.Now(),
	}
	if cancelledAt != nil {
		updates["cancelled_at"] = *cancelledAt
	}

	return r.db.WithContext(ctx).
		Model(&ArtistBooking{}).
		Where("booking_id = ? AND status = ?", bookingID, expected).
		Updates(updates).Error
}

func (r *repository) GetBookingsByBookingID(ctx context.Context, bookingID uuid.UUID) ([]ArtistBooking, error) {
	var bookings []ArtistBooking
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Find(&bookings).Error
	return bookings, err
}

func (r *repository) GetUnavailability(ctx context.Context, artistID uuid.UUID, date string) (*ArtistUnavailability, error) {
	var unavail ArtistUnavailability
	err := r.db.WithContext(ctx).
		Where("artist_id = ? AND date = ?", artistID, date).
		First(&unavail).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &unavail, nil
}

// UpsertUnavailability merges the given hours into the artist's blackout for
// the date via set union, so repeated writes are idempotent.
func (r *repository) UpsertUnavailability(ctx context.Context, artistID uuid.UUID, date string, hours []int) (*ArtistUnavailability, error) {
	var result *ArtistUnavailability

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing ArtistUnavailability
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("artist_id = ? AND date = ?", artistID, date).
			First(&existing).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			existing = ArtistUnavailability{
				ArtistID: artistID,
				Date:     date,
				Hours:    unionHours(nil, hours),
			}
			if err := tx.Create(&existing).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			existing.Hours = unionHours(existing.Hours, hours)
			existing.UpdatedAt = time.Now()
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
		}

		result = &existing
		return nil
	})

	return result, err
}

func (r *repository) ListUnavailableArtistIDs(ctx context.Context, date string, startHour, endHour int) ([]uuid.UUID, error) {
	var rows []ArtistUnavailability
	err := r.db.WithContext(ctx).
		Where("date = ?", date).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	// Hours are stored serialized, so the intersection check happens here
	// rather than in SQL.
	var ids []uuid.UUID
	for _, row := range rows {
		for _, h := range row.Hours {
			if h >= startHour && h < endHour {
				ids = append(ids, row.ArtistID)
				break
			}
		}
	}
	return ids, nil
}

func (r *repository) ListBookedArtistIDs(ctx context.Context, date string, startHour, endHour int) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&ArtistBooking{}).
		Distinct("artist_id").
		Where("date = ? AND status IN ? AND start_hour < ? AND end_hour > ?",
			date, []string{BookingStatusPending, BookingStatusConfirmed}, endHour, startHour).
		Pluck("artist_id", &ids).Error
	return ids, err
}

// unionHours merges two hour sets into a sorted, de-duplicated slice
func unionHours(existing, incoming []int) []int {
	set := make(map[int]bool, len(existing)+len(incoming))
	for _, h := range existing {
		set[h] = true
	}
	for _, h := range incoming {
		if h >= 0 && h < 24 {
			set[h] = true
		}
	}

	merged := make([]int, 0, len(set))
	for h := range set {
		merged = append(merged, h)
	}
	sort.Ints(merged)
	return merged
}
