package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"gigbook/internal/shared/faults"
)

type Repository interface {
	CreateBooking(ctx context.Context, booking *Booking) error
	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, error)

	// UpdateStatusGuarded flips the booking status only when the stored
	// status still matches expected. Zero matched rows means another writer
	// won the flip; the caller re-reads and treats it as already applied.
	// The flip records the prior status and clears the settlement marker so
	// the winner's side effects can be re-run if they do not finish.
	UpdateStatusGuarded(ctx context.Context, id uuid.UUID, expected, next Status, fields map[string]interface{}) error

	// MarkSettled records that the capacity side effects of the last status
	// flip completed.
	MarkSettled(ctx context.Context, id uuid.UUID, at time.Time) error

	// ListOverduePending returns pending bookings whose hold expired before
	// the cutoff. Used by the sweeper.
	ListOverduePending(ctx context.Context, cutoff time.Time, limit int) ([]Booking, error)

	// ListUnsettled returns flipped bookings whose settlement never finished
	// and which were last touched before the cutoff. Used by the sweeper.
	ListUnsettled(ctx context.Context, cutoff time.Time, limit int) ([]Booking, error)

	SetPaymentLog(ctx context.Context, id uuid.UUID, paymentLogID uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateBooking(ctx context.Context, booking *Booking) error {
	return r.db.WithContext(ctx).Create(booking).Error
}

func (r *repository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: booking %s", faults.ErrNotFound, id)
		}
		return nil, err
	}
	return &booking, nil
}

func (r *repository) GetUserBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, error) {
	var bookings []Booking
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&bookings).Error
	return bookings, err
}

func (r *repository) UpdateStatusGuarded(ctx context.Context, id uuid.UUID, expected, next Status, fields map[string]interface{}) error {
	updates := map[string]interface{}{
		"status":       next,
		"prior_status": expected,
		"settled_at":   nil,
		"updated_at":   time.Now(),
	}
	for k, v := range fields {
		updates[k] = v
	}

	result := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("failed to update booking status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: booking %s no longer %s", faults.ErrConflict, id, expected)
	}
	return nil
}

func (r *repository) MarkSettled(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ?", id).
		Update("settled_at", at).Error
}

func (r *repository) ListOverduePending(ctx context.Context, cutoff time.Time, limit int) ([]Booking, error) {
	var bookings []Booking
	err := r.db.WithContext(ctx).
		Where("status = ? AND hold_expiry < ?", StatusPending, cutoff).
		Order("hold_expiry ASC").
		Limit(limit).
		Find(&bookings).Error
	return bookings, err
}

func (r *repository) ListUnsettled(ctx context.Context, cutoff time.Time, limit int) ([]Booking, error) {
	var bookings []Booking
	err := r.db.WithContext(ctx).
		Where("settled_at IS NULL AND status <> ? AND updated_at < ?", StatusPending, cutoff).
		Order("updated_at ASC").
		Limit(limit).
		Find(&bookings).Error
	return bookings, err
}

func (r *repository) SetPaymentLog(ctx context.Context, id uuid.UUID, paymentLogID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"payment_log_id": paymentLogID,
			"updated_at":     time.Now(),
		}).Error
}
