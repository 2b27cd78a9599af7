package units

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
	GetUnit(ctx context.Context, id uuid.UUID) (*Unit, error)
	GetUnits(ctx context.Context, ids []uuid.UUID) ([]Unit, error)
	GetUnitsByVenue(ctx context.Context, venueID uuid.UUID) ([]Unit, error)
	CreateUnit(ctx context.Context, unit *Unit) error

	// AcquireLock is the serialization point for identity-based resources:
	// a single conditional UPDATE that only matches a unit that is available
	// or carries an already-expired lock. Zero matched rows means the caller
	// lost the race.
	AcquireLock(ctx context.Context, unitID uuid.UUID, sessionID string, lockExpiry time.Time) error

	// ConfirmLock flips LOCKED -> BOOKED for the session's live lock. The
	// owner stays recorded on the booked row, so re-confirming after a
	// partial settlement matches again instead of failing.
	ConfirmLock(ctx context.Context, unitID uuid.UUID, sessionID string) error

	// ReleaseLock flips the session's lock back to AVAILABLE. Releasing a
	// lock that is no longer held is a no-op.
	ReleaseLock(ctx context.Context, unitID uuid.UUID, sessionID string) error

	// ForceRelease returns a lock to AVAILABLE regardless of owner, guarded
	// on the lock still carrying the expiry that made it stale. A unit
	// re-acquired with a fresh expiry no longer matches. Used by the sweeper.
	ForceRelease(ctx context.Context, unitID uuid.UUID, staleBefore time.Time) error

	// ReleaseBooked returns the session's booked unit to AVAILABLE
	// (cancellation). A unit booked by another session is left alone.
	ReleaseBooked(ctx context.Context, unitID uuid.UUID, sessionID string) error

	// ListStaleLocks returns units whose stored status is LOCKED but whose
	// expiry has passed and was never reconciled.
	ListStaleLocks(ctx context.Context, now time.Time) ([]Unit, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetUnit(ctx context.Context, id uuid.UUID) (*Unit, error) {
	var unit Unit
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&unit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unit %s", faults.ErrNotFound, id)
		}
		return nil, err
	}
	return &unit, nil
}

func (r *repository) GetUnits(ctx context.Context, ids []uuid.UUID) ([]Unit, error) {
	var units []Unit
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&units).Error
	return units, err
}

func (r *repository) GetUnitsByVenue(ctx context.Context, venueID uuid.UUID) ([]Unit, error) {
	var units []Unit
	err := r.db.WithContext(ctx).
		Where("venue_id = ?", venueID).
		Order("label ASC").
		Find(&units).Error
	return units, err
}

func (r *repository) CreateUnit(ctx context.Context, unit *Unit) error {
	return r.db.WithContext(ctx).Create(unit).Error
}

func (r *repository) AcquireLock(ctx context.Context, unitID uuid.UUID, sessionID string, lockExpiry time.Time) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&Unit{}).
		Where("id = ? AND (booking_status = ? OR (booking_status = ? AND lock_expiry < ?))",
			unitID, StatusAvailable, StatusLocked, now).
		Updates(map[string]interface{}{
			"booking_status": StatusLocked,
			"lock_expiry":    lockExpiry,
			"locked_by":      sessionID,
			"updated_at":     now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to acquire unit lock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: unit %s", faults.ErrConflict, unitID)
	}
	return nil
}

func (r *repository) ConfirmLock(ctx context.Context, unitID uuid.UUID, sessionID string) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&Unit{}).
		Where("id = ? AND locked_by = ? AND (booking_status = ? AND lock_expiry >= ? OR booking_status = ?)",
			unitID, sessionID, StatusLocked, now, StatusBooked).
		Updates(map[string]interface{}{
			"booking_status": StatusBooked,
			"lock_expiry":    nil,
			"updated_at":     now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to confirm unit lock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: unit %s no longer locked by session", faults.ErrConflict, unitID)
	}
	return nil
}

func (r *repository) ReleaseLock(ctx context.Context, unitID uuid.UUID, sessionID string) error {
	return r.db.WithContext(ctx).
		Model(&Unit{}).
		Where("id = ? AND booking_status = ? AND locked_by = ?", unitID, StatusLocked, sessionID).
		Updates(map[string]interface{}{
			"booking_status": StatusAvailable,
			"lock_expiry":    nil,
			"locked_by":      nil,
			"updated_at":     time.Now(),
		}).Error
}

func (r *repository) ForceRelease(ctx context.Context, unitID uuid.UUID, staleBefore time.Time) error {
	return r.db.WithContext(ctx).
		Model(&Unit{}).
		Where("id = ? AND booking_status = ? AND lock_expiry < ?", unitID, StatusLocked, staleBefore).
		Updates(map[string]interface{}{
			"booking_status": StatusAvailable,
			"lock_expiry":    nil,
			"locked_by":      nil,
			"updated_at":     time.Now(),
		}).Error
}

func (r *repository) ReleaseBooked(ctx context.Context, unitID uuid.UUID, sessionID string) error {
	return r.db.WithContext(ctx).
		Model(&Unit{}).
		Where("id = ? AND booking_status = ? AND locked_by = ?", unitID, StatusBooked, sessionID).
		Updates(map[string]interface{}{
			"booking_status": StatusAvailable,
			"locked_by":      nil,
			"updated_at":     time.Now(),
		}).Error
}

func (r *repository) ListStaleLocks(ctx context.Context, now time.Time) ([]Unit, error) {
	var units []Unit
	err := r.db.WithContext(ctx).
		Where("booking_status = ? AND lock_expiry < ?", StatusLocked, now).
		Find(&units).Error
	return units, err
}
