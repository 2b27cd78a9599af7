package equipment

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
	GetEquipment(ctx context.Context, id uuid.UUID) (*Equipment, error)
	ListEquipmentIDs(ctx context.Context) ([]uuid.UUID, error)
	CreateEquipment(ctx context.Context, eq *Equipment) error

	GetOverlappingReservations(ctx context.Context, equipmentID uuid.UUID, startDate, endDate string) ([]EquipmentReservation, error)
	GetActiveReservations(ctx context.Context, equipmentID uuid.UUID) ([]EquipmentReservation, error)
	CreateReservation(ctx context.Context, res *EquipmentReservation) error
	UpdateReservationStatus(ctx context.Context, bookingID uuid.UUID, expected, next string) error

	GetOverlappingMaintenance(ctx context.Context, equipmentID uuid.UUID, startDate, endDate string) ([]MaintenanceBlock, error)
	CreateMaintenanceBlock(ctx context.Context, block *MaintenanceBlock) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetEquipment(ctx context.Context, id uuid.UUID) (*Equipment, error) {
	var eq Equipment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&eq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: equipment %s", faults.ErrNotFound, id)
		}
		return nil, err
	}
	return &eq, nil
}

func (r *repository) ListEquipmentIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&Equipment{}).Pluck("id", &ids).Error
	return ids, err
}

func (r *repository) CreateEquipment(ctx context.Context, eq *Equipment) error {
	return r.db.WithContext(ctx).Create(eq).Error
}

// GetOverlappingReservations returns active reservations whose inclusive date
// range overlaps the requested one: start <= requested.end AND end >= requested.start.
func (r *repository) GetOverlappingReservations(ctx context.Context, equipmentID uuid.UUID, startDate, endDate string) ([]EquipmentReservation, error) {
	var reservations []EquipmentReservation
	err := r.db.WithContext(ctx).
		Where("equipment_id = ? AND status IN ? AND start_date <= ? AND end_date >= ?",
			equipmentID, []string{ReservationStatusPending, ReservationStatusConfirmed}, endDate, startDate).
		Find(&reservations).Error
	return reservations, err
}

func (r *repository) GetActiveReservations(ctx context.Context, equipmentID uuid.UUID) ([]EquipmentReservation, error) {
	var reservations []EquipmentReservation
	err := r.db.WithContext(ctx).
		Where("equipment_id = ? AND status IN ?",
			equipmentID, []string{ReservationStatusPending, ReservationStatusConfirmed}).
		Find(&reservations).Error
	return reservations, err
}

func (r *repository) CreateReservation(ctx context.Context, res *EquipmentReservation) error {
	return r.db.WithContext(ctx).Create(res).Error
}

// UpdateReservationStatus is a precondition-guarded status flip for all of a
// combined booking's equipment reservations. Re-applying with the same
// arguments matches zero rows, which keeps release idempotent.
func (r *repository) UpdateReservationStatus(ctx context.Context, bookingID uuid.UUID, expected, next string) error {
	return r.db.WithContext(ctx).
		Model(&EquipmentReservation{}).
		Where("booking_id = ? AND status = ?", bookingID, expected).
		Updates(map[string]interface{}{
			"status":     next,
			"updated_at": time.Now(),
		}).Error
}

func (r *repository) GetOverlappingMaintenance(ctx context.Context, equipmentID uuid.UUID, startDate, endDate string) ([]MaintenanceBlock, error) {
	var blocks []MaintenanceBlock
	err := r.db.WithContext(ctx).
		Where("equipment_id = ? AND start_date <= ? AND end_date >= ?", equipmentID, endDate, startDate).
		Find(&blocks).Error
	return blocks, err
}

func (r *repository) CreateMaintenanceBlock(ctx context.Context, block *MaintenanceBlock) error {
	return r.db.WithContext(ctx).Create(block).Error
}
