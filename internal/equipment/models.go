package equipment

import (
	"time"

	"github.com/google/uuid"
)

// Reservation status values. Pending and confirmed reservations both count
// against stock; cancelled and expired do not.
const (
	ReservationStatusPending   = "PENDING"
	ReservationStatusConfirmed = "CONFIRMED"
	ReservationStatusCancelled = "CANCELLED"
	ReservationStatusExpired   = "EXPIRED"
)

// Equipment defines a discrete-quantity rentable item
type Equipment struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name       string    `gorm:"not null" json:"name"`
	Category   string    `gorm:"type:varchar(50)" json:"category"`
	TotalStock int       `gorm:"not null" json:"total_stock"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EquipmentReservation holds quantity against an equipment item over an
// inclusive date range. Multiple reservations may coexist on the same item
// and dates as long as the sum of active quantities stays within stock.
type EquipmentReservation struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EquipmentID uuid.UUID `gorm:"type:uuid;index;not null" json:"equipment_id"`
	BookingID   uuid.UUID `gorm:"type:uuid;index;not null" json:"booking_id"`
	StartDate   string    `gorm:"type:varchar(10);not null" json:"start_date"`
	EndDate     string    `gorm:"type:varchar(10);not null" json:"end_date"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	Status      string    `gorm:"type:varchar(20);check:status IN ('PENDING', 'CONFIRMED', 'CANCELLED', 'EXPIRED');default:'PENDING'" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MaintenanceBlock withholds quantity from stock over a date range
type MaintenanceBlock struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	EquipmentID uuid.UUID `gorm:"type:uuid;index;not null" json:"equipment_id"`
	StartDate   string    `gorm:"type:varchar(10);not null" json:"start_date"`
	EndDate     string    `gorm:"type:varchar(10);not null" json:"end_date"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	Reason      string    `json:"reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName sets the table name for Equipment
func (Equipment) TableName() string {
	return "equipment"
}

// TableName sets the table name for EquipmentReservation
func (EquipmentReservation) TableName() string {
	return "equipment_reservations"
}

// TableName sets the table name for MaintenanceBlock
func (MaintenanceBlock) TableName() string {
	return "equipment_maintenance_blocks"
}

// IsActive reports whether the reservation counts against stock
func (r *EquipmentReservation) IsActive() bool {
	return r.Status == ReservationStatusPending || r.Status == ReservationStatusConfirmed
}

// OverAllocation flags a date where active reservations exceed usable stock.
// Produced by the reconciliation sweep for manual resolution.
type OverAllocation struct {
	EquipmentID uuid.UUID `json:"equipment_id"`
	Date        string    `json:"date"`
	Reserved    int       `json:"reserved"`
	Usable      int       `json:"usable"`
}
