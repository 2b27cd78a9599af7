package payments

import (
	"time"

	"github.com/google/uuid"
)

// Payment status values reported by the gateway
const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
	StatusRefunded  = "REFUNDED"
)

// PaymentLog records what the gateway told us about a booking's payment.
// There is no gateway integration here, only the record and the linkage to
// the booking state machine.
type PaymentLog struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"booking_id"`
	Amount        float64    `gorm:"not null" json:"amount"`
	Currency      string     `gorm:"type:varchar(3);default:'USD'" json:"currency"`
	Status        string     `gorm:"type:varchar(20);check:status IN ('PENDING', 'COMPLETED', 'FAILED', 'REFUNDED');default:'PENDING'" json:"status"`
	TransactionID string     `gorm:"unique;not null" json:"transaction_id"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	FailureReason string     `json:"failure_reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName sets the table name for PaymentLog
func (PaymentLog) TableName() string {
	return "payment_logs"
}

// IsTerminal reports whether the gateway can still change this status
func (p *PaymentLog) IsTerminal() bool {
	return p.Status == StatusCompleted || p.Status == StatusFailed || p.Status == StatusRefunded
}

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusCompleted, StatusFailed, StatusRefunded:
		return true
	}
	return false
}
