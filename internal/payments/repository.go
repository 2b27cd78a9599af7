package payments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	CreatePaymentLog(ctx context.Context, log *PaymentLog) error
	// GetByTransactionID returns nil, nil when the transaction is unknown.
	GetByTransactionID(ctx context.Context, transactionID string) (*PaymentLog, error)
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) ([]PaymentLog, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreatePaymentLog(ctx context.Context, log *PaymentLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

func (r *repository) GetByTransactionID(ctx context.Context, transactionID string) (*PaymentLog, error) {
	var log PaymentLog
	err := r.db.WithContext(ctx).Where("transaction_id = ?", transactionID).First(&log).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &log, nil
}

func (r *repository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) ([]PaymentLog, error) {
	var logs []PaymentLog
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at DESC").
		Find(&logs).Error
	return logs, err
}
