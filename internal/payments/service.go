package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gigbook/internal/availability"
	"gigbook/internal/bookings"
	"gigbook/internal/shared/faults"
	"gigbook/pkg/logger"
)

// BookingTransitioner is the slice of the booking engine the payment
// linkage needs (to avoid circular dependency).
type BookingTransitioner interface {
	ApplyTransition(ctx context.Context, bookingID uuid.UUID, target bookings.Status) (*bookings.Booking, error)
	GetBooking(ctx context.Context, bookingID uuid.UUID) (*bookings.Booking, error)
}

// BookingLinker attaches the payment log to its booking row.
type BookingLinker interface {
	SetPaymentLog(ctx context.Context, id uuid.UUID, paymentLogID uuid.UUID) error
}

// ExpiryScheduler enqueues the immediate expiry that follows a failed
// payment.
type ExpiryScheduler interface {
	ScheduleStatusChange(ctx context.Context, bookingID uuid.UUID, refs []availability.ResourceRef, target bookings.Status, runAt time.Time) error
}

type Service interface {
	// HandleGatewayCallback records the gateway's terminal result and moves
	// the booking accordingly. Replayed callbacks for a known transaction
	// are no-ops returning the stored log.
	HandleGatewayCallback(ctx context.Context, req GatewayCallbackRequest) (*PaymentLog, error)

	GetBookingPayments(ctx context.Context, bookingID uuid.UUID) ([]PaymentLog, error)
}

type service struct {
	repo      Repository
	engine    BookingTransitioner
	linker    BookingLinker
	scheduler ExpiryScheduler
	log       *logger.Logger
}

func NewService(repo Repository, engine BookingTransitioner, linker BookingLinker, scheduler ExpiryScheduler, log *logger.Logger) Service {
	return &service{
		repo:      repo,
		engine:    engine,
		linker:    linker,
		scheduler: scheduler,
		log:       log,
	}
}

func (s *service) HandleGatewayCallback(ctx context.Context, req GatewayCallbackRequest) (*PaymentLog, error) {
	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid booking id", faults.ErrInvalidWindow)
	}
	if !ValidStatus(req.Status) || req.Status == StatusPending {
		return nil, fmt.Errorf("%w: gateway callbacks must carry a terminal status", faults.ErrInvalidWindow)
	}

	// Gateways retry callbacks; the transaction id makes replays no-ops.
	existing, err := s.repo.GetByTransactionID(ctx, req.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up transaction: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	booking, err := s.engine.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	paymentLog := &PaymentLog{
		ID:            uuid.New(),
		BookingID:     bookingID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		Status:        req.Status,
		TransactionID: req.TransactionID,
		ProcessedAt:   &now,
		FailureReason: req.FailureReason,
	}
	if err := s.repo.CreatePaymentLog(ctx, paymentLog); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	if err := s.linker.SetPaymentLog(ctx, bookingID, paymentLog.ID); err != nil {
		return nil, fmt.Errorf("failed to link payment to booking: %w", err)
	}

	switch req.Status {
	case StatusCompleted:
		if _, err := s.engine.ApplyTransition(ctx, bookingID, bookings.StatusConfirmed); err != nil {
			return nil, fmt.Errorf("payment recorded but confirmation failed: %w", err)
		}
	case StatusFailed:
		// Expire straight away instead of waiting out the hold.
		if err := s.scheduler.ScheduleStatusChange(ctx, bookingID, booking.Resources, bookings.StatusExpired, now); err != nil {
			s.log.Warn("failed to schedule expiry after failed payment",
				"booking_id", bookingID.String(), "error", err.Error())
		}
	case StatusRefunded:
		if _, err := s.engine.ApplyTransition(ctx, bookingID, bookings.StatusRefunded); err != nil {
			return nil, fmt.Errorf("refund recorded but transition failed: %w", err)
		}
	}

	return paymentLog, nil
}

func (s *service) GetBookingPayments(ctx context.Context, bookingID uuid.UUID) ([]PaymentLog, error) {
	return s.repo.GetByBookingID(ctx, bookingID)
}
