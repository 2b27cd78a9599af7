package bookings

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"gigbook/internal/artists"
	"gigbook/internal/availability"
	"gigbook/internal/equipment"
	"gigbook/internal/shared/config"
	"gigbook/internal/shared/faults"
	"gigbook/internal/window"
	"gigbook/pkg/logger"
)

// ArtistReserver is the slice of the artist service the engine needs
// (to avoid circular dependency).
type ArtistReserver interface {
	Reserve(ctx context.Context, artistID, bookingID, userID uuid.UUID, w window.Window) error
	ConfirmEngagements(ctx context.Context, bookingID uuid.UUID) error
	ReleaseEngagements(ctx context.Context, bookingID uuid.UUID, expectedStatus string) error
}

// EquipmentReserver is the slice of the equipment service the engine needs.
type EquipmentReserver interface {
	Reserve(ctx context.Context, equipmentID, bookingID uuid.UUID, quantity int, w window.Window) error
	ConfirmReservations(ctx context.Context, bookingID uuid.UUID) error
	ReleaseReservations(ctx context.Context, bookingID uuid.UUID, expectedStatus, releasedStatus string) error
}

// UnitLocker is the slice of the unit service the engine needs.
type UnitLocker interface {
	AcquireLocks(ctx context.Context, unitIDs []uuid.UUID, sessionID, holdID string, lockExpiry time.Time) error
	ConfirmUnits(ctx context.Context, unitIDs []uuid.UUID, sessionID, holdID string) error
	ReleaseUnits(ctx context.Context, unitIDs []uuid.UUID, sessionID, holdID string) error
	ReleaseBookedUnits(ctx context.Context, unitIDs []uuid.UUID, sessionID string) error
}

// CacheInvalidator drops cached availability after a capacity change.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, ref availability.ResourceRef)
}

// ExpiryScheduler enqueues the deferred status change that expires an
// unpaid hold. Delivery failures are tolerated; the sweeper is the backstop.
type ExpiryScheduler interface {
	ScheduleStatusChange(ctx context.Context, bookingID uuid.UUID, refs []availability.ResourceRef, target Status, runAt time.Time) error
}

// Service interface defines the contract for the reservation engine
type Service interface {
	// Reserve takes every requested resource or none of them, persists the
	// pending booking and schedules its expiry.
	Reserve(ctx context.Context, userID uuid.UUID, sessionID string, refs []availability.ResourceRef, w window.Window, holdDuration time.Duration) (*Booking, error)

	// ApplyTransition moves the booking to target. The writer that wins the
	// flip runs the capacity side effects; re-applying a move the booking
	// already made returns the current snapshot, finishing any settlement
	// the winner left unfinished.
	ApplyTransition(ctx context.Context, bookingID uuid.UUID, target Status) (*Booking, error)

	// Cancel is ApplyTransition to CANCELLED plus the cancellation record.
	Cancel(ctx context.Context, bookingID uuid.UUID, reason string) (*Booking, error)

	GetBooking(ctx context.Context, bookingID uuid.UUID) (*Booking, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, error)

	// ExpireOverdue expires pending bookings whose hold ran out before now.
	// Called by the sweeper; returns how many were expired.
	ExpireOverdue(ctx context.Context, now time.Time, limit int) (int, error)

	// ReconcileSettlements re-runs the capacity side effects of bookings
	// whose status flip committed but whose settlement never finished.
	// Called by the sweeper; returns how many were settled.
	ReconcileSettlements(ctx context.Context, now time.Time, limit int) (int, error)
}

// settlementGrace keeps the sweeper from re-running a settlement that a
// just-won flip is still working through.
const settlementGrace = 30 * time.Second

type service struct {
	repo      Repository
	artists   ArtistReserver
	equipment EquipmentReserver
	units     UnitLocker
	cache     CacheInvalidator
	scheduler ExpiryScheduler
	cfg       config.ReservationConfig
	log       *logger.Logger
}

func NewService(
	repo Repository,
	artistSvc ArtistReserver,
	equipmentSvc EquipmentReserver,
	unitSvc UnitLocker,
	cache CacheInvalidator,
	scheduler ExpiryScheduler,
	cfg config.ReservationConfig,
	log *logger.Logger,
) Service {
	return &service{
		repo:      repo,
		artists:   artistSvc,
		equipment: equipmentSvc,
		units:     unitSvc,
		cache:     cache,
		scheduler: scheduler,
		cfg:       cfg,
		log:       log,
	}
}

func (s *service) Reserve(ctx context.Context, userID uuid.UUID, sessionID string, refs []availability.ResourceRef, w window.Window, holdDuration time.Duration) (*Booking, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: at least one resource is required", faults.ErrInvalidWindow)
	}
	for _, ref := range refs {
		if err := ref.Validate(); err != nil {
			return nil, err
		}
	}
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session id is required", faults.ErrInvalidWindow)
	}

	switch {
	case holdDuration <= 0:
		holdDuration = s.cfg.DefaultHoldDuration
	case holdDuration > s.cfg.MaxHoldDuration:
		holdDuration = s.cfg.MaxHoldDuration
	}

	// A lost ledger race is retried as a whole fresh attempt.
	var lastErr error
	for attempt := 0; attempt <= s.cfg.ConflictRetries; attempt++ {
		booking, err := s.reserveOnce(ctx, userID, sessionID, refs, w, holdDuration)
		if err == nil {
			return booking, nil
		}
		lastErr = err
		if !errors.Is(err, faults.ErrConflict) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %v", faults.ErrResourceUnavailable, lastErr)
}

func (s *service) reserveOnce(ctx context.Context, userID uuid.UUID, sessionID string, refs []availability.ResourceRef, w window.Window, holdDuration time.Duration) (*Booking, error) {
	bookingID := uuid.New()
	holdExpiry := time.Now().Add(holdDuration)
	holdID := bookingID.String()

	var artistsTaken, equipmentTaken, unitsTaken bool
	var unitIDs []uuid.UUID

	release := func() {
		if artistsTaken {
			_ = s.artists.ReleaseEngagements(ctx, bookingID, artists.BookingStatusPending)
		}
		if equipmentTaken {
			_ = s.equipment.ReleaseReservations(ctx, bookingID, equipment.ReservationStatusPending, equipment.ReservationStatusCancelled)
		}
		if unitsTaken {
			_ = s.units.ReleaseUnits(ctx, unitIDs, sessionID, holdID)
		}
	}

	// Each reserve re-checks right before its write; units go last so the
	// contended conditional lock holds for the shortest time.
	for _, ref := range refs {
		switch ref.Type {
		case availability.ResourceArtist:
			if err := s.artists.Reserve(ctx, ref.ID, bookingID, userID, w); err != nil {
				release()
				return nil, s.acquisitionError("artist", ref.ID, err)
			}
			artistsTaken = true
		case availability.ResourceEquipment:
			if err := s.equipment.Reserve(ctx, ref.ID, bookingID, ref.Quantity, w); err != nil {
				release()
				return nil, s.acquisitionError("equipment", ref.ID, err)
			}
			equipmentTaken = true
		case availability.ResourceUnit:
			unitIDs = append(unitIDs, ref.ID)
		}
	}

	if len(unitIDs) > 0 {
		if err := s.units.AcquireLocks(ctx, unitIDs, sessionID, holdID, holdExpiry); err != nil {
			release()
			return nil, s.acquisitionError("unit", uuid.Nil, err)
		}
		unitsTaken = true
	}

	bookingRef, err := generateBookingRef()
	if err != nil {
		release()
		return nil, fmt.Errorf("failed to generate booking reference: %w", err)
	}

	booking := &Booking{
		ID:         bookingID,
		BookingRef: bookingRef,
		UserID:     userID,
		SessionID:  sessionID,
		Status:     StatusPending,
		Resources:  refs,
		Window:     w,
		HoldExpiry: holdExpiry,
	}
	if err := s.repo.CreateBooking(ctx, booking); err != nil {
		release()
		return nil, fmt.Errorf("failed to persist booking: %w", err)
	}

	for _, ref := range refs {
		s.cache.Invalidate(ctx, ref)
	}

	// Delivery failure is logged, not surfaced: the sweeper expires
	// overdue holds on its own.
	if err := s.scheduler.ScheduleStatusChange(ctx, bookingID, refs, StatusExpired, holdExpiry); err != nil {
		s.log.Warn("failed to schedule booking expiry",
			"booking_id", bookingID.String(), "error", err.Error())
	}

	s.log.LogReservationCreated(ctx, bookingID.String(), userID.String(), len(refs))
	return booking, nil
}

func (s *service) acquisitionError(kind string, id uuid.UUID, err error) error {
	// Policy breaches, malformed windows and lost races keep their
	// identity; everything else fails closed as unavailable.
	switch {
	case errors.Is(err, faults.ErrPolicyViolation),
		errors.Is(err, faults.ErrInvalidWindow),
		errors.Is(err, faults.ErrNotFound),
		errors.Is(err, faults.ErrConflict),
		errors.Is(err, faults.ErrResourceUnavailable):
		return err
	}
	if id == uuid.Nil {
		return fmt.Errorf("%w: %s acquisition failed: %v", faults.ErrResourceUnavailable, kind, err)
	}
	return fmt.Errorf("%w: %s %s acquisition failed: %v", faults.ErrResourceUnavailable, kind, id, err)
}

func (s *service) ApplyTransition(ctx context.Context, bookingID uuid.UUID, target Status) (*Booking, error) {
	return s.applyTransition(ctx, bookingID, target, nil)
}

func (s *service) Cancel(ctx context.Context, bookingID uuid.UUID, reason string) (*Booking, error) {
	now := time.Now()
	return s.applyTransition(ctx, bookingID, StatusCancelled, map[string]interface{}{
		"cancellation_reason": reason,
		"cancelled_at":        now,
	})
}

func (s *service) applyTransition(ctx context.Context, bookingID uuid.UUID, target Status, fields map[string]interface{}) (*Booking, error) {
	if !target.IsValid() {
		return nil, fmt.Errorf("%w: unknown status %q", faults.ErrInvalidTransition, target)
	}

	booking, err := s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	// Already there. Re-applying the move is a no-op, except that an
	// unfinished settlement from the earlier flip is picked up here, so a
	// redelivered job completes the releases its first delivery left behind.
	if booking.Status == target {
		if err := s.ensureSettled(ctx, booking); err != nil {
			return nil, err
		}
		return booking, nil
	}

	prior := booking.Status
	if !prior.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: %s -> %s", faults.ErrInvalidTransition, prior, target)
	}

	if err := s.repo.UpdateStatusGuarded(ctx, bookingID, prior, target, fields); err != nil {
		if errors.Is(err, faults.ErrConflict) {
			// Another writer flipped first. If it applied the same move we
			// finish whatever settlement it still owes; anything else is a
			// real conflict.
			current, readErr := s.repo.GetBookingByID(ctx, bookingID)
			if readErr != nil {
				return nil, readErr
			}
			if current.Status == target {
				if settleErr := s.ensureSettled(ctx, current); settleErr != nil {
					return nil, settleErr
				}
				return current, nil
			}
			return nil, fmt.Errorf("%w: %s -> %s", faults.ErrInvalidTransition, current.Status, target)
		}
		return nil, err
	}

	// This writer won the flip, so it runs the side effects. A failure here
	// leaves the settlement marker unset; the retry or the sweeper finishes
	// the releases, and each release is a guarded write that matches zero
	// rows once applied.
	if err := s.settleResources(ctx, booking, prior, target); err != nil {
		s.log.LogTransitionFailed(ctx, bookingID.String(), target.String(), err)
		return nil, err
	}
	if err := s.repo.MarkSettled(ctx, bookingID, time.Now()); err != nil {
		s.log.Warn("failed to mark booking settled",
			"booking_id", bookingID.String(), "error", err.Error())
	}

	for _, ref := range booking.Resources {
		s.cache.Invalidate(ctx, ref)
	}

	booking, err = s.repo.GetBookingByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	s.log.LogTransitionApplied(ctx, bookingID.String(), prior.String(), target.String())
	return booking, nil
}

// ensureSettled re-runs the settlement of a booking whose flip committed
// without finishing its side effects. Safe on a settled booking.
func (s *service) ensureSettled(ctx context.Context, booking *Booking) error {
	if booking.IsSettled() || booking.Status == StatusPending {
		return nil
	}

	// Bookings flipped before the prior status was recorded settle as if
	// they came from PENDING, the direction with owner-guarded releases.
	prior := StatusPending
	if booking.PriorStatus != nil {
		prior = *booking.PriorStatus
	}

	if err := s.settleResources(ctx, booking, prior, booking.Status); err != nil {
		s.log.LogTransitionFailed(ctx, booking.ID.String(), booking.Status.String(), err)
		return err
	}
	if err := s.repo.MarkSettled(ctx, booking.ID, time.Now()); err != nil {
		s.log.Warn("failed to mark booking settled",
			"booking_id", booking.ID.String(), "error", err.Error())
	}

	for _, ref := range booking.Resources {
		s.cache.Invalidate(ctx, ref)
	}
	return nil
}

// settleResources confirms or releases the booking's sub-resources after a
// won status flip.
func (s *service) settleResources(ctx context.Context, booking *Booking, prior, target Status) error {
	unitIDs := refIDs(booking.RefsOfType(availability.ResourceUnit))
	holdID := booking.ID.String()

	switch target {
	case StatusConfirmed:
		if err := s.artists.ConfirmEngagements(ctx, booking.ID); err != nil {
			return fmt.Errorf("failed to confirm artist engagements: %w", err)
		}
		if err := s.equipment.ConfirmReservations(ctx, booking.ID); err != nil {
			return fmt.Errorf("failed to confirm equipment reservations: %w", err)
		}
		if len(unitIDs) > 0 {
			if err := s.units.ConfirmUnits(ctx, unitIDs, booking.SessionID, holdID); err != nil {
				return fmt.Errorf("failed to confirm unit locks: %w", err)
			}
		}

	case StatusExpired:
		return s.releasePending(ctx, booking, equipment.ReservationStatusExpired)

	case StatusCancelled:
		if prior == StatusPending {
			return s.releasePending(ctx, booking, equipment.ReservationStatusCancelled)
		}
		// Cancelling a confirmed booking frees confirmed capacity.
		if err := s.artists.ReleaseEngagements(ctx, booking.ID, artists.BookingStatusConfirmed); err != nil {
			return fmt.Errorf("failed to release artist engagements: %w", err)
		}
		if err := s.equipment.ReleaseReservations(ctx, booking.ID, equipment.ReservationStatusConfirmed, equipment.ReservationStatusCancelled); err != nil {
			return fmt.Errorf("failed to release equipment reservations: %w", err)
		}
		if len(unitIDs) > 0 {
			if err := s.units.ReleaseBookedUnits(ctx, unitIDs, booking.SessionID); err != nil {
				return fmt.Errorf("failed to release booked units: %w", err)
			}
		}

	case StatusCompleted, StatusRefunded:
		// No capacity change.
	}
	return nil
}

func (s *service) releasePending(ctx context.Context, booking *Booking, equipmentStatus string) error {
	if err := s.artists.ReleaseEngagements(ctx, booking.ID, artists.BookingStatusPending); err != nil {
		return fmt.Errorf("failed to release artist engagements: %w", err)
	}
	if err := s.equipment.ReleaseReservations(ctx, booking.ID, equipment.ReservationStatusPending, equipmentStatus); err != nil {
		return fmt.Errorf("failed to release equipment reservations: %w", err)
	}
	unitIDs := refIDs(booking.RefsOfType(availability.ResourceUnit))
	if len(unitIDs) > 0 {
		if err := s.units.ReleaseUnits(ctx, unitIDs, booking.SessionID, booking.ID.String()); err != nil {
			return fmt.Errorf("failed to release unit locks: %w", err)
		}
	}
	return nil
}

func (s *service) GetBooking(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	return s.repo.GetBookingByID(ctx, bookingID)
}

func (s *service) GetUserBookings(ctx context.Context, userID uuid.UUID, limit, offset int) ([]Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.GetUserBookings(ctx, userID, limit, offset)
}

func (s *service) ExpireOverdue(ctx context.Context, now time.Time, limit int) (int, error) {
	overdue, err := s.repo.ListOverduePending(ctx, now, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue bookings: %w", err)
	}

	expired := 0
	for _, booking := range overdue {
		if _, err := s.ApplyTransition(ctx, booking.ID, StatusExpired); err != nil {
			// The booking may have been confirmed or cancelled since the
			// listing; skip it and keep sweeping.
			if errors.Is(err, faults.ErrInvalidTransition) {
				continue
			}
			s.log.Warn("failed to expire overdue booking",
				"booking_id", booking.ID.String(), "error", err.Error())
			continue
		}
		expired++
	}
	return expired, nil
}

func (s *service) ReconcileSettlements(ctx context.Context, now time.Time, limit int) (int, error) {
	unsettled, err := s.repo.ListUnsettled(ctx, now.Add(-settlementGrace), limit)
	if err != nil {
		return 0, fmt.Errorf("failed to list unsettled bookings: %w", err)
	}

	settled := 0
	for i := range unsettled {
		if err := s.ensureSettled(ctx, &unsettled[i]); err != nil {
			s.log.Warn("failed to settle booking",
				"booking_id", unsettled[i].ID.String(), "error", err.Error())
			continue
		}
		settled++
	}
	return settled, nil
}

func refIDs(refs []availability.ResourceRef) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(refs))
	for _, ref := range refs {
		ids = append(ids, ref.ID)
	}
	return ids
}

// generateBookingRef generates a unique human-readable booking reference
func generateBookingRef() (string, error) {
	timestamp := time.Now().Format("20060102")

	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	randomPart := make([]byte, 6)
	for i := range randomPart {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		randomPart[i] = letters[num.Int64()]
	}

	return fmt.Sprintf("GIG-%s-%s", timestamp, string(randomPart)), nil
}
