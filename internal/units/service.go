package units

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gigbook/internal/shared/faults"
)

// CheckResult reports which of the requested units cannot be locked right now
type CheckResult struct {
	Available        bool        `json:"available"`
	UnavailableUnits []uuid.UUID `json:"unavailable_units,omitempty"`
}

type Service interface {
	// Check applies lazy expiry: a stored lock whose expiry has passed
	// counts as available even though no writer has touched it yet.
	Check(ctx context.Context, unitIDs []uuid.UUID) (*CheckResult, error)

	// AcquireLocks locks every unit for the session or none of them. Each
	// lock is a single conditional write; on the first lost race the locks
	// already taken are released and faults.ErrConflict is returned.
	AcquireLocks(ctx context.Context, unitIDs []uuid.UUID, sessionID, holdID string, lockExpiry time.Time) error

	// ConfirmUnits flips the session's live locks to booked.
	ConfirmUnits(ctx context.Context, unitIDs []uuid.UUID, sessionID, holdID string) error

	// ReleaseUnits returns the session's locks to available. Safe to call
	// repeatedly; a lock no longer held is skipped.
	ReleaseUnits(ctx context.Context, unitIDs []uuid.UUID, sessionID, holdID string) error

	// ReleaseBookedUnits returns the session's booked units to available
	// (cancellation of a confirmed booking). Safe to call repeatedly.
	ReleaseBookedUnits(ctx context.Context, unitIDs []uuid.UUID, sessionID string) error

	// SweepStaleLocks force-releases units whose lock expired but was never
	// reconciled, and returns them.
	SweepStaleLocks(ctx context.Context, now time.Time) ([]Unit, error)

	CreateUnit(ctx context.Context, unit *Unit) error
	GetUnit(ctx context.Context, id uuid.UUID) (*Unit, error)
	GetUnitsByVenue(ctx context.Context, venueID uuid.UUID) ([]Unit, error)
}

type service struct {
	repo  Repository
	holds *HoldCache
}

// NewService creates a new unit service. The hold cache may be nil, in which
// case only Postgres state is maintained.
func NewService(repo Repository, holds *HoldCache) Service {
	return &service{
		repo:  repo,
		holds: holds,
	}
}

func (s *service) Check(ctx context.Context, unitIDs []uuid.UUID) (*CheckResult, error) {
	if len(unitIDs) == 0 {
		return nil, fmt.Errorf("%w: no units specified", faults.ErrInvalidWindow)
	}

	found, err := s.repo.GetUnits(ctx, unitIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load units: %w", err)
	}

	byID := make(map[uuid.UUID]*Unit, len(found))
	for i := range found {
		byID[found[i].ID] = &found[i]
	}

	now := time.Now()
	var unavailable []uuid.UUID
	for _, id := range unitIDs {
		unit, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: unit %s", faults.ErrNotFound, id)
		}
		if !unit.IsAvailable(now) {
			unavailable = append(unavailable, id)
		}
	}

	return &CheckResult{
		Available:        len(unavailable) == 0,
		UnavailableUnits: unavailable,
	}, nil
}

func (s *service) AcquireLocks(ctx context.Context, unitIDs []uuid.UUID, sessionID, holdID string, lockExpiry time.Time) error {
	var acquired []uuid.UUID
	for _, unitID := range unitIDs {
		if err := s.repo.AcquireLock(ctx, unitID, sessionID, lockExpiry); err != nil {
			// Compensating release of everything taken so far, then fail
			// the whole acquisition.
			for _, taken := range acquired {
				_ = s.repo.ReleaseLock(ctx, taken, sessionID)
			}
			if errors.Is(err, faults.ErrConflict) {
				return err
			}
			return fmt.Errorf("failed to lock unit %s: %w", unitID, err)
		}
		acquired = append(acquired, unitID)
	}

	if s.holds != nil {
		ttl := time.Until(lockExpiry)
		if err := s.holds.RecordHold(ctx, holdID, sessionID, unitIDs, ttl); err != nil {
			// The cache is advisory; Postgres already holds the locks.
			return nil
		}
	}
	return nil
}

func (s *service) ConfirmUnits(ctx context.Context, unitIDs []uuid.UUID, sessionID, holdID string) error {
	for _, unitID := range unitIDs {
		if err := s.repo.ConfirmLock(ctx, unitID, sessionID); err != nil {
			return err
		}
	}
	if s.holds != nil {
		_, _ = s.holds.DropHold(ctx, holdID)
	}
	return nil
}

func (s *service) ReleaseUnits(ctx context.Context, unitIDs []uuid.UUID, sessionID, holdID string) error {
	for _, unitID := range unitIDs {
		if err := s.repo.ReleaseLock(ctx, unitID, sessionID); err != nil {
			return fmt.Errorf("failed to release unit %s: %w", unitID, err)
		}
	}
	if s.holds != nil {
		_, _ = s.holds.DropHold(ctx, holdID)
	}
	return nil
}

func (s *service) ReleaseBookedUnits(ctx context.Context, unitIDs []uuid.UUID, sessionID string) error {
	for _, unitID := range unitIDs {
		if err := s.repo.ReleaseBooked(ctx, unitID, sessionID); err != nil {
			return fmt.Errorf("failed to release booked unit %s: %w", unitID, err)
		}
	}
	return nil
}

func (s *service) SweepStaleLocks(ctx context.Context, now time.Time) ([]Unit, error) {
	stale, err := s.repo.ListStaleLocks(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale locks: %w", err)
	}

	var released []Unit
	for _, unit := range stale {
		if err := s.repo.ForceRelease(ctx, unit.ID, now); err != nil {
			return released, fmt.Errorf("failed to force-release unit %s: %w", unit.ID, err)
		}
		released = append(released, unit)
	}
	return released, nil
}

func (s *service) CreateUnit(ctx context.Context, unit *Unit) error {
	switch unit.Kind {
	case KindSeat, KindTable, KindBooth:
	default:
		return fmt.Errorf("%w: unknown unit kind %q", faults.ErrInvalidWindow, unit.Kind)
	}
	if unit.VenueID == uuid.Nil || unit.Label == "" {
		return fmt.Errorf("%w: venue id and label are required", faults.ErrInvalidWindow)
	}
	if unit.BookingStatus == "" {
		unit.BookingStatus = StatusAvailable
	}
	return s.repo.CreateUnit(ctx, unit)
}

func (s *service) GetUnit(ctx context.Context, id uuid.UUID) (*Unit, error) {
	return s.repo.GetUnit(ctx, id)
}

func (s *service) GetUnitsByVenue(ctx context.Context, venueID uuid.UUID) ([]Unit, error) {
	return s.repo.GetUnitsByVenue(ctx, venueID)
}
