package equipment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gigbook/internal/shared/faults"
	"gigbook/internal/window"
)

// CheckResult reports whether the requested quantity fits and which existing
// reservation windows are in the way when it does not.
type CheckResult struct {
	Available bool            `json:"available"`
	Remaining int             `json:"remaining"`
	Conflicts []window.Window `json:"conflicts,omitempty"`
}

type Service interface {
	// Check decides whether the requested quantity fits into usable stock
	// over the window. "Not available" is a result, not an error.
	Check(ctx context.Context, equipmentID uuid.UUID, quantity int, w window.Window) (*CheckResult, error)

	// AvailableQuantity computes totalStock minus active reservations and
	// maintenance blocks overlapping the window.
	AvailableQuantity(ctx context.Context, equipmentID uuid.UUID, w window.Window) (int, error)

	// Reserve re-checks and inserts a pending quantity reservation. The
	// check-then-insert pair is not serialized; the reconciliation sweep
	// flags the rare over-allocation this can admit.
	Reserve(ctx context.Context, equipmentID, bookingID uuid.UUID, quantity int, w window.Window) error

	// ConfirmReservations flips the combined booking's reservations to confirmed.
	ConfirmReservations(ctx context.Context, bookingID uuid.UUID) error

	// ReleaseReservations moves reservations still in the expected status to
	// the released status. Safe to call repeatedly.
	ReleaseReservations(ctx context.Context, bookingID uuid.UUID, expectedStatus, releasedStatus string) error

	// OverAllocations scans every equipment item for dates where active
	// reservations exceed usable stock.
	OverAllocations(ctx context.Context) ([]OverAllocation, error)

	CreateEquipment(ctx context.Context, eq *Equipment) error
	GetEquipment(ctx context.Context, equipmentID uuid.UUID) (*Equipment, error)

	// AddMaintenanceBlock withholds quantity from stock over the date range.
	AddMaintenanceBlock(ctx context.Context, equipmentID uuid.UUID, quantity int, w window.Window, reason string) (*MaintenanceBlock, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Check(ctx context.Context, equipmentID uuid.UUID, quantity int, w window.Window) (*CheckResult, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", faults.ErrInvalidWindow)
	}
	rng, err := normalizeRange(w)
	if err != nil {
		return nil, err
	}

	eq, err := s.repo.GetEquipment(ctx, equipmentID)
	if err != nil {
		return nil, err
	}

	reservations, err := s.repo.GetOverlappingReservations(ctx, equipmentID, rng.StartDate, rng.EndDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load equipment reservations: %w", err)
	}

	reserved := 0
	var conflicts []window.Window
	for _, res := range reservations {
		reserved += res.Quantity
		conflicts = append(conflicts, window.DateRange(res.StartDate, res.EndDate))
	}

	withheld, err := s.maintenanceQuantity(ctx, equipmentID, rng)
	if err != nil {
		return nil, err
	}

	usable := eq.TotalStock - withheld
	remaining := usable - reserved
	if remaining < 0 {
		remaining = 0
	}

	if reserved+quantity > usable {
		return &CheckResult{Available: false, Remaining: remaining, Conflicts: conflicts}, nil
	}
	return &CheckResult{Available: true, Remaining: remaining}, nil
}

func (s *service) AvailableQuantity(ctx context.Context, equipmentID uuid.UUID, w window.Window) (int, error) {
	rng, err := normalizeRange(w)
	if err != nil {
		return 0, err
	}

	eq, err := s.repo.GetEquipment(ctx, equipmentID)
	if err != nil {
		return 0, err
	}

	reservations, err := s.repo.GetOverlappingReservations(ctx, equipmentID, rng.StartDate, rng.EndDate)
	if err != nil {
		return 0, fmt.Errorf("failed to load equipment reservations: %w", err)
	}
	reserved := 0
	for _, res := range reservations {
		reserved += res.Quantity
	}

	withheld, err := s.maintenanceQuantity(ctx, equipmentID, rng)
	if err != nil {
		return 0, err
	}

	available := eq.TotalStock - withheld - reserved
	if available < 0 {
		available = 0
	}
	return available, nil
}

func (s *service) Reserve(ctx context.Context, equipmentID, bookingID uuid.UUID, quantity int, w window.Window) error {
	// Re-check directly before the insert to keep the race window narrow.
	result, err := s.Check(ctx, equipmentID, quantity, w)
	if err != nil {
		return err
	}
	if !result.Available {
		return fmt.Errorf("%w: equipment %s, %d requested, %d remaining",
			faults.ErrResourceUnavailable, equipmentID, quantity, result.Remaining)
	}

	rng, err := normalizeRange(w)
	if err != nil {
		return err
	}

	res := &EquipmentReservation{
		EquipmentID: equipmentID,
		BookingID:   bookingID,
		StartDate:   rng.StartDate,
		EndDate:     rng.EndDate,
		Quantity:    quantity,
		Status:      ReservationStatusPending,
	}
	if err := s.repo.CreateReservation(ctx, res); err != nil {
		return fmt.Errorf("failed to create equipment reservation: %w", err)
	}
	return nil
}

func (s *service) ConfirmReservations(ctx context.Context, bookingID uuid.UUID) error {
	return s.repo.UpdateReservationStatus(ctx, bookingID, ReservationStatusPending, ReservationStatusConfirmed)
}

func (s *service) ReleaseReservations(ctx context.Context, bookingID uuid.UUID, expectedStatus, releasedStatus string) error {
	return s.repo.UpdateReservationStatus(ctx, bookingID, expectedStatus, releasedStatus)
}

func (s *service) OverAllocations(ctx context.Context) ([]OverAllocation, error) {
	ids, err := s.repo.ListEquipmentIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list equipment: %w", err)
	}

	var flagged []OverAllocation
	for _, id := range ids {
		eq, err := s.repo.GetEquipment(ctx, id)
		if err != nil {
			return nil, err
		}
		reservations, err := s.repo.GetActiveReservations(ctx, id)
		if err != nil {
			return nil, err
		}
		if len(reservations) == 0 {
			continue
		}

		perDate := make(map[string]int)
		for _, res := range reservations {
			for _, date := range datesIn(res.StartDate, res.EndDate) {
				perDate[date] += res.Quantity
			}
		}

		for date, reserved := range perDate {
			withheld, err := s.maintenanceQuantity(ctx, id, window.DateRange(date, date))
			if err != nil {
				return nil, err
			}
			usable := eq.TotalStock - withheld
			if reserved > usable {
				flagged = append(flagged, OverAllocation{
					EquipmentID: id,
					Date:        date,
					Reserved:    reserved,
					Usable:      usable,
				})
			}
		}
	}
	return flagged, nil
}

func (s *service) CreateEquipment(ctx context.Context, eq *Equipment) error {
	if eq.Name == "" {
		return fmt.Errorf("%w: equipment name is required", faults.ErrInvalidWindow)
	}
	if eq.TotalStock <= 0 {
		return fmt.Errorf("%w: total stock must be positive", faults.ErrInvalidWindow)
	}
	return s.repo.CreateEquipment(ctx, eq)
}

func (s *service) GetEquipment(ctx context.Context, equipmentID uuid.UUID) (*Equipment, error) {
	return s.repo.GetEquipment(ctx, equipmentID)
}

func (s *service) AddMaintenanceBlock(ctx context.Context, equipmentID uuid.UUID, quantity int, w window.Window, reason string) (*MaintenanceBlock, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", faults.ErrInvalidWindow)
	}
	rng, err := normalizeRange(w)
	if err != nil {
		return nil, err
	}
	eq, err := s.repo.GetEquipment(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	if quantity > eq.TotalStock {
		return nil, fmt.Errorf("%w: cannot withhold %d of %d total stock", faults.ErrPolicyViolation, quantity, eq.TotalStock)
	}

	block := &MaintenanceBlock{
		EquipmentID: equipmentID,
		StartDate:   rng.StartDate,
		EndDate:     rng.EndDate,
		Quantity:    quantity,
		Reason:      reason,
	}
	if err := s.repo.CreateMaintenanceBlock(ctx, block); err != nil {
		return nil, fmt.Errorf("failed to create maintenance block: %w", err)
	}
	return block, nil
}

func (s *service) maintenanceQuantity(ctx context.Context, equipmentID uuid.UUID, rng window.Window) (int, error) {
	blocks, err := s.repo.GetOverlappingMaintenance(ctx, equipmentID, rng.StartDate, rng.EndDate)
	if err != nil {
		return 0, fmt.Errorf("failed to load maintenance blocks: %w", err)
	}
	withheld := 0
	for _, block := range blocks {
		withheld += block.Quantity
	}
	return withheld, nil
}

// normalizeRange validates the window and folds a single-day hour window into
// a one-day date range.
func normalizeRange(w window.Window) (window.Window, error) {
	if err := w.Validate(); err != nil {
		return window.Window{}, err
	}
	if w.IsHourWindow() {
		return window.DateRange(w.Date, w.Date), nil
	}
	return window.DateRange(w.StartDate, w.EndDate), nil
}

// datesIn enumerates the inclusive date range
func datesIn(startDate, endDate string) []string {
	start, err := time.Parse(window.DateLayout, startDate)
	if err != nil {
		return nil
	}
	end, err := time.Parse(window.DateLayout, endDate)
	if err != nil {
		return nil
	}

	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(window.DateLayout))
	}
	return dates
}
