package jobs

import (
	"context"
	"time"

	"gigbook/internal/artists"
	"gigbook/internal/equipment"
	"gigbook/internal/units"
	"gigbook/pkg/logger"
)

// UnitSweeper force-releases unit locks that expired without being
// reconciled.
type UnitSweeper interface {
	SweepStaleLocks(ctx context.Context, now time.Time) ([]units.Unit, error)
}

// BookingReconciler expires pending bookings whose hold ran out and
// finishes settlements that a winning status flip left incomplete.
type BookingReconciler interface {
	ExpireOverdue(ctx context.Context, now time.Time, limit int) (int, error)
	ReconcileSettlements(ctx context.Context, now time.Time, limit int) (int, error)
}

// AllocationScanner reports equipment dates where reservations exceed
// usable stock.
type AllocationScanner interface {
	OverAllocations(ctx context.Context) ([]equipment.OverAllocation, error)
}

// EngagementScanner reports artists whose active engagements overlap.
type EngagementScanner interface {
	OverlappingEngagements(ctx context.Context) ([]artists.EngagementOverlap, error)
}

// SweeperConfig contains configuration for the reconciliation sweeper
type SweeperConfig struct {
	Interval  time.Duration
	BatchSize int
}

func DefaultSweeperConfig() *SweeperConfig {
	return &SweeperConfig{
		Interval:  time.Minute,
		BatchSize: 100,
	}
}

// Sweeper is the correctness backstop behind the queue: it catches crashes
// between a lock write and the expiry enqueue, expires overdue holds the
// queue missed, finishes settlements that stalled after a status flip, and
// flags the narrow check-then-insert races on equipment stock and artist
// hours for manual resolution.
type Sweeper struct {
	units     UnitSweeper
	bookings  BookingReconciler
	equipment AllocationScanner
	artists   EngagementScanner
	config    *SweeperConfig
	log       *logger.Logger
	done      chan struct{}
}

func NewSweeper(unitSvc UnitSweeper, bookingSvc BookingReconciler, equipmentSvc AllocationScanner, artistSvc EngagementScanner, cfg *SweeperConfig, log *logger.Logger) *Sweeper {
	if cfg == nil {
		cfg = DefaultSweeperConfig()
	}
	return &Sweeper{
		units:     unitSvc,
		bookings:  bookingSvc,
		equipment: equipmentSvc,
		artists:   artistSvc,
		config:    cfg,
		log:       log,
		done:      make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called or the context ends.
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
	s.log.Info("reconciliation sweeper started", "interval", s.config.Interval.String())
}

func (s *Sweeper) Stop() {
	close(s.done)
}

func (s *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep(ctx)
		case <-s.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Sweep runs one reconciliation pass. Each step is independent; one step's
// failure does not stop the others.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := time.Now()

	released, err := s.units.SweepStaleLocks(ctx, now)
	if err != nil {
		s.log.Error("stale lock sweep failed", "error", err.Error())
	}
	for _, unit := range released {
		lockedBy := ""
		if unit.LockedBy != nil {
			lockedBy = *unit.LockedBy
		}
		s.log.LogLockReleased(ctx, unit.ID.String(), lockedBy)
	}

	expired, err := s.bookings.ExpireOverdue(ctx, now, s.config.BatchSize)
	if err != nil {
		s.log.Error("overdue booking sweep failed", "error", err.Error())
	} else if expired > 0 {
		s.log.Info("expired overdue bookings", "count", expired)
	}

	settled, err := s.bookings.ReconcileSettlements(ctx, now, s.config.BatchSize)
	if err != nil {
		s.log.Error("settlement reconciliation failed", "error", err.Error())
	} else if settled > 0 {
		s.log.Info("settled stalled bookings", "count", settled)
	}

	overAllocations, err := s.equipment.OverAllocations(ctx)
	if err != nil {
		s.log.Error("over-allocation scan failed", "error", err.Error())
	}
	for _, oa := range overAllocations {
		// Flagged for an operator, not auto-corrected: picking which
		// reservation to revoke is a business decision.
		s.log.Warn("equipment over-allocation detected",
			"equipment_id", oa.EquipmentID.String(),
			"date", oa.Date,
			"reserved", oa.Reserved,
			"usable", oa.Usable,
		)
	}

	overlaps, err := s.artists.OverlappingEngagements(ctx)
	if err != nil {
		s.log.Error("engagement overlap scan failed", "error", err.Error())
	}
	for _, ov := range overlaps {
		// Same treatment as over-allocated stock: an operator decides which
		// engagement gives way.
		s.log.Warn("overlapping artist engagements detected",
			"artist_id", ov.ArtistID.String(),
			"date", ov.Date,
			"engagements", len(ov.Windows),
		)
	}
}
