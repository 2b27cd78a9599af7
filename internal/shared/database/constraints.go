package database

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds the indexes the hot reservation paths depend on.
// AutoMigrate covers the per-column indexes declared on the models; the
// composite ones live here.
func MigrateConstraints(db *gorm.DB) error {
	// Artist conflict scans filter by artist, date and live status.
	err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_artist_bookings_conflict
		ON artist_bookings (artist_id, date, status);
	`).Error
	if err != nil {
		return err
	}

	// Equipment overlap queries scan by item and date range.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_equipment_reservations_overlap
		ON equipment_reservations (equipment_id, start_date, end_date);
	`).Error
	if err != nil {
		return err
	}

	// The expiry sweep lists pending bookings whose hold has lapsed.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_pending_expiry
		ON bookings (hold_expiry) WHERE status = 'PENDING';
	`).Error
	if err != nil {
		return err
	}

	// The settlement sweep lists flipped bookings whose side effects never
	// finished.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_unsettled
		ON bookings (updated_at) WHERE settled_at IS NULL AND status <> 'PENDING';
	`).Error
	if err != nil {
		return err
	}

	// The lock sweep lists locked units whose expiry has passed.
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_venue_units_stale_locks
		ON venue_units (lock_expiry) WHERE booking_status = 'LOCKED';
	`).Error
	if err != nil {
		return err
	}

	return nil
}
