package database

import (
	"gigbook/internal/artists"
	"gigbook/internal/bookings"
	"gigbook/internal/equipment"
	"gigbook/internal/payments"
	"gigbook/internal/units"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&artists.Artist{},
		&artists.ArtistBooking{},
		&artists.ArtistUnavailability{},
		&equipment.Equipment{},
		&equipment.EquipmentReservation{},
		&equipment.MaintenanceBlock{},
		&units.Unit{},
		&bookings.Booking{},
		&payments.PaymentLog{},
	)
}
