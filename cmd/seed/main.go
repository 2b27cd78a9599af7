package main

import (
	"fmt"
	"log"

	"gigbook/internal/artists"
	"gigbook/internal/equipment"
	"gigbook/internal/shared/config"
	"gigbook/internal/shared/database"
	"gigbook/internal/units"

	"github.com/google/uuid"
)

type Seeder struct {
	db *database.DB
}

func main() {
	fmt.Println("🌱 Starting GigBook Database Seeder...")

	cfg := config.Load()

	db, err := database.InitDB(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	seeder := &Seeder{db: db}

	fmt.Println("\n🧹 Cleaning database...")
	if err := seeder.CleanDatabase(); err != nil {
		log.Fatalf("Failed to clean database: %v", err)
	}
	fmt.Println("✅ Database cleaned successfully")

	fmt.Println("\n🌱 Seeding database...")
	if err := seeder.SeedAll(); err != nil {
		log.Fatalf("Failed to seed database: %v", err)
	}
	fmt.Println("✅ Database seeded successfully")

	fmt.Println("\n🎉 Seeding completed! Database is ready for testing.")
}

// CleanDatabase truncates all tables in reverse dependency order
func (s *Seeder) CleanDatabase() error {
	tables := []string{
		"payment_logs",
		"bookings",
		"venue_units",
		"equipment_maintenance_blocks",
		"equipment_reservations",
		"equipment",
		"artist_unavailability",
		"artist_bookings",
		"artists",
	}

	for _, table := range tables {
		if err := s.db.PostgreSQL.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	return nil
}

// SeedAll populates sample artists, equipment and venue units
func (s *Seeder) SeedAll() error {
	if err := s.seedArtists(); err != nil {
		return fmt.Errorf("failed to seed artists: %w", err)
	}
	if err := s.seedEquipment(); err != nil {
		return fmt.Errorf("failed to seed equipment: %w", err)
	}
	if err := s.seedUnits(); err != nil {
		return fmt.Errorf("failed to seed venue units: %w", err)
	}
	return nil
}

func (s *Seeder) seedArtists() error {
	samples := []artists.Artist{
		{
			Name:                    "The Midnight Collective",
			Genre:                   "jazz",
			Active:                  true,
			CooldownPeriodHours:     2,
			MaximumPerformanceHours: 4,
		},
		{
			Name:                    "Neon Harbor",
			Genre:                   "synthwave",
			Active:                  true,
			CooldownPeriodHours:     3,
			MaximumPerformanceHours: 3,
		},
		{
			Name:                    "Clara Voss Quartet",
			Genre:                   "classical",
			Active:                  true,
			CooldownPeriodHours:     1,
			MaximumPerformanceHours: 6,
		},
		{
			Name:   "Static Bloom",
			Genre:  "indie rock",
			Active: false,
		},
	}

	for i := range samples {
		samples[i].Slug = artists.Slugify(samples[i].Name)
		if err := s.db.PostgreSQL.Create(&samples[i]).Error; err != nil {
			return err
		}
		fmt.Printf("  🎤 %s (%s)\n", samples[i].Name, samples[i].Slug)
	}
	return nil
}

func (s *Seeder) seedEquipment() error {
	samples := []equipment.Equipment{
		{Name: "PA System 2000W", Category: "sound", TotalStock: 4},
		{Name: "Moving Head Light", Category: "lighting", TotalStock: 12},
		{Name: "Wireless Microphone Set", Category: "sound", TotalStock: 20},
		{Name: "Fog Machine", Category: "effects", TotalStock: 6},
		{Name: "Stage Riser 2x1m", Category: "staging", TotalStock: 16},
	}

	for i := range samples {
		if err := s.db.PostgreSQL.Create(&samples[i]).Error; err != nil {
			return err
		}
		fmt.Printf("  🔊 %s (stock %d)\n", samples[i].Name, samples[i].TotalStock)
	}
	return nil
}

func (s *Seeder) seedUnits() error {
	venueID := uuid.New()
	fmt.Printf("  🏟  Venue %s\n", venueID)

	var sample []units.Unit
	for row := 'A'; row <= 'C'; row++ {
		for n := 1; n <= 10; n++ {
			sample = append(sample, units.Unit{
				VenueID:       venueID,
				Kind:          units.KindSeat,
				Label:         fmt.Sprintf("%c%d", row, n),
				Price:         45.00,
				BookingStatus: units.StatusAvailable,
			})
		}
	}
	for n := 1; n <= 6; n++ {
		sample = append(sample, units.Unit{
			VenueID:       venueID,
			Kind:          units.KindTable,
			Label:         fmt.Sprintf("T%d", n),
			Price:         180.00,
			BookingStatus: units.StatusAvailable,
		})
	}
	for n := 1; n <= 2; n++ {
		sample = append(sample, units.Unit{
			VenueID:       venueID,
			Kind:          units.KindBooth,
			Label:         fmt.Sprintf("B%d", n),
			Price:         320.00,
			BookingStatus: units.StatusAvailable,
		})
	}

	if err := s.db.PostgreSQL.CreateInBatches(sample, 50).Error; err != nil {
		return err
	}
	fmt.Printf("  🪑 %d units created\n", len(sample))
	return nil
}
