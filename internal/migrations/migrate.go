package migrations

import (
	"fmt"

	"ticketpoint/internal/bookings"
	"ticketpoint/internal/events"
	"ticketpoint/internal/tiers"

	"gorm.io/gorm"
)

// Migrate creates or updates the ticketing schema
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&events.Event{},
		&tiers.Tier{},
		&bookings.Booking{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	if db.Dialector.Name() == "postgres" {
		return MigrateConstraints(db)
	}
	return nil
}
