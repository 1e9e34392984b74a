package migrations

import (
	"gorm.io/gorm"
)

// MigrateConstraints adds the PostgreSQL-only indexes backing the lifecycle jobs
func MigrateConstraints(db *gorm.DB) error {
	// Expiry sweep: RESERVED bookings by age
	err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_reserved_created
		ON bookings (created_at)
		WHERE state = 'RESERVED';
	`).Error
	if err != nil {
		return err
	}

	// Repair sweep: PAID bookings still waiting for a credential
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_paid_unissued
		ON bookings (updated_at)
		WHERE state = 'PAID' AND credential IS NULL;
	`).Error
	if err != nil {
		return err
	}

	// Attendance listing per tier
	err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_bookings_tier_state
		ON bookings (tier_id, state);
	`).Error
	if err != nil {
		return err
	}

	return nil
}
