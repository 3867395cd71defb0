package setup

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/panchi64/attendance-tracker/internal/domain"
)

// MigrateDB creates or updates the schema for the attendance core. The
// composite unique indexes on attendance_records and device_submissions are
// declared on the models; they are what makes the dedup gates race-free, so
// a migration failure here is fatal to startup.
func MigrateDB(db *gorm.DB) error {
	err := db.AutoMigrate(
		&domain.Course{},
		&domain.AttendanceRecord{},
		&domain.DeviceSubmission{},
	)
	if err != nil {
		return fmt.Errorf("auto-migrate schema: %w", err)
	}
	return nil
}
