package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/peer-review-dashboard/internal/models"
)

// MigrateSnapshots creates the table backing the SQL snapshot store.
func MigrateSnapshots(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.PlatformSnapshot{}); err != nil {
		return fmt.Errorf("failed to migrate snapshot table: %w", err)
	}
	return nil
}
