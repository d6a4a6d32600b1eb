package database

import (
	"gorm.io/gorm"

	"github.com/nvoss/brewid/internal/models"
)

// AutoMigrate creates or updates the database schema for all models. The
// unique index on users.email is the backstop against concurrent duplicate
// signups.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
	)
}
