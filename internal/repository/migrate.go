package repository

import (
	"github.com/invmap/engine/internal/models"
	"gorm.io/gorm"
)

// Models returns every table the engine owns, in dependency order.
func Models() []any {
	return []any{
		&models.User{},
		&models.Location{},
		&models.Unit{},
		&models.Equipment{},
	}
}

// AutoMigrate creates or updates the inventory schema.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
