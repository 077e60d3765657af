package repository

import (
	"github.com/invmap/engine/internal/models"
	"gorm.io/gorm"
)

type EquipmentRepository interface {
	OwnedRepository[models.Equipment]
}

func NewEquipmentRepository(db *gorm.DB) EquipmentRepository {
	return newOwnedRepository[models.Equipment](db, "equipment")
}
