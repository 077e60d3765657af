package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/invmap/engine/internal/models"
	appErr "github.com/invmap/engine/pkg/errors"
	"gorm.io/gorm"
)

type UnitRepository interface {
	OwnedRepository[models.Unit]
}

type unitRepository struct {
	*ownedRepository[models.Unit]
	db *gorm.DB
}

func NewUnitRepository(db *gorm.DB) UnitRepository {
	return &unitRepository{ownedRepository: newOwnedRepository[models.Unit](db, "unit"), db: db}
}

// DeleteOwned clears unit_id on equipment attached to the unit before removing it.
func (r *unitRepository) DeleteOwned(ctx context.Context, ownerID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Equipment{}).Where("unit_id = ? AND owner_id = ?", id, ownerID).Update("unit_id", nil).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "detach unit equipment failed")
		}
		res := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.Unit{})
		if res.Error != nil {
			return appErr.Wrap(res.Error, appErr.CodeInternal, "delete unit failed")
		}
		if res.RowsAffected == 0 {
			return appErr.New(appErr.CodeNotFound, "unit not found")
		}
		return nil
	})
}
