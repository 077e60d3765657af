package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/invmap/engine/internal/models"
	appErr "github.com/invmap/engine/pkg/errors"
	"gorm.io/gorm"
)

type LocationRepository interface {
	OwnedRepository[models.Location]
}

type locationRepository struct {
	*ownedRepository[models.Location]
	db *gorm.DB
}

func NewLocationRepository(db *gorm.DB) LocationRepository {
	return &locationRepository{ownedRepository: newOwnedRepository[models.Location](db, "location"), db: db}
}

// DeleteOwned removes a location without cascading: units, equipment and
// child locations that pointed at it keep existing with the reference cleared.
func (r *locationRepository) DeleteOwned(ctx context.Context, ownerID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		detach := []struct {
			model  any
			column string
		}{
			{&models.Unit{}, "location_id"},
			{&models.Equipment{}, "location_id"},
			{&models.Location{}, "parent_location_id"},
		}
		for _, d := range detach {
			if err := tx.Model(d.model).Where(d.column+" = ? AND owner_id = ?", id, ownerID).Update(d.column, nil).Error; err != nil {
				return appErr.Wrap(err, appErr.CodeInternal, "detach location children failed")
			}
		}

		res := tx.Where("id = ? AND owner_id = ?", id, ownerID).Delete(&models.Location{})
		if res.Error != nil {
			return appErr.Wrap(res.Error, appErr.CodeInternal, "delete location failed")
		}
		if res.RowsAffected == 0 {
			return appErr.New(appErr.CodeNotFound, "location not found")
		}
		return nil
	})
}
