package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/invmap/engine/internal/models"
	"github.com/invmap/engine/internal/repository"
	appErr "github.com/invmap/engine/pkg/errors"
	"gorm.io/gorm"
)

// SQLAdapter stores the inventory in relational tables through GORM.
type SQLAdapter struct {
	db        *gorm.DB
	locations repository.LocationRepository
	units     repository.UnitRepository
	equipment repository.EquipmentRepository
}

func NewSQLAdapter(db *gorm.DB) *SQLAdapter {
	return &SQLAdapter{
		db:        db,
		locations: repository.NewLocationRepository(db),
		units:     repository.NewUnitRepository(db),
		equipment: repository.NewEquipmentRepository(db),
	}
}

var _ Adapter = (*SQLAdapter)(nil)

func (a *SQLAdapter) ListLocations(ctx context.Context, ownerID uuid.UUID) ([]models.Location, error) {
	return a.locations.ListByOwner(ctx, ownerID)
}

func (a *SQLAdapter) ListUnits(ctx context.Context, ownerID uuid.UUID) ([]models.Unit, error) {
	return a.units.ListByOwner(ctx, ownerID)
}

func (a *SQLAdapter) ListEquipment(ctx context.Context, ownerID uuid.UUID) ([]models.Equipment, error) {
	return a.equipment.ListByOwner(ctx, ownerID)
}

func (a *SQLAdapter) Insert(ctx context.Context, row models.Row) error {
	switch r := row.(type) {
	case *models.Location:
		return a.locations.Insert(ctx, r)
	case *models.Unit:
		return a.units.Insert(ctx, r)
	case *models.Equipment:
		return a.equipment.Insert(ctx, r)
	default:
		return appErr.New(appErr.CodeInvalid, fmt.Sprintf("unsupported row type %T", row))
	}
}

func (a *SQLAdapter) Update(ctx context.Context, ownerID uuid.UUID, table models.Table, id uuid.UUID, patch Patch) error {
	if err := patch.Validate(table); err != nil {
		return err
	}
	fields := map[string]any(patch)
	switch table {
	case models.TableLocations:
		return a.locations.Patch(ctx, ownerID, id, fields)
	case models.TableUnits:
		return a.units.Patch(ctx, ownerID, id, fields)
	default:
		return a.equipment.Patch(ctx, ownerID, id, fields)
	}
}

func (a *SQLAdapter) Delete(ctx context.Context, ownerID uuid.UUID, table models.Table, id uuid.UUID) error {
	switch table {
	case models.TableLocations:
		return a.locations.DeleteOwned(ctx, ownerID, id)
	case models.TableUnits:
		return a.units.DeleteOwned(ctx, ownerID, id)
	case models.TableEquipment:
		return a.equipment.DeleteOwned(ctx, ownerID, id)
	default:
		return appErr.Newf(appErr.CodeInvalid, "unknown table %q", table)
	}
}

func (a *SQLAdapter) Ping(ctx context.Context) error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return appErr.Wrap(err, appErr.CodeUnavailable, "database unavailable")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return appErr.Wrap(err, appErr.CodeUnavailable, "database unavailable")
	}
	return nil
}
