// Package store is the remote inventory store: typed list/insert/update/delete
// over the locations, units and equipment tables, always scoped by owner.
package store

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/invmap/engine/internal/models"
	appErr "github.com/invmap/engine/pkg/errors"
)

// Adapter is implemented by every inventory backend. Errors are *errors.AppError
// and their Message is meant to reach the user unchanged.
type Adapter interface {
	ListLocations(ctx context.Context, ownerID uuid.UUID) ([]models.Location, error)
	ListUnits(ctx context.Context, ownerID uuid.UUID) ([]models.Unit, error)
	ListEquipment(ctx context.Context, ownerID uuid.UUID) ([]models.Equipment, error)
	Insert(ctx context.Context, row models.Row) error
	Update(ctx context.Context, ownerID uuid.UUID, table models.Table, id uuid.UUID, patch Patch) error
	Delete(ctx context.Context, ownerID uuid.UUID, table models.Table, id uuid.UUID) error
}

// Pinger is implemented by adapters that can report backend readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Patch maps column names to new values. Only listed columns are written.
// updated_at, when present, is stored as given instead of the store's clock.
type Patch map[string]any

var columns = map[models.Table]map[string]struct{}{
	models.TableLocations: set("label", "responsible", "status", "parent_location_id", "position_x", "position_y", "updated_at"),
	models.TableUnits:     set("label", "responsible", "status", "location_id", "position_x", "position_y", "updated_at"),
	models.TableEquipment: set("label", "status", "license", "contact", "icon_type", "custom_icon_url",
		"location_id", "unit_id", "position_x", "position_y", "updated_at"),
}

func set(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

// Validate rejects unknown tables and columns that are not writable for table.
func (p Patch) Validate(table models.Table) error {
	allowed, ok := columns[table]
	if !ok {
		return appErr.Newf(appErr.CodeInvalid, "unknown table %q", table)
	}
	for col := range p {
		if _, ok := allowed[col]; !ok {
			return appErr.Newf(appErr.CodeInvalid, "column %q cannot be updated on %s", col, table)
		}
	}
	return nil
}

// Columns returns the patch keys in sorted order.
func (p Patch) Columns() []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func noun(table models.Table) string {
	switch table {
	case models.TableLocations:
		return "location"
	case models.TableUnits:
		return "unit"
	case models.TableEquipment:
		return "equipment"
	}
	return string(table)
}
