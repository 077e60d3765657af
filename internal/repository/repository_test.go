package repository

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/invmap/engine/internal/models"
	"github.com/invmap/engine/pkg/database"
	appErr "github.com/invmap/engine/pkg/errors"
	"github.com/invmap/engine/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	logger.Replace(zap.NewNop())
	db, err := database.Open(context.Background(), database.Options{Driver: "sqlite", DSN: "file::memory:"})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

func ptr[T any](v T) *T { return &v }

func TestListByOwnerOrdersByCreationAndScopesOwner(t *testing.T) {
	ctx := context.Background()
	repo := NewLocationRepository(newTestDB(t))
	owner, other := uuid.New(), uuid.New()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	second := &models.Location{OwnerID: owner, Label: "B", Status: models.SiteActive, CreatedAt: base.Add(time.Minute)}
	first := &models.Location{OwnerID: owner, Label: "A", Status: models.SiteActive, CreatedAt: base}
	foreign := &models.Location{OwnerID: other, Label: "X", Status: models.SiteActive, CreatedAt: base}
	for _, l := range []*models.Location{second, first, foreign} {
		require.NoError(t, repo.Insert(ctx, l))
		require.NotEqual(t, uuid.Nil, l.ID)
	}

	got, err := repo.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, "A", got[0].Label)
	require.Equal(t, "B", got[1].Label)

	empty, err := repo.ListByOwner(ctx, uuid.New())
	require.NoError(t, err)
	require.NotNil(t, empty)
	require.Empty(t, empty)
}

func TestPatchTouchesOnlyGivenColumns(t *testing.T) {
	ctx := context.Background()
	repo := NewEquipmentRepository(newTestDB(t))
	owner := uuid.New()
	loc := uuid.New()

	eq := &models.Equipment{
		OwnerID: owner, Label: "SERVIDOR-01", Status: models.EquipmentOnline,
		License: ptr("LIC-1"), IconType: models.IconLinux, LocationID: &loc,
		PositionX: 210, PositionY: 320,
	}
	require.NoError(t, repo.Insert(ctx, eq))

	require.NoError(t, repo.Patch(ctx, owner, eq.ID, map[string]any{"status": models.EquipmentMaintenance}))

	var got models.Equipment
	require.NoError(t, repo.GetOwned(ctx, owner, eq.ID, &got))
	require.Equal(t, models.EquipmentMaintenance, got.Status)
	require.Equal(t, "SERVIDOR-01", got.Label)
	require.Equal(t, "LIC-1", *got.License)
	require.Equal(t, models.IconLinux, got.IconType)
	require.Equal(t, loc, *got.LocationID)
	require.Equal(t, 210.0, got.PositionX)
}

func TestPatchOtherOwnerIsNotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewUnitRepository(newTestDB(t))
	owner := uuid.New()
	u := &models.Unit{OwnerID: owner, Label: "U1", Status: models.SiteActive}
	require.NoError(t, repo.Insert(ctx, u))

	err := repo.Patch(ctx, uuid.New(), u.ID, map[string]any{"label": "stolen"})
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
	require.Equal(t, "unit not found", appErr.MessageOf(err))

	var got models.Unit
	err = repo.GetOwned(ctx, uuid.New(), u.ID, &got)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestDeleteLocationDetachesChildren(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	locations := NewLocationRepository(db)
	units := NewUnitRepository(db)
	equipment := NewEquipmentRepository(db)
	owner := uuid.New()

	parent := &models.Location{OwnerID: owner, Label: "MANAUS", Status: models.SiteActive}
	require.NoError(t, locations.Insert(ctx, parent))
	child := &models.Location{OwnerID: owner, Label: "CENTRO", Status: models.SiteActive, ParentLocationID: &parent.ID}
	require.NoError(t, locations.Insert(ctx, child))
	unit := &models.Unit{OwnerID: owner, Label: "U1", Status: models.SiteActive, LocationID: &parent.ID}
	require.NoError(t, units.Insert(ctx, unit))
	eq := &models.Equipment{OwnerID: owner, Label: "SERVIDOR-01", Status: models.EquipmentOnline, IconType: models.IconPC, LocationID: &parent.ID}
	require.NoError(t, equipment.Insert(ctx, eq))

	require.NoError(t, locations.DeleteOwned(ctx, owner, parent.ID))

	var gotChild models.Location
	require.NoError(t, locations.GetOwned(ctx, owner, child.ID, &gotChild))
	require.Nil(t, gotChild.ParentLocationID)

	var gotUnit models.Unit
	require.NoError(t, units.GetOwned(ctx, owner, unit.ID, &gotUnit))
	require.Nil(t, gotUnit.LocationID)

	var gotEq models.Equipment
	require.NoError(t, equipment.GetOwned(ctx, owner, eq.ID, &gotEq))
	require.Nil(t, gotEq.LocationID)

	err := locations.DeleteOwned(ctx, owner, parent.ID)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestDeleteUnitDetachesEquipment(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	units := NewUnitRepository(db)
	equipment := NewEquipmentRepository(db)
	owner := uuid.New()

	unit := &models.Unit{OwnerID: owner, Label: "U1", Status: models.SiteActive}
	require.NoError(t, units.Insert(ctx, unit))
	eq := &models.Equipment{OwnerID: owner, Label: "PC-1", Status: models.EquipmentOffline, IconType: models.IconPC, UnitID: &unit.ID}
	require.NoError(t, equipment.Insert(ctx, eq))

	require.NoError(t, units.DeleteOwned(ctx, owner, unit.ID))

	var got models.Equipment
	require.NoError(t, equipment.GetOwned(ctx, owner, eq.ID, &got))
	require.Nil(t, got.UnitID)
}

func TestUserEmailIsUnique(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	require.NoError(t, repo.Create(ctx, &models.User{Email: "ana@example.com", PasswordHash: "x", Name: "Ana"}))
	err := repo.Create(ctx, &models.User{Email: "ana@example.com", PasswordHash: "y", Name: "Ana 2"})
	require.True(t, appErr.IsCode(err, appErr.CodeAlreadyExists))

	var u models.User
	require.NoError(t, repo.GetByEmail(ctx, "ana@example.com", &u))
	require.Equal(t, "Ana", u.Name)

	err = repo.GetByEmail(ctx, "nobody@example.com", &u)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}

func TestUserRepositoryMethodSet(t *testing.T) {
	typ := reflect.TypeOf((*UserRepository)(nil)).Elem()
	var names []string
	for i := 0; i < typ.NumMethod(); i++ {
		names = append(names, typ.Method(i).Name)
	}
	require.Equal(t, []string{"Create", "GetByEmail"}, names)
}
