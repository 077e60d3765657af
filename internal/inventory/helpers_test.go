package inventory

import (
	"context"
	"math"
	"os"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"

	"github.com/invmap/engine/internal/models"
	"github.com/invmap/engine/internal/store"
	"github.com/invmap/engine/pkg/logger"
)

func TestMain(m *testing.M) {
	if _, err := logger.Init("info", "json"); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	os.Exit(m.Run())
}

type mockAdapter struct {
	mock.Mock
}

func (m *mockAdapter) ListLocations(ctx context.Context, ownerID uuid.UUID) ([]models.Location, error) {
	args := m.Called(ctx, ownerID)
	if v := args.Get(0); v != nil {
		return v.([]models.Location), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAdapter) ListUnits(ctx context.Context, ownerID uuid.UUID) ([]models.Unit, error) {
	args := m.Called(ctx, ownerID)
	if v := args.Get(0); v != nil {
		return v.([]models.Unit), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAdapter) ListEquipment(ctx context.Context, ownerID uuid.UUID) ([]models.Equipment, error) {
	args := m.Called(ctx, ownerID)
	if v := args.Get(0); v != nil {
		return v.([]models.Equipment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAdapter) Insert(ctx context.Context, row models.Row) error {
	return m.Called(ctx, row).Error(0)
}

func (m *mockAdapter) Update(ctx context.Context, ownerID uuid.UUID, table models.Table, id uuid.UUID, patch store.Patch) error {
	return m.Called(ctx, ownerID, table, id, patch).Error(0)
}

func (m *mockAdapter) Delete(ctx context.Context, ownerID uuid.UUID, table models.Table, id uuid.UUID) error {
	return m.Called(ctx, ownerID, table, id).Error(0)
}

// expectEmptyLoad makes the three list calls return nothing.
func (m *mockAdapter) expectEmptyLoad() {
	m.On("ListLocations", mock.Anything, mock.Anything).Return([]models.Location{}, nil)
	m.On("ListUnits", mock.Anything, mock.Anything).Return([]models.Unit{}, nil)
	m.On("ListEquipment", mock.Anything, mock.Anything).Return([]models.Equipment{}, nil)
}

type recordingSink struct {
	mu    sync.Mutex
	moves []Move
}

func (r *recordingSink) Persist(_ context.Context, m Move) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.moves = append(r.moves, m)
}

func (r *recordingSink) all() []Move {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Move(nil), r.moves...)
}

func newKVStore(t *testing.T) *store.KVAdapter {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return store.NewKVAdapter(rdb)
}

func strPtr(s string) *string { return &s }

func posInf() float64 { return math.Inf(1) }
