package inventory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invmap/engine/internal/models"
	"github.com/invmap/engine/internal/store"
	"github.com/invmap/engine/pkg/logger"
)

// Move is a position that still has to reach the store.
type Move struct {
	OwnerID  uuid.UUID    `json:"owner_id"`
	Table    models.Table `json:"table"`
	RowID    uuid.UUID    `json:"row_id"`
	Position Position     `json:"position"`
	// UpdatedAt is written along with the position when set.
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Patch is the store update that persists the move.
func (m Move) Patch() store.Patch {
	p := store.Patch{"position_x": m.Position.X, "position_y": m.Position.Y}
	if !m.UpdatedAt.IsZero() {
		p[colUpdatedAt] = m.UpdatedAt
	}
	return p
}

// PositionSink persists moves without making the caller wait. Failures are
// logged, never returned.
type PositionSink interface {
	Persist(ctx context.Context, m Move)
}

// DirectSink writes each move to the store from its own goroutine.
type DirectSink struct {
	store   store.Adapter
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDirectSink(s store.Adapter, timeout time.Duration) *DirectSink {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DirectSink{store: s, timeout: timeout}
}

func (d *DirectSink) Persist(ctx context.Context, m Move) {
	ctx = context.WithoutCancel(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(ctx, d.timeout)
		defer cancel()
		if err := d.store.Update(ctx, m.OwnerID, m.Table, m.RowID, m.Patch()); err != nil {
			logger.L().Warn("persist position failed",
				zap.String("owner_id", m.OwnerID.String()),
				zap.String("table", string(m.Table)),
				zap.String("row_id", m.RowID.String()),
				zap.Error(err))
		}
	}()
}

// Wait blocks until every pending write has finished.
func (d *DirectSink) Wait() { d.wg.Wait() }
