package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/invmap/engine/internal/inventory"
	"github.com/invmap/engine/internal/store"
	appErr "github.com/invmap/engine/pkg/errors"
	"github.com/invmap/engine/pkg/logger"
)

const (
	TypeMove  = "inventory:move"
	QueueName = "inventory"
)

// MovePayload is the task payload for position writes.
type MovePayload = inventory.Move

func NewMoveTask(m inventory.Move) (*asynq.Task, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal move payload: %w", err)
	}
	return asynq.NewTask(TypeMove, b,
		asynq.Queue(QueueName),
		asynq.MaxRetry(0),
		asynq.Timeout(10*time.Second),
	), nil
}

// Enqueuer is the part of *asynq.Client the sink needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueSink hands moves to the worker through asynq.
type QueueSink struct {
	client Enqueuer
	wg     sync.WaitGroup
}

func NewQueueSink(client Enqueuer) *QueueSink {
	return &QueueSink{client: client}
}

var _ inventory.PositionSink = (*QueueSink)(nil)

func (s *QueueSink) Persist(ctx context.Context, m inventory.Move) {
	task, err := NewMoveTask(m)
	if err != nil {
		logger.L().Error("build move task failed", zap.Error(err))
		return
	}
	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.client.EnqueueContext(ctx, task); err != nil {
			logger.L().Error("enqueue move task failed", zap.Error(err), zap.String("row_id", m.RowID.String()))
		}
	}()
}

// Wait blocks until every pending enqueue has returned.
func (s *QueueSink) Wait() { s.wg.Wait() }

// MoveTaskHandler writes queued positions to the store.
type MoveTaskHandler struct {
	store store.Adapter
}

func NewMoveTaskHandler(s store.Adapter) *MoveTaskHandler {
	return &MoveTaskHandler{store: s}
}

func (h *MoveTaskHandler) HandleMove(ctx context.Context, t *asynq.Task) error {
	var p MovePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		logger.L().Error("invalid move task payload", zap.Error(err))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if !p.Table.Valid() || !p.Position.Finite() {
		logger.L().Error("invalid move task", zap.String("table", string(p.Table)))
		return fmt.Errorf("invalid move task: %w", asynq.SkipRetry)
	}

	logger.L().Debug("handling move task",
		zap.String("owner_id", p.OwnerID.String()),
		zap.String("table", string(p.Table)),
		zap.String("row_id", p.RowID.String()))

	if err := h.store.Update(ctx, p.OwnerID, p.Table, p.RowID, p.Patch()); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			logger.L().Info("moved row no longer exists", zap.String("row_id", p.RowID.String()))
			return nil
		}
		logger.L().Error("persist position failed", zap.Error(err))
		return err
	}
	return nil
}
