package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	appErr "github.com/invmap/engine/pkg/errors"
	"gorm.io/gorm"
)

// OwnedRepository scopes every read and write to one owner. A row that
// belongs to someone else is indistinguishable from a missing row.
type OwnedRepository[T any] interface {
	Insert(ctx context.Context, obj *T) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]T, error)
	GetOwned(ctx context.Context, ownerID, id uuid.UUID, dest *T) error
	Patch(ctx context.Context, ownerID, id uuid.UUID, fields map[string]any) error
	DeleteOwned(ctx context.Context, ownerID, id uuid.UUID) error
}

type ownedRepository[T any] struct {
	db   *gorm.DB
	noun string
}

func newOwnedRepository[T any](db *gorm.DB, noun string) *ownedRepository[T] {
	return &ownedRepository[T]{db: db, noun: noun}
}

func (r *ownedRepository[T]) Insert(ctx context.Context, obj *T) error {
	if err := r.db.WithContext(ctx).Create(obj).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return appErr.Wrap(err, appErr.CodeAlreadyExists, r.noun+" already exists")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "insert "+r.noun+" failed")
	}
	return nil
}

// ListByOwner returns rows in insertion order.
func (r *ownedRepository[T]) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]T, error) {
	out := []T{}
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at ASC").Order("id ASC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list "+r.noun+" failed")
	}
	return out, nil
}

func (r *ownedRepository[T]) GetOwned(ctx context.Context, ownerID, id uuid.UUID, dest *T) error {
	if err := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).First(dest).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.New(appErr.CodeNotFound, r.noun+" not found")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get "+r.noun+" failed")
	}
	return nil
}

func (r *ownedRepository[T]) Patch(ctx context.Context, ownerID, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	var t T
	res := r.db.WithContext(ctx).Model(&t).Where("id = ? AND owner_id = ?", id, ownerID).Updates(fields)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "update "+r.noun+" failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, r.noun+" not found")
	}
	return nil
}

func (r *ownedRepository[T]) DeleteOwned(ctx context.Context, ownerID, id uuid.UUID) error {
	var t T
	res := r.db.WithContext(ctx).Where("id = ? AND owner_id = ?", id, ownerID).Delete(&t)
	if res.Error != nil {
		return appErr.Wrap(res.Error, appErr.CodeInternal, "delete "+r.noun+" failed")
	}
	if res.RowsAffected == 0 {
		return appErr.New(appErr.CodeNotFound, r.noun+" not found")
	}
	return nil
}
