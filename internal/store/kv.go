package store

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/invmap/engine/internal/models"
	appErr "github.com/invmap/engine/pkg/errors"
)

// KeyPrefix namespaces the per-owner inventory blob.
const KeyPrefix = "inventory-data:"

// maxWriteRetries bounds how often a write that lost the WATCH race is replayed.
const maxWriteRetries = 25

// KVAdapter keeps an owner's whole inventory as a single JSON document in
// Redis. Every mutation reads the document, changes it and writes it back in
// full under WATCH. Writers in this process take a per-owner lock; a write
// from another process aborts the transaction, which is then replayed on a
// fresh read. Only when every attempt collides does the call fail with
// conflict.
type KVAdapter struct {
	rdb        *redis.Client
	now        func() time.Time
	maxRetries int

	locks sync.Map // uuid.UUID -> *sync.Mutex
}

type KVOption func(*KVAdapter)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) KVOption {
	return func(a *KVAdapter) { a.now = now }
}

func NewKVAdapter(rdb *redis.Client, opts ...KVOption) *KVAdapter {
	a := &KVAdapter{rdb: rdb, now: time.Now, maxRetries: maxWriteRetries}
	for _, o := range opts {
		o(a)
	}
	return a
}

var _ Adapter = (*KVAdapter)(nil)

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

type document struct {
	Locations []models.Location  `json:"locations"`
	Units     []models.Unit      `json:"units"`
	Equipment []models.Equipment `json:"equipment"`
}

// Key returns the Redis key holding ownerID's inventory.
func Key(ownerID uuid.UUID) string { return KeyPrefix + ownerID.String() }

func (a *KVAdapter) ListLocations(ctx context.Context, ownerID uuid.UUID) ([]models.Location, error) {
	doc, err := a.read(ctx, a.rdb, ownerID)
	if err != nil {
		return nil, err
	}
	sortRows(doc.Locations, func(l models.Location) (time.Time, uuid.UUID) { return l.CreatedAt, l.ID })
	return doc.Locations, nil
}

func (a *KVAdapter) ListUnits(ctx context.Context, ownerID uuid.UUID) ([]models.Unit, error) {
	doc, err := a.read(ctx, a.rdb, ownerID)
	if err != nil {
		return nil, err
	}
	sortRows(doc.Units, func(u models.Unit) (time.Time, uuid.UUID) { return u.CreatedAt, u.ID })
	return doc.Units, nil
}

func (a *KVAdapter) ListEquipment(ctx context.Context, ownerID uuid.UUID) ([]models.Equipment, error) {
	doc, err := a.read(ctx, a.rdb, ownerID)
	if err != nil {
		return nil, err
	}
	sortRows(doc.Equipment, func(e models.Equipment) (time.Time, uuid.UUID) { return e.CreatedAt, e.ID })
	return doc.Equipment, nil
}

func (a *KVAdapter) Insert(ctx context.Context, row models.Row) error {
	now := a.now().UTC()
	return a.mutate(ctx, row.Owner(), func(doc *document) error {
		switch r := row.(type) {
		case *models.Location:
			stamp(&r.ID, &r.CreatedAt, &r.UpdatedAt, now)
			if slices.ContainsFunc(doc.Locations, func(l models.Location) bool { return l.ID == r.ID }) {
				return appErr.New(appErr.CodeAlreadyExists, "location already exists")
			}
			doc.Locations = append(doc.Locations, *r)
		case *models.Unit:
			stamp(&r.ID, &r.CreatedAt, &r.UpdatedAt, now)
			if slices.ContainsFunc(doc.Units, func(u models.Unit) bool { return u.ID == r.ID }) {
				return appErr.New(appErr.CodeAlreadyExists, "unit already exists")
			}
			doc.Units = append(doc.Units, *r)
		case *models.Equipment:
			stamp(&r.ID, &r.CreatedAt, &r.UpdatedAt, now)
			if slices.ContainsFunc(doc.Equipment, func(e models.Equipment) bool { return e.ID == r.ID }) {
				return appErr.New(appErr.CodeAlreadyExists, "equipment already exists")
			}
			doc.Equipment = append(doc.Equipment, *r)
		default:
			return appErr.New(appErr.CodeInvalid, fmt.Sprintf("unsupported row type %T", row))
		}
		return nil
	})
}

func (a *KVAdapter) Update(ctx context.Context, ownerID uuid.UUID, table models.Table, id uuid.UUID, patch Patch) error {
	if err := patch.Validate(table); err != nil {
		return err
	}
	if len(patch) == 0 {
		return nil
	}
	now := a.now().UTC()
	return a.mutate(ctx, ownerID, func(doc *document) error {
		switch table {
		case models.TableLocations:
			i := slices.IndexFunc(doc.Locations, func(l models.Location) bool { return l.ID == id })
			if i < 0 {
				return appErr.New(appErr.CodeNotFound, "location not found")
			}
			return applyPatch(&doc.Locations[i], patch, now)
		case models.TableUnits:
			i := slices.IndexFunc(doc.Units, func(u models.Unit) bool { return u.ID == id })
			if i < 0 {
				return appErr.New(appErr.CodeNotFound, "unit not found")
			}
			return applyPatch(&doc.Units[i], patch, now)
		default:
			i := slices.IndexFunc(doc.Equipment, func(e models.Equipment) bool { return e.ID == id })
			if i < 0 {
				return appErr.New(appErr.CodeNotFound, "equipment not found")
			}
			return applyPatch(&doc.Equipment[i], patch, now)
		}
	})
}

func (a *KVAdapter) Delete(ctx context.Context, ownerID uuid.UUID, table models.Table, id uuid.UUID) error {
	if !table.Valid() {
		return appErr.Newf(appErr.CodeInvalid, "unknown table %q", table)
	}
	return a.mutate(ctx, ownerID, func(doc *document) error {
		before := rowCount(doc)
		switch table {
		case models.TableLocations:
			doc.Locations = slices.DeleteFunc(doc.Locations, func(l models.Location) bool { return l.ID == id })
			for i := range doc.Locations {
				if doc.Locations[i].ParentLocationID != nil && *doc.Locations[i].ParentLocationID == id {
					doc.Locations[i].ParentLocationID = nil
				}
			}
			for i := range doc.Units {
				if doc.Units[i].LocationID != nil && *doc.Units[i].LocationID == id {
					doc.Units[i].LocationID = nil
				}
			}
			for i := range doc.Equipment {
				if doc.Equipment[i].LocationID != nil && *doc.Equipment[i].LocationID == id {
					doc.Equipment[i].LocationID = nil
				}
			}
		case models.TableUnits:
			doc.Units = slices.DeleteFunc(doc.Units, func(u models.Unit) bool { return u.ID == id })
			for i := range doc.Equipment {
				if doc.Equipment[i].UnitID != nil && *doc.Equipment[i].UnitID == id {
					doc.Equipment[i].UnitID = nil
				}
			}
		case models.TableEquipment:
			doc.Equipment = slices.DeleteFunc(doc.Equipment, func(e models.Equipment) bool { return e.ID == id })
		}
		if rowCount(doc) == before {
			return appErr.New(appErr.CodeNotFound, noun(table)+" not found")
		}
		return nil
	})
}

func (a *KVAdapter) Ping(ctx context.Context) error {
	if err := a.rdb.Ping(ctx).Err(); err != nil {
		return appErr.Wrap(err, appErr.CodeUnavailable, "redis unavailable")
	}
	return nil
}

func (a *KVAdapter) read(ctx context.Context, c getter, ownerID uuid.UUID) (*document, error) {
	doc := &document{Locations: []models.Location{}, Units: []models.Unit{}, Equipment: []models.Equipment{}}
	raw, err := c.Get(ctx, Key(ownerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return doc, nil
	}
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeUnavailable, "read inventory failed")
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "stored inventory is corrupt")
	}
	return doc, nil
}

func (a *KVAdapter) ownerLock(ownerID uuid.UUID) *sync.Mutex {
	mu, _ := a.locks.LoadOrStore(ownerID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// mutate applies fn to a fresh read of the document and writes the result.
// fn runs again on every replay, so it must only depend on the document.
func (a *KVAdapter) mutate(ctx context.Context, ownerID uuid.UUID, fn func(*document) error) error {
	mu := a.ownerLock(ownerID)
	mu.Lock()
	defer mu.Unlock()

	key := Key(ownerID)
	txf := func(tx *redis.Tx) error {
		doc, err := a.read(ctx, tx, ownerID)
		if err != nil {
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "encode inventory failed")
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			return nil
		})
		return err
	}

	var err error
	for attempt := 0; attempt <= a.maxRetries; attempt++ {
		err = a.rdb.Watch(ctx, txf, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
		select {
		case <-ctx.Done():
			return appErr.Wrap(ctx.Err(), appErr.CodeDeadline, "write inventory canceled")
		case <-time.After(retryDelay(attempt)):
		}
	}

	var ae *appErr.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &ae):
		return err
	case errors.Is(err, redis.TxFailedErr):
		return appErr.Wrap(err, appErr.CodeConflict, "inventory was changed concurrently, try again")
	default:
		return appErr.Wrap(err, appErr.CodeUnavailable, "write inventory failed")
	}
}

// retryDelay grows linearly from 1ms and is capped at 20ms.
func retryDelay(attempt int) time.Duration {
	return min(time.Duration(attempt+1)*time.Millisecond, 20*time.Millisecond)
}

func stamp(id *uuid.UUID, created, updated *time.Time, now time.Time) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
	if created.IsZero() {
		*created = now
	}
	*updated = now
}

// applyPatch overlays patch onto row through the row's JSON form, whose field
// names match the column names.
func applyPatch[T any](row *T, patch Patch, now time.Time) error {
	raw, err := json.Marshal(row)
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "encode row failed")
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "decode row failed")
	}
	for k, v := range patch {
		fields[k] = v
	}
	if _, ok := patch["updated_at"]; !ok {
		fields["updated_at"] = now
	}
	if raw, err = json.Marshal(fields); err != nil {
		return appErr.Wrap(err, appErr.CodeInvalid, "invalid update value")
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return appErr.Wrap(err, appErr.CodeInvalid, "invalid update value")
	}
	*row = out
	return nil
}

func sortRows[T any](rows []T, key func(T) (time.Time, uuid.UUID)) {
	slices.SortStableFunc(rows, func(a, b T) int {
		ta, ia := key(a)
		tb, ib := key(b)
		if c := ta.Compare(tb); c != 0 {
			return c
		}
		return cmp.Compare(ia.String(), ib.String())
	})
}

func rowCount(doc *document) int {
	return len(doc.Locations) + len(doc.Units) + len(doc.Equipment)
}
