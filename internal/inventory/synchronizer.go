package inventory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/invmap/engine/internal/store"
	appErr "github.com/invmap/engine/pkg/errors"
	"github.com/invmap/engine/pkg/logger"
)

type ChangeType string

const (
	ChangeLoaded  ChangeType = "loaded"
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
	ChangeMoved   ChangeType = "moved"
)

// Change describes one applied mutation. Node is nil for loaded and deleted.
type Change struct {
	Type    ChangeType `json:"type"`
	OwnerID uuid.UUID  `json:"owner_id"`
	NodeID  NodeID     `json:"node_id,omitempty"`
	Node    *Node      `json:"node,omitempty"`
	At      time.Time  `json:"at"`
}

type Listener func(Change)

// Synchronizer owns the in-memory projection of one owner's inventory.
// Mutations hold the lock across their store call, so they are serialized
// per owner. Listeners run after the lock is released.
type Synchronizer struct {
	owner     uuid.UUID
	store     store.Adapter
	sink      PositionSink
	placement Placement
	now       func() time.Time

	mu     sync.Mutex
	snap   Snapshot
	loaded bool

	subMu   sync.Mutex
	subs    map[int]Listener
	nextSub int
}

type Option func(*Synchronizer)

func WithSink(s PositionSink) Option { return func(sy *Synchronizer) { sy.sink = s } }

func WithPlacement(p Placement) Option { return func(sy *Synchronizer) { sy.placement = p } }

func WithNow(now func() time.Time) Option { return func(sy *Synchronizer) { sy.now = now } }

func NewSynchronizer(ownerID uuid.UUID, s store.Adapter, opts ...Option) *Synchronizer {
	sy := &Synchronizer{
		owner:     ownerID,
		store:     s,
		placement: DefaultPlacement(),
		now:       time.Now,
		snap:      Snapshot{Nodes: []Node{}, Edges: []Edge{}},
		subs:      map[int]Listener{},
	}
	for _, o := range opts {
		o(sy)
	}
	if sy.sink == nil {
		sy.sink = NewDirectSink(s, 0)
	}
	return sy
}

func (s *Synchronizer) Owner() uuid.UUID { return s.owner }

// Snapshot returns a deep copy of the current nodes and edges.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.clone()
}

// Subscribe registers fn for every applied change and returns a function
// that removes it.
func (s *Synchronizer) Subscribe(fn Listener) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Synchronizer) notify(c Change) {
	c.OwnerID = s.owner
	c.At = s.now().UTC()
	s.subMu.Lock()
	fns := make([]Listener, 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}

// Load replaces the projection with a fresh read of all three tables.
func (s *Synchronizer) Load(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	if err := s.load(ctx); err != nil {
		s.mu.Unlock()
		return Snapshot{}, err
	}
	out := s.snap.clone()
	s.mu.Unlock()

	s.notify(Change{Type: ChangeLoaded})
	return out, nil
}

// EnsureLoaded loads once; later calls are no-ops.
func (s *Synchronizer) EnsureLoaded(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLoaded(ctx)
}

func (s *Synchronizer) ensureLoaded(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	return s.load(ctx)
}

func (s *Synchronizer) load(ctx context.Context) error {
	locations, err := s.store.ListLocations(ctx, s.owner)
	if err != nil {
		return err
	}
	units, err := s.store.ListUnits(ctx, s.owner)
	if err != nil {
		return err
	}
	equipment, err := s.store.ListEquipment(ctx, s.owner)
	if err != nil {
		return err
	}

	nodes := make([]Node, 0, len(locations)+len(units)+len(equipment))
	for _, l := range locations {
		nodes = append(nodes, locationNode(l))
	}
	for _, u := range units {
		nodes = append(nodes, unitNode(u))
	}
	for _, e := range equipment {
		nodes = append(nodes, equipmentNode(e))
	}
	s.snap = Snapshot{Nodes: nodes, Edges: buildEdges(nodes)}
	s.loaded = true
	return nil
}

// Create validates attrs, inserts the row and appends its node. A nil pos
// places the node at random inside the placement band.
func (s *Synchronizer) Create(ctx context.Context, attrs Attributes, pos *Position) (Node, error) {
	attrs = withDefaults(attrs)
	if err := validateCreate(attrs, pos); err != nil {
		return Node{}, err
	}

	s.mu.Lock()
	if err := s.ensureLoaded(ctx); err != nil {
		s.mu.Unlock()
		return Node{}, err
	}
	if err := checkRefs(s.snap, attrs, ""); err != nil {
		s.mu.Unlock()
		return Node{}, err
	}

	at := s.placement.Next()
	if pos != nil {
		at = *pos
	}
	row := rowFor(s.owner, attrs, at)
	if err := s.store.Insert(ctx, row); err != nil {
		s.mu.Unlock()
		return Node{}, err
	}

	node := cloneNode(nodeFromRow(row))
	s.snap.Nodes = append(s.snap.Nodes, node)
	s.snap.Edges = buildEdges(s.snap.Nodes)
	out := cloneNode(node)
	s.mu.Unlock()

	logger.L().Debug("node created", zap.String("owner_id", s.owner.String()), zap.String("node_id", string(node.ID)))
	s.notify(Change{Type: ChangeCreated, NodeID: node.ID, Node: &out})
	return out, nil
}

// Update writes the fields of attrs that differ from the current node, plus
// the position when pos is given. attrs replaces the whole attribute record
// and may be nil to change only the position. When nothing differs the store
// is not called.
func (s *Synchronizer) Update(ctx context.Context, id NodeID, attrs Attributes, pos *Position) (Node, error) {
	kind, _, err := ParseNodeID(string(id))
	if err != nil {
		return Node{}, err
	}
	if attrs != nil {
		if attrs, err = checkAttrs(kind, attrs); err != nil {
			return Node{}, err
		}
	}
	return s.update(ctx, id, pos, func(cur Attributes) (Attributes, error) {
		if attrs == nil {
			return cur, nil
		}
		return attrs, nil
	})
}

// Merge decodes raw on top of the node's current attributes. Keys missing
// from raw keep their value; an explicit null clears an optional field.
func (s *Synchronizer) Merge(ctx context.Context, id NodeID, raw json.RawMessage, pos *Position) (Node, error) {
	kind, _, err := ParseNodeID(string(id))
	if err != nil {
		return Node{}, err
	}
	return s.update(ctx, id, pos, func(cur Attributes) (Attributes, error) {
		if len(raw) == 0 {
			return cur, nil
		}
		next, err := MergeAttributes(cur, raw)
		if err != nil {
			return nil, err
		}
		return checkAttrs(kind, next)
	})
}

func checkAttrs(kind Kind, attrs Attributes) (Attributes, error) {
	if attrs.Kind() != kind {
		return nil, appErr.Newf(appErr.CodeInvalid, "dados de %s enviados para %s", attrs.Kind(), kind)
	}
	attrs = withDefaults(attrs)
	if err := validateAttrs(attrs); err != nil {
		return nil, err
	}
	return attrs, nil
}

// update computes the new attributes from the current ones under the lock,
// so a merge never works on a stale node.
func (s *Synchronizer) update(ctx context.Context, id NodeID, pos *Position, next func(cur Attributes) (Attributes, error)) (Node, error) {
	kind, rowID, err := ParseNodeID(string(id))
	if err != nil {
		return Node{}, err
	}
	if pos != nil && !pos.Finite() {
		return Node{}, appErr.New(appErr.CodeInvalid, msgInvalidPosition)
	}

	s.mu.Lock()
	if err := s.ensureLoaded(ctx); err != nil {
		s.mu.Unlock()
		return Node{}, err
	}
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return Node{}, appErr.New(appErr.CodeNotFound, "node not found")
	}
	cur := s.snap.Nodes[i]
	attrs, err := next(cur.Attrs)
	if err != nil {
		s.mu.Unlock()
		return Node{}, err
	}
	if err := checkRefs(s.snap, attrs, id); err != nil {
		s.mu.Unlock()
		return Node{}, err
	}

	patch := diff(cur.Attrs, attrs)
	if pos != nil {
		positionPatch(patch, cur.Position, *pos)
	}
	if len(patch) == 0 {
		out := cloneNode(cur)
		s.mu.Unlock()
		return out, nil
	}
	at := s.stamp()
	patch[colUpdatedAt] = at
	if err := s.store.Update(ctx, s.owner, kind.Table(), rowID, patch); err != nil {
		s.mu.Unlock()
		return Node{}, err
	}

	cur.Attrs = cloneAttrs(attrs)
	if pos != nil {
		cur.Position = *pos
	}
	cur.UpdatedAt = at
	s.snap.Nodes[i] = cur
	s.snap.Edges = buildEdges(s.snap.Nodes)
	out := cloneNode(cur)
	s.mu.Unlock()

	s.notify(Change{Type: ChangeUpdated, NodeID: id, Node: &out})
	return out, nil
}

// stamp is the updated_at written with a change. Millisecond precision
// survives every supported database, so a reload returns the same value.
func (s *Synchronizer) stamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// Delete removes the row, its node and every edge touching it. Children of
// the deleted node stay and lose their reference to it.
func (s *Synchronizer) Delete(ctx context.Context, id NodeID) error {
	kind, rowID, err := ParseNodeID(string(id))
	if err != nil {
		return err
	}

	s.mu.Lock()
	if err := s.ensureLoaded(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return appErr.New(appErr.CodeNotFound, "node not found")
	}
	if err := s.store.Delete(ctx, s.owner, kind.Table(), rowID); err != nil {
		s.mu.Unlock()
		return err
	}

	nodes := make([]Node, 0, len(s.snap.Nodes)-1)
	for j, n := range s.snap.Nodes {
		if j == i {
			continue
		}
		if attrs, changed := detach(n.Attrs, kind, rowID); changed {
			n.Attrs = attrs
		}
		nodes = append(nodes, n)
	}
	s.snap = Snapshot{Nodes: nodes, Edges: buildEdges(nodes)}
	s.mu.Unlock()

	s.notify(Change{Type: ChangeDeleted, NodeID: id})
	return nil
}

// MoveNode applies pos locally and hands persistence to the position sink.
// Store failures are not reported to the caller.
func (s *Synchronizer) MoveNode(ctx context.Context, id NodeID, pos Position) error {
	kind, rowID, err := ParseNodeID(string(id))
	if err != nil {
		return err
	}
	if !pos.Finite() {
		return appErr.New(appErr.CodeInvalid, msgInvalidPosition)
	}

	s.mu.Lock()
	if err := s.ensureLoaded(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return appErr.New(appErr.CodeNotFound, "node not found")
	}
	at := s.stamp()
	s.snap.Nodes[i].Position = pos
	s.snap.Nodes[i].UpdatedAt = at
	out := cloneNode(s.snap.Nodes[i])
	s.mu.Unlock()

	s.sink.Persist(ctx, Move{OwnerID: s.owner, Table: kind.Table(), RowID: rowID, Position: pos, UpdatedAt: at})
	s.notify(Change{Type: ChangeMoved, NodeID: id, Node: &out})
	return nil
}

func (s *Synchronizer) indexOf(id NodeID) int {
	for i, n := range s.snap.Nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func cloneNode(n Node) Node {
	n.Attrs = cloneAttrs(n.Attrs)
	return n
}
