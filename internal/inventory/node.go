// Package inventory projects the owner's rows into typed diagram nodes and
// derived edges, and keeps that projection in step with the store.
package inventory

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/invmap/engine/internal/models"
	appErr "github.com/invmap/engine/pkg/errors"
)

type Kind string

const (
	KindLocation  Kind = "location"
	KindUnit      Kind = "unit"
	KindEquipment Kind = "equipment"
)

func (k Kind) Valid() bool {
	switch k {
	case KindLocation, KindUnit, KindEquipment:
		return true
	}
	return false
}

// Table returns the store table backing nodes of kind k.
func (k Kind) Table() models.Table {
	switch k {
	case KindLocation:
		return models.TableLocations
	case KindUnit:
		return models.TableUnits
	default:
		return models.TableEquipment
	}
}

// NodeID is "<kind>-<row uuid>".
type NodeID string

func NewNodeID(kind Kind, id uuid.UUID) NodeID {
	return NodeID(string(kind) + "-" + id.String())
}

// ParseNodeID splits on the first dash only; the uuid part contains dashes itself.
func ParseNodeID(s string) (Kind, uuid.UUID, error) {
	prefix, rest, ok := strings.Cut(s, "-")
	kind := Kind(prefix)
	if !ok || !kind.Valid() {
		return "", uuid.Nil, appErr.Newf(appErr.CodeInvalid, "invalid node id %q", s)
	}
	id, err := uuid.Parse(rest)
	if err != nil {
		return "", uuid.Nil, appErr.Wrap(err, appErr.CodeInvalid, "invalid node id "+s)
	}
	return kind, id, nil
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Position) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Attributes is the typed payload of a node. The set of implementations is
// closed: LocationAttrs, UnitAttrs and EquipmentAttrs.
type Attributes interface {
	Kind() Kind
	sealed()
}

type LocationAttrs struct {
	Label            string            `json:"label"`
	Responsible      *string           `json:"responsible,omitempty"`
	Status           models.SiteStatus `json:"status"`
	ParentLocationID *uuid.UUID        `json:"parent_location_id,omitempty"`
}

type UnitAttrs struct {
	Label       string            `json:"label"`
	Responsible *string           `json:"responsible,omitempty"`
	Status      models.SiteStatus `json:"status"`
	LocationID  *uuid.UUID        `json:"location_id,omitempty"`
}

type EquipmentAttrs struct {
	Label         string                 `json:"label"`
	Status        models.EquipmentStatus `json:"status"`
	License       *string                `json:"license,omitempty"`
	Contact       *string                `json:"contact,omitempty"`
	IconType      models.IconKind        `json:"icon_type"`
	CustomIconURL *string                `json:"custom_icon_url,omitempty"`
	LocationID    *uuid.UUID             `json:"location_id,omitempty"`
	UnitID        *uuid.UUID             `json:"unit_id,omitempty"`
}

func (LocationAttrs) Kind() Kind  { return KindLocation }
func (UnitAttrs) Kind() Kind      { return KindUnit }
func (EquipmentAttrs) Kind() Kind { return KindEquipment }

func (LocationAttrs) sealed()  {}
func (UnitAttrs) sealed()      {}
func (EquipmentAttrs) sealed() {}

// DecodeAttributes parses raw JSON as the attribute record of kind.
func DecodeAttributes(kind Kind, raw json.RawMessage) (Attributes, error) {
	var (
		attrs Attributes
		err   error
	)
	switch kind {
	case KindLocation:
		var a LocationAttrs
		err = json.Unmarshal(raw, &a)
		attrs = a
	case KindUnit:
		var a UnitAttrs
		err = json.Unmarshal(raw, &a)
		attrs = a
	case KindEquipment:
		var a EquipmentAttrs
		err = json.Unmarshal(raw, &a)
		attrs = a
	default:
		return nil, appErr.Newf(appErr.CodeInvalid, "unknown node type %q", kind)
	}
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInvalid, "malformed node data")
	}
	return attrs, nil
}

// MergeAttributes decodes raw over a copy of base. Keys absent from raw keep
// base's value and an explicit null clears a pointer field.
func MergeAttributes(base Attributes, raw json.RawMessage) (Attributes, error) {
	var (
		attrs Attributes
		err   error
	)
	switch a := cloneAttrs(base).(type) {
	case LocationAttrs:
		err = json.Unmarshal(raw, &a)
		attrs = a
	case UnitAttrs:
		err = json.Unmarshal(raw, &a)
		attrs = a
	case EquipmentAttrs:
		err = json.Unmarshal(raw, &a)
		attrs = a
	default:
		return nil, appErr.New(appErr.CodeInvalid, "dados do item ausentes")
	}
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInvalid, "malformed node data")
	}
	return attrs, nil
}

type Node struct {
	ID        NodeID
	Kind      Kind
	Position  Position
	Attrs     Attributes
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RowID returns the store id behind the node.
func (n Node) RowID() uuid.UUID {
	_, id, _ := ParseNodeID(string(n.ID))
	return id
}

type nodeJSON struct {
	ID        NodeID     `json:"id"`
	Type      Kind       `json:"type"`
	Position  Position   `json:"position"`
	Data      Attributes `json:"data"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (n Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(nodeJSON{ID: n.ID, Type: n.Kind, Position: n.Position, Data: n.Attrs, CreatedAt: n.CreatedAt, UpdatedAt: n.UpdatedAt})
}

func (n *Node) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID        NodeID          `json:"id"`
		Type      Kind            `json:"type"`
		Position  Position        `json:"position"`
		Data      json.RawMessage `json:"data"`
		CreatedAt time.Time       `json:"created_at"`
		UpdatedAt time.Time       `json:"updated_at"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	attrs, err := DecodeAttributes(raw.Type, raw.Data)
	if err != nil {
		return err
	}
	*n = Node{ID: raw.ID, Kind: raw.Type, Position: raw.Position, Attrs: attrs, CreatedAt: raw.CreatedAt, UpdatedAt: raw.UpdatedAt}
	return nil
}

// Edge links a parent node (Source) to a child node (Target).
type Edge struct {
	ID     string `json:"id"`
	Source NodeID `json:"source"`
	Target NodeID `json:"target"`
}

func NewEdge(source, target NodeID) Edge {
	return Edge{ID: string(source) + "__" + string(target), Source: source, Target: target}
}

type Snapshot struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node looks up a node by id.
func (s Snapshot) Node(id NodeID) (Node, bool) {
	for _, n := range s.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{Nodes: make([]Node, len(s.Nodes)), Edges: make([]Edge, len(s.Edges))}
	for i, n := range s.Nodes {
		n.Attrs = cloneAttrs(n.Attrs)
		out.Nodes[i] = n
	}
	copy(out.Edges, s.Edges)
	return out
}

func cloneAttrs(a Attributes) Attributes {
	switch v := a.(type) {
	case LocationAttrs:
		v.Responsible = clonePtr(v.Responsible)
		v.ParentLocationID = clonePtr(v.ParentLocationID)
		return v
	case UnitAttrs:
		v.Responsible = clonePtr(v.Responsible)
		v.LocationID = clonePtr(v.LocationID)
		return v
	case EquipmentAttrs:
		v.License = clonePtr(v.License)
		v.Contact = clonePtr(v.Contact)
		v.CustomIconURL = clonePtr(v.CustomIconURL)
		v.LocationID = clonePtr(v.LocationID)
		v.UnitID = clonePtr(v.UnitID)
		return v
	}
	return a
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
