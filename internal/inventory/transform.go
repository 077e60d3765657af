package inventory

import (
	"github.com/google/uuid"

	"github.com/invmap/engine/internal/models"
	"github.com/invmap/engine/internal/store"
)

func locationNode(l models.Location) Node {
	return Node{
		ID:       NewNodeID(KindLocation, l.ID),
		Kind:     KindLocation,
		Position: Position{X: l.PositionX, Y: l.PositionY},
		Attrs: LocationAttrs{
			Label:            l.Label,
			Responsible:      l.Responsible,
			Status:           l.Status,
			ParentLocationID: l.ParentLocationID,
		},
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func unitNode(u models.Unit) Node {
	return Node{
		ID:       NewNodeID(KindUnit, u.ID),
		Kind:     KindUnit,
		Position: Position{X: u.PositionX, Y: u.PositionY},
		Attrs: UnitAttrs{
			Label:       u.Label,
			Responsible: u.Responsible,
			Status:      u.Status,
			LocationID:  u.LocationID,
		},
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func equipmentNode(e models.Equipment) Node {
	return Node{
		ID:       NewNodeID(KindEquipment, e.ID),
		Kind:     KindEquipment,
		Position: Position{X: e.PositionX, Y: e.PositionY},
		Attrs: EquipmentAttrs{
			Label:         e.Label,
			Status:        e.Status,
			License:       e.License,
			Contact:       e.Contact,
			IconType:      e.IconType,
			CustomIconURL: e.CustomIconURL,
			LocationID:    e.LocationID,
			UnitID:        e.UnitID,
		},
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

// nodeFromRow maps a freshly inserted row back to its node.
func nodeFromRow(row models.Row) Node {
	switch r := row.(type) {
	case *models.Location:
		return locationNode(*r)
	case *models.Unit:
		return unitNode(*r)
	case *models.Equipment:
		return equipmentNode(*r)
	}
	panic("inventory: unknown row type")
}

func rowFor(ownerID uuid.UUID, attrs Attributes, pos Position) models.Row {
	switch a := attrs.(type) {
	case LocationAttrs:
		return &models.Location{
			OwnerID: ownerID, Label: a.Label, Responsible: a.Responsible, Status: a.Status,
			ParentLocationID: a.ParentLocationID, PositionX: pos.X, PositionY: pos.Y,
		}
	case UnitAttrs:
		return &models.Unit{
			OwnerID: ownerID, Label: a.Label, Responsible: a.Responsible, Status: a.Status,
			LocationID: a.LocationID, PositionX: pos.X, PositionY: pos.Y,
		}
	case EquipmentAttrs:
		return &models.Equipment{
			OwnerID: ownerID, Label: a.Label, Status: a.Status, License: a.License, Contact: a.Contact,
			IconType: a.IconType, CustomIconURL: a.CustomIconURL, LocationID: a.LocationID, UnitID: a.UnitID,
			PositionX: pos.X, PositionY: pos.Y,
		}
	}
	panic("inventory: unknown attributes type")
}

// colUpdatedAt carries the change time the synchronizer assigned, so the
// store and the snapshot agree on it.
const colUpdatedAt = "updated_at"

// diff returns the columns whose value differs between old and next. Both
// must be of the same kind.
func diff(old, next Attributes) store.Patch {
	p := store.Patch{}
	switch o := old.(type) {
	case LocationAttrs:
		n := next.(LocationAttrs)
		setIf(p, "label", o.Label != n.Label, n.Label)
		setIf(p, "responsible", !eqPtr(o.Responsible, n.Responsible), n.Responsible)
		setIf(p, "status", o.Status != n.Status, n.Status)
		setIf(p, "parent_location_id", !eqPtr(o.ParentLocationID, n.ParentLocationID), n.ParentLocationID)
	case UnitAttrs:
		n := next.(UnitAttrs)
		setIf(p, "label", o.Label != n.Label, n.Label)
		setIf(p, "responsible", !eqPtr(o.Responsible, n.Responsible), n.Responsible)
		setIf(p, "status", o.Status != n.Status, n.Status)
		setIf(p, "location_id", !eqPtr(o.LocationID, n.LocationID), n.LocationID)
	case EquipmentAttrs:
		n := next.(EquipmentAttrs)
		setIf(p, "label", o.Label != n.Label, n.Label)
		setIf(p, "status", o.Status != n.Status, n.Status)
		setIf(p, "license", !eqPtr(o.License, n.License), n.License)
		setIf(p, "contact", !eqPtr(o.Contact, n.Contact), n.Contact)
		setIf(p, "icon_type", o.IconType != n.IconType, n.IconType)
		setIf(p, "custom_icon_url", !eqPtr(o.CustomIconURL, n.CustomIconURL), n.CustomIconURL)
		setIf(p, "location_id", !eqPtr(o.LocationID, n.LocationID), n.LocationID)
		setIf(p, "unit_id", !eqPtr(o.UnitID, n.UnitID), n.UnitID)
	}
	return p
}

func positionPatch(p store.Patch, old, next Position) {
	setIf(p, "position_x", old.X != next.X, next.X)
	setIf(p, "position_y", old.Y != next.Y, next.Y)
}

// setIf stores v under col when changed. Nil pointers become an untyped nil
// so the store writes NULL.
func setIf[T any](p store.Patch, col string, changed bool, v T) {
	if !changed {
		return
	}
	var val any = v
	switch pv := val.(type) {
	case *string:
		if pv == nil {
			val = nil
		} else {
			val = *pv
		}
	case *uuid.UUID:
		if pv == nil {
			val = nil
		} else {
			val = pv.String()
		}
	}
	p[col] = val
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// parentOf returns the node the given node hangs from, if any. Equipment
// prefers its unit over its location.
func parentOf(n Node) (NodeID, bool) {
	switch a := n.Attrs.(type) {
	case LocationAttrs:
		if a.ParentLocationID != nil {
			return NewNodeID(KindLocation, *a.ParentLocationID), true
		}
	case UnitAttrs:
		if a.LocationID != nil {
			return NewNodeID(KindLocation, *a.LocationID), true
		}
	case EquipmentAttrs:
		if a.UnitID != nil {
			return NewNodeID(KindUnit, *a.UnitID), true
		}
		if a.LocationID != nil {
			return NewNodeID(KindLocation, *a.LocationID), true
		}
	}
	return "", false
}

// buildEdges derives one edge per node whose parent is present in nodes, in
// node order.
func buildEdges(nodes []Node) []Edge {
	present := make(map[NodeID]struct{}, len(nodes))
	for _, n := range nodes {
		present[n.ID] = struct{}{}
	}
	edges := []Edge{}
	for _, n := range nodes {
		parent, ok := parentOf(n)
		if !ok {
			continue
		}
		if _, ok := present[parent]; ok {
			edges = append(edges, NewEdge(parent, n.ID))
		}
	}
	return edges
}

// detach clears every reference to the deleted row from attrs.
func detach(attrs Attributes, kind Kind, id uuid.UUID) (Attributes, bool) {
	hit := func(p *uuid.UUID) bool { return p != nil && *p == id }
	switch a := attrs.(type) {
	case LocationAttrs:
		if kind == KindLocation && hit(a.ParentLocationID) {
			a.ParentLocationID = nil
			return a, true
		}
	case UnitAttrs:
		if kind == KindLocation && hit(a.LocationID) {
			a.LocationID = nil
			return a, true
		}
	case EquipmentAttrs:
		changed := false
		if kind == KindLocation && hit(a.LocationID) {
			a.LocationID = nil
			changed = true
		}
		if kind == KindUnit && hit(a.UnitID) {
			a.UnitID = nil
			changed = true
		}
		return a, changed
	}
	return attrs, false
}
