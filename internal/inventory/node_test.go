package inventory

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/invmap/engine/internal/models"
	appErr "github.com/invmap/engine/pkg/errors"
)

func TestParseNodeID(t *testing.T) {
	id := uuid.New()

	kind, got, err := ParseNodeID("equipment-" + id.String())
	require.NoError(t, err)
	require.Equal(t, KindEquipment, kind)
	require.Equal(t, id, got)
	require.Equal(t, NodeID("unit-"+id.String()), NewNodeID(KindUnit, id))

	for _, bad := range []string{"", id.String(), "rack-" + id.String(), "location-", "location-nope"} {
		_, _, err := ParseNodeID(bad)
		require.True(t, appErr.IsCode(err, appErr.CodeInvalid), bad)
	}
}

func TestPositionFinite(t *testing.T) {
	require.True(t, Position{X: 1, Y: -3}.Finite())
	require.False(t, Position{X: math.NaN(), Y: 0}.Finite())
	require.False(t, Position{X: 0, Y: math.Inf(-1)}.Finite())
}

func TestNodeJSON(t *testing.T) {
	loc := uuid.New()
	n := Node{
		ID:       NewNodeID(KindEquipment, uuid.New()),
		Kind:     KindEquipment,
		Position: Position{X: 10, Y: 20},
		Attrs: EquipmentAttrs{
			Label: "SERVIDOR-01", Status: models.EquipmentOnline, IconType: models.IconLinux,
			License: strPtr("LIC"), LocationID: &loc,
		},
	}
	raw, err := json.Marshal(n)
	require.NoError(t, err)
	require.Contains(t, string(raw), `"type":"equipment"`)
	require.Contains(t, string(raw), `"data":{"label":"SERVIDOR-01"`)

	var back Node
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Equal(t, n.ID, back.ID)
	require.Equal(t, n.Attrs, back.Attrs)
	require.Equal(t, n.Position, back.Position)
}

func TestDecodeAttributesRejectsUnknownKind(t *testing.T) {
	_, err := DecodeAttributes("rack", json.RawMessage(`{}`))
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))

	_, err = DecodeAttributes(KindLocation, json.RawMessage(`{"label":`))
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}

func TestBuildEdges(t *testing.T) {
	locID, unitID, parentID := uuid.New(), uuid.New(), uuid.New()
	missing := uuid.New()

	parent := Node{ID: NewNodeID(KindLocation, parentID), Kind: KindLocation, Attrs: LocationAttrs{Label: "AM"}}
	loc := Node{ID: NewNodeID(KindLocation, locID), Kind: KindLocation, Attrs: LocationAttrs{Label: "MANAUS", ParentLocationID: &parentID}}
	unit := Node{ID: NewNodeID(KindUnit, unitID), Kind: KindUnit, Attrs: UnitAttrs{Label: "U1", LocationID: &locID}}
	viaUnit := Node{ID: NewNodeID(KindEquipment, uuid.New()), Kind: KindEquipment, Attrs: EquipmentAttrs{Label: "A", LocationID: &locID, UnitID: &unitID}}
	viaLoc := Node{ID: NewNodeID(KindEquipment, uuid.New()), Kind: KindEquipment, Attrs: EquipmentAttrs{Label: "B", LocationID: &locID}}
	dangling := Node{ID: NewNodeID(KindEquipment, uuid.New()), Kind: KindEquipment, Attrs: EquipmentAttrs{Label: "C", LocationID: &missing}}

	edges := buildEdges([]Node{parent, loc, unit, viaUnit, viaLoc, dangling})
	require.Equal(t, []Edge{
		NewEdge(parent.ID, loc.ID),
		NewEdge(loc.ID, unit.ID),
		NewEdge(unit.ID, viaUnit.ID),
		NewEdge(loc.ID, viaLoc.ID),
	}, edges)
	require.Equal(t, string(loc.ID)+"__"+string(unit.ID), edges[1].ID)
}

func TestDiffOnlyChangedColumns(t *testing.T) {
	loc := uuid.New()
	old := EquipmentAttrs{Label: "PC", Status: models.EquipmentOnline, IconType: models.IconPC, License: strPtr("A"), LocationID: &loc}
	next := old
	next.Status = models.EquipmentMaintenance
	next.License = nil

	p := diff(old, next)
	require.Equal(t, []string{"license", "status"}, p.Columns())
	require.Nil(t, p["license"])
	require.Equal(t, models.EquipmentMaintenance, p["status"])

	require.Empty(t, diff(old, old))
}

func TestPlacementBand(t *testing.T) {
	p := DefaultPlacement()
	for i := 0; i < 200; i++ {
		require.True(t, p.Contains(p.Next()))
	}

	edge := NewPlacement(200, 400, func() float64 { return 0 })
	require.Equal(t, Position{X: 200, Y: 200}, edge.Next())
	require.False(t, edge.Contains(Position{X: 600, Y: 300}))
}
