package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/invmap/engine/internal/inventory"
	"github.com/invmap/engine/internal/models"
)

func sp(s string) *string { return &s }

func sampleSnapshot() inventory.Snapshot {
	amID, manausID, unitID := uuid.New(), uuid.New(), uuid.New()
	gone := uuid.New()
	return inventory.Snapshot{Nodes: []inventory.Node{
		{ID: inventory.NewNodeID(inventory.KindLocation, amID), Kind: inventory.KindLocation,
			Attrs: inventory.LocationAttrs{Label: "AMAZONAS", Status: models.SiteActive}},
		{ID: inventory.NewNodeID(inventory.KindLocation, manausID), Kind: inventory.KindLocation,
			Attrs: inventory.LocationAttrs{Label: "MANAUS", Status: models.SiteActive, ParentLocationID: &amID}},
		{ID: inventory.NewNodeID(inventory.KindUnit, unitID), Kind: inventory.KindUnit,
			Attrs: inventory.UnitAttrs{Label: "CENTRO", Status: models.SiteActive, LocationID: &manausID}},
		{ID: inventory.NewNodeID(inventory.KindEquipment, uuid.New()), Kind: inventory.KindEquipment,
			Attrs: inventory.EquipmentAttrs{Label: "SERVIDOR-01", Status: models.EquipmentOnline, License: sp("LIC-001"), Contact: sp("ti@manaus.gov"), LocationID: &manausID}},
		{ID: inventory.NewNodeID(inventory.KindEquipment, uuid.New()), Kind: inventory.KindEquipment,
			Attrs: inventory.EquipmentAttrs{Label: "ANTENA-02", Status: models.EquipmentMaintenance, LocationID: &gone}},
		{ID: inventory.NewNodeID(inventory.KindEquipment, uuid.New()), Kind: inventory.KindEquipment,
			Attrs: inventory.EquipmentAttrs{Label: "PC-03", Status: models.EquipmentOffline, UnitID: &unitID}},
	}}
}

func TestFileName(t *testing.T) {
	require.Equal(t, "inventario-05-03-2025.xlsx", FileName(time.Date(2025, 3, 5, 23, 0, 0, 0, time.UTC)))
}

func TestRows(t *testing.T) {
	rows := Rows(sampleSnapshot())
	require.Equal(t, []Row{
		{Name: "SERVIDOR-01", Status: "Online", License: "LIC-001", Contact: "ti@manaus.gov", Location: "MANAUS", ParentLocation: "AMAZONAS"},
		{Name: "ANTENA-02", Status: "Manutenção", Location: "Localidade não encontrada"},
		{Name: "PC-03", Status: "Offline", Location: "MANAUS", ParentLocation: "AMAZONAS"},
	}, rows)
}

func TestWriteProducesExpectedSheet(t *testing.T) {
	snap := sampleSnapshot()
	snap.Nodes = snap.Nodes[:5]

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, snap))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"Inventário"}, f.GetSheetList())
	got, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Equal(t, [][]string{
		{"Nome do Equipamento", "Status", "Licença", "Contato", "Localidade", "Localidade Pai"},
		{"SERVIDOR-01", "Online", "LIC-001", "ti@manaus.gov", "MANAUS", "AMAZONAS"},
		{"ANTENA-02", "Manutenção", "", "", "Localidade não encontrada"},
	}, got)
}

func TestWriteEmptyInventory(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, inventory.Snapshot{}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	got, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, Headers, got[0])
}
