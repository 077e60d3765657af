// Package export renders the equipment list as an xlsx workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/invmap/engine/internal/inventory"
	"github.com/invmap/engine/internal/models"
)

const (
	SheetName       = "Inventário"
	ContentType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	missingLocation = "Localidade não encontrada"
)

// Headers is the fixed header row, in column order.
var Headers = []string{"Nome do Equipamento", "Status", "Licença", "Contato", "Localidade", "Localidade Pai"}

// FileName returns inventario-DD-MM-YYYY.xlsx for t.
func FileName(t time.Time) string {
	return "inventario-" + t.Format("02-01-2006") + ".xlsx"
}

// StatusLabel is the display form of an equipment status.
func StatusLabel(s models.EquipmentStatus) string {
	switch s {
	case models.EquipmentOnline:
		return "Online"
	case models.EquipmentOffline:
		return "Offline"
	default:
		return "Manutenção"
	}
}

type Row struct {
	Name           string
	Status         string
	License        string
	Contact        string
	Location       string
	ParentLocation string
}

func (r Row) values() []any {
	return []any{r.Name, r.Status, r.License, r.Contact, r.Location, r.ParentLocation}
}

// Rows builds one row per equipment node, in snapshot order.
func Rows(snap inventory.Snapshot) []Row {
	locations := map[uuid.UUID]inventory.LocationAttrs{}
	units := map[uuid.UUID]inventory.UnitAttrs{}
	for _, n := range snap.Nodes {
		switch a := n.Attrs.(type) {
		case inventory.LocationAttrs:
			locations[n.RowID()] = a
		case inventory.UnitAttrs:
			units[n.RowID()] = a
		}
	}

	name := func(id *uuid.UUID) string {
		if id == nil {
			return missingLocation
		}
		if l, ok := locations[*id]; ok {
			return l.Label
		}
		return missingLocation
	}

	rows := []Row{}
	for _, n := range snap.Nodes {
		eq, ok := n.Attrs.(inventory.EquipmentAttrs)
		if !ok {
			continue
		}
		locID := eq.LocationID
		if locID == nil && eq.UnitID != nil {
			if u, ok := units[*eq.UnitID]; ok {
				locID = u.LocationID
			}
		}
		parent := ""
		if locID != nil {
			if l, ok := locations[*locID]; ok && l.ParentLocationID != nil {
				parent = name(l.ParentLocationID)
			}
		}
		rows = append(rows, Row{
			Name:           eq.Label,
			Status:         StatusLabel(eq.Status),
			License:        deref(eq.License),
			Contact:        deref(eq.Contact),
			Location:       name(locID),
			ParentLocation: parent,
		})
	}
	return rows
}

// Workbook lays rows out under the header row on the Inventário sheet.
func Workbook(rows []Row) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	header := make([]any, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		values := r.values()
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	return f, nil
}

// Write renders the workbook for snap into w.
func Write(w io.Writer, snap inventory.Snapshot) error {
	f, err := Workbook(Rows(snap))
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
