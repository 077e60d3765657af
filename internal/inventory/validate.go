package inventory

import (
	"strings"

	"github.com/google/uuid"

	"github.com/invmap/engine/internal/models"
	appErr "github.com/invmap/engine/pkg/errors"
)

// User-facing validation messages.
const (
	msgLabelRequired    = "Nome é obrigatório"
	msgLocationRequired = "Localidade é obrigatória para equipamentos"
	msgCustomIconURL    = "URL do ícone personalizado é obrigatória"
	msgInvalidPosition  = "Posição inválida"
	msgLocationMissing  = "Localidade não encontrada"
	msgUnitMissing      = "Unidade não encontrada"
	msgSelfParent       = "Uma localidade não pode ser pai de si mesma"
	msgParentCycle      = "Uma localidade não pode ficar dentro de uma sublocalidade sua"
)

// withDefaults fills the zero status and icon with the values the form preselects.
func withDefaults(attrs Attributes) Attributes {
	switch a := attrs.(type) {
	case LocationAttrs:
		if a.Status == "" {
			a.Status = models.SiteActive
		}
		a.Label = strings.TrimSpace(a.Label)
		return a
	case UnitAttrs:
		if a.Status == "" {
			a.Status = models.SiteActive
		}
		a.Label = strings.TrimSpace(a.Label)
		return a
	case EquipmentAttrs:
		if a.Status == "" {
			a.Status = models.EquipmentOnline
		}
		if a.IconType == "" {
			a.IconType = models.IconPC
		}
		a.Label = strings.TrimSpace(a.Label)
		return a
	}
	return attrs
}

func validateAttrs(attrs Attributes) error {
	switch a := attrs.(type) {
	case LocationAttrs:
		if a.Label == "" {
			return appErr.New(appErr.CodeInvalid, msgLabelRequired)
		}
		if !a.Status.Valid() {
			return appErr.Newf(appErr.CodeInvalid, "status inválido: %s", a.Status)
		}
	case UnitAttrs:
		if a.Label == "" {
			return appErr.New(appErr.CodeInvalid, msgLabelRequired)
		}
		if !a.Status.Valid() {
			return appErr.Newf(appErr.CodeInvalid, "status inválido: %s", a.Status)
		}
	case EquipmentAttrs:
		if a.Label == "" {
			return appErr.New(appErr.CodeInvalid, msgLabelRequired)
		}
		if !a.Status.Valid() {
			return appErr.Newf(appErr.CodeInvalid, "status inválido: %s", a.Status)
		}
		if !a.IconType.Valid() {
			return appErr.Newf(appErr.CodeInvalid, "ícone inválido: %s", a.IconType)
		}
		if a.IconType == models.IconCustom && (a.CustomIconURL == nil || strings.TrimSpace(*a.CustomIconURL) == "") {
			return appErr.New(appErr.CodeInvalid, msgCustomIconURL)
		}
	case nil:
		return appErr.New(appErr.CodeInvalid, "dados do item ausentes")
	}
	return nil
}

// validateCreate adds the rules that only apply to new nodes.
func validateCreate(attrs Attributes, pos *Position) error {
	if err := validateAttrs(attrs); err != nil {
		return err
	}
	if a, ok := attrs.(EquipmentAttrs); ok && a.LocationID == nil {
		return appErr.New(appErr.CodeInvalid, msgLocationRequired)
	}
	if pos != nil && !pos.Finite() {
		return appErr.New(appErr.CodeInvalid, msgInvalidPosition)
	}
	return nil
}

// checkRefs verifies that every reference in attrs points at a node of the
// right kind in snap. self is the node being updated, empty on create.
func checkRefs(snap Snapshot, attrs Attributes, self NodeID) error {
	has := func(kind Kind, id *uuid.UUID) bool {
		if id == nil {
			return true
		}
		_, ok := snap.Node(NewNodeID(kind, *id))
		return ok
	}
	switch a := attrs.(type) {
	case LocationAttrs:
		if a.ParentLocationID != nil && NewNodeID(KindLocation, *a.ParentLocationID) == self {
			return appErr.New(appErr.CodeInvalid, msgSelfParent)
		}
		if !has(KindLocation, a.ParentLocationID) {
			return appErr.New(appErr.CodeInvalid, msgLocationMissing)
		}
		if self != "" && parentChainReaches(snap, a.ParentLocationID, self) {
			return appErr.New(appErr.CodeInvalid, msgParentCycle)
		}
	case UnitAttrs:
		if !has(KindLocation, a.LocationID) {
			return appErr.New(appErr.CodeInvalid, msgLocationMissing)
		}
	case EquipmentAttrs:
		if !has(KindLocation, a.LocationID) {
			return appErr.New(appErr.CodeInvalid, msgLocationMissing)
		}
		if !has(KindUnit, a.UnitID) {
			return appErr.New(appErr.CodeInvalid, msgUnitMissing)
		}
	}
	return nil
}

// parentChainReaches follows parent_location_id links from parent and reports
// whether target is among the ancestors.
func parentChainReaches(snap Snapshot, parent *uuid.UUID, target NodeID) bool {
	for steps := 0; parent != nil && steps <= len(snap.Nodes); steps++ {
		id := NewNodeID(KindLocation, *parent)
		if id == target {
			return true
		}
		n, ok := snap.Node(id)
		if !ok {
			return false
		}
		loc, ok := n.Attrs.(LocationAttrs)
		if !ok {
			return false
		}
		parent = loc.ParentLocationID
	}
	return false
}
