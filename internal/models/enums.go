package models

// Table names the three inventory tables.
type Table string

const (
	TableLocations Table = "locations"
	TableUnits     Table = "units"
	TableEquipment Table = "equipment"
)

// Valid reports whether t is one of the inventory tables.
func (t Table) Valid() bool {
	switch t {
	case TableLocations, TableUnits, TableEquipment:
		return true
	}
	return false
}

// SiteStatus is shared by locations and units.
type SiteStatus string

const (
	SiteActive      SiteStatus = "active"
	SiteInactive    SiteStatus = "inactive"
	SiteMaintenance SiteStatus = "maintenance"
)

func (s SiteStatus) Valid() bool {
	switch s {
	case SiteActive, SiteInactive, SiteMaintenance:
		return true
	}
	return false
}

type EquipmentStatus string

const (
	EquipmentOnline      EquipmentStatus = "online"
	EquipmentOffline     EquipmentStatus = "offline"
	EquipmentMaintenance EquipmentStatus = "maintenance"
)

func (s EquipmentStatus) Valid() bool {
	switch s {
	case EquipmentOnline, EquipmentOffline, EquipmentMaintenance:
		return true
	}
	return false
}

// IconKind selects the glyph drawn for an equipment node.
type IconKind string

const (
	IconLinux   IconKind = "linux"
	IconWindows IconKind = "windows"
	IconPC      IconKind = "pc"
	IconMobile  IconKind = "mobile"
	IconAntenna IconKind = "antenna"
	IconCustom  IconKind = "custom"
)

func (k IconKind) Valid() bool {
	switch k {
	case IconLinux, IconWindows, IconPC, IconMobile, IconAntenna, IconCustom:
		return true
	}
	return false
}
