package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Equipment is a device placed on the map, attached to a location and optionally a unit.
type Equipment struct {
	ID            uuid.UUID       `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerID       uuid.UUID       `gorm:"type:varchar(36);index;not null" json:"owner_id" validate:"required"`
	Label         string          `gorm:"not null" json:"label" validate:"required"`
	Status        EquipmentStatus `gorm:"type:varchar(16);not null;default:online" json:"status" validate:"required,oneof=online offline maintenance"`
	License       *string         `json:"license,omitempty"`
	Contact       *string         `json:"contact,omitempty"`
	IconType      IconKind        `gorm:"type:varchar(16);not null;default:pc" json:"icon_type" validate:"required,oneof=linux windows pc mobile antenna custom"`
	CustomIconURL *string         `gorm:"type:text" json:"custom_icon_url,omitempty"`
	LocationID    *uuid.UUID      `gorm:"type:varchar(36);index" json:"location_id,omitempty"`
	UnitID        *uuid.UUID      `gorm:"type:varchar(36);index" json:"unit_id,omitempty"`
	PositionX     float64         `gorm:"not null" json:"position_x"`
	PositionY     float64         `gorm:"not null" json:"position_y"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (Equipment) TableName() string { return string(TableEquipment) }

func (e *Equipment) Table() Table     { return TableEquipment }
func (e *Equipment) RowID() uuid.UUID { return e.ID }
func (e *Equipment) Owner() uuid.UUID { return e.OwnerID }

func (e *Equipment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
