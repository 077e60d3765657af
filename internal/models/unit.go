package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Unit is a sub-site that hangs off a location. LocationID is nullable:
// a unit without a location is stored but has no rendered connection.
type Unit struct {
	ID          uuid.UUID  `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerID     uuid.UUID  `gorm:"type:varchar(36);index;not null" json:"owner_id" validate:"required"`
	Label       string     `gorm:"not null" json:"label" validate:"required"`
	Responsible *string    `json:"responsible,omitempty"`
	Status      SiteStatus `gorm:"type:varchar(16);not null;default:active" json:"status" validate:"required,oneof=active inactive maintenance"`
	LocationID  *uuid.UUID `gorm:"type:varchar(36);index" json:"location_id,omitempty"`
	PositionX   float64    `gorm:"not null" json:"position_x"`
	PositionY   float64    `gorm:"not null" json:"position_y"`
	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (Unit) TableName() string { return string(TableUnits) }

func (u *Unit) Table() Table     { return TableUnits }
func (u *Unit) RowID() uuid.UUID { return u.ID }
func (u *Unit) Owner() uuid.UUID { return u.OwnerID }

func (u *Unit) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
