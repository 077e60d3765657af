package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Location is a top-level container on the map. It may nest under another location.
type Location struct {
	ID               uuid.UUID  `gorm:"type:varchar(36);primaryKey" json:"id"`
	OwnerID          uuid.UUID  `gorm:"type:varchar(36);index;not null" json:"owner_id" validate:"required"`
	Label            string     `gorm:"not null" json:"label" validate:"required"`
	Responsible      *string    `json:"responsible,omitempty"`
	Status           SiteStatus `gorm:"type:varchar(16);not null;default:active" json:"status" validate:"required,oneof=active inactive maintenance"`
	ParentLocationID *uuid.UUID `gorm:"type:varchar(36);index" json:"parent_location_id,omitempty"`
	PositionX        float64    `gorm:"not null" json:"position_x"`
	PositionY        float64    `gorm:"not null" json:"position_y"`
	CreatedAt        time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (Location) TableName() string { return string(TableLocations) }

func (l *Location) Table() Table     { return TableLocations }
func (l *Location) RowID() uuid.UUID { return l.ID }
func (l *Location) Owner() uuid.UUID { return l.OwnerID }

// BeforeCreate assigns an id when the caller did not.
func (l *Location) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
