package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Release is a named deployment effort moving through a team's environments.
type Release struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey;default:(gen_random_uuid())" json:"id"`
	TeamID       uuid.UUID      `gorm:"type:uuid;index;not null" json:"team_id" validate:"required"`
	Name         string         `gorm:"not null" json:"name" validate:"required"`
	Version      string         `json:"version,omitempty"`
	ChangeWindow datatypes.JSON `gorm:"type:jsonb" json:"change_window,omitempty"`
	CreatedBy    uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`

	Team Team `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (r *Release) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
