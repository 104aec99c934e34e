package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Diagram stores the single canvas layout of a release. Layout is the whole
// {nodes, edges} document; saves replace it entirely.
type Diagram struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;default:(gen_random_uuid())" json:"id"`
	ReleaseID uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"release_id" validate:"required"`
	Layout    datatypes.JSON `gorm:"type:jsonb" json:"layout"`
	UpdatedAt time.Time      `json:"updated_at"`

	Release Release `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (d *Diagram) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// TaskDiagram stores the single task sub-canvas layout of a stage.
type TaskDiagram struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;default:(gen_random_uuid())" json:"id"`
	StageID   uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"stage_id" validate:"required"`
	Layout    datatypes.JSON `gorm:"type:jsonb" json:"layout"`
	UpdatedAt time.Time      `json:"updated_at"`

	Stage Stage `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (d *TaskDiagram) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
