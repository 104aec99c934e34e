package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ActivityLog is one immutable audit trail entry. Rows are only ever
// appended; release/stage references null out when their subject is deleted
// so the trail outlives it.
type ActivityLog struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:(gen_random_uuid())" json:"id"`
	WorkspaceID *uuid.UUID     `gorm:"type:uuid;index" json:"workspace_id,omitempty"`
	ReleaseID   *uuid.UUID     `gorm:"type:uuid;index" json:"release_id,omitempty"`
	StageID     *uuid.UUID     `gorm:"type:uuid;index" json:"stage_id,omitempty"`
	Actor       string         `json:"actor"`
	Action      string         `gorm:"not null" json:"action" validate:"required"`
	Meta        datatypes.JSON `gorm:"type:jsonb" json:"meta,omitempty"`
	At          time.Time      `gorm:"autoCreateTime;index" json:"at"`

	Workspace *Workspace `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Release   *Release   `gorm:"constraint:OnDelete:SET NULL" json:"-"`
	Stage     *Stage     `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

func (a *ActivityLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
