package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Team is the organizational scope owning environments and releases.
// Name is unique within a workspace.
type Team struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:(gen_random_uuid())" json:"id"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;index:idx_teams_workspace_name,unique" json:"workspace_id" validate:"required"`
	Name        string    `gorm:"not null;index:idx_teams_workspace_name,unique" json:"name" validate:"required"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Workspace Workspace `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (t *Team) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
