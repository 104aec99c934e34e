package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Workspace is the top-level tenant scope. Teams, memberships and
// invitations hang off a workspace.
type Workspace struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:(gen_random_uuid())" json:"id"`
	Name      string    `gorm:"not null" json:"name" validate:"required"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (w *Workspace) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// WorkspaceMember links a user to a workspace with a role.
type WorkspaceMember struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:(gen_random_uuid())" json:"id"`
	WorkspaceID uuid.UUID `gorm:"type:uuid;not null;index:idx_members_workspace_user,unique" json:"workspace_id" validate:"required"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index:idx_members_workspace_user,unique" json:"user_id" validate:"required"`
	Role        string    `gorm:"type:varchar(16);not null;default:'member'" json:"role" validate:"required,oneof=admin member"`
	CreatedAt   time.Time `json:"created_at"`

	Workspace Workspace `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	User      User      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (m *WorkspaceMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// Invitation is a pending email invite into a workspace. The token is
// single-use; AcceptedAt marks consumption.
type Invitation struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:(gen_random_uuid())" json:"id"`
	WorkspaceID uuid.UUID  `gorm:"type:uuid;index;not null" json:"workspace_id" validate:"required"`
	Email       string     `gorm:"not null" json:"email" validate:"required,email"`
	Role        string     `gorm:"type:varchar(16);not null;default:'member'" json:"role" validate:"required,oneof=admin member"`
	Token       string     `gorm:"uniqueIndex;not null" json:"-"`
	InvitedBy   uuid.UUID  `gorm:"type:uuid" json:"invited_by"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`

	Workspace Workspace `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (i *Invitation) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
