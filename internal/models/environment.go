package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Environment is a named deployment target within a team, e.g. "Staging".
// Name is unique within the team; SortOrder drives pipeline ordering.
type Environment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:(gen_random_uuid())" json:"id"`
	TeamID    uuid.UUID `gorm:"type:uuid;not null;index:idx_environments_team_name,unique" json:"team_id" validate:"required"`
	Name      string    `gorm:"not null;index:idx_environments_team_name,unique" json:"name" validate:"required"`
	Color     string    `gorm:"type:varchar(16)" json:"color"`
	SortOrder int       `gorm:"not null;default:0" json:"sort_order"`
	IsDefault bool      `gorm:"not null;default:false" json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Team Team `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (e *Environment) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// DefaultEnvironments returns the environments seeded into a new team.
func DefaultEnvironments(teamID uuid.UUID) []Environment {
	return []Environment{
		{TeamID: teamID, Name: "Staging", Color: "#3b82f6", SortOrder: 1, IsDefault: true},
		{TeamID: teamID, Name: "UAT", Color: "#f59e0b", SortOrder: 2, IsDefault: true},
		{TeamID: teamID, Name: "Production", Color: "#ef4444", SortOrder: 3, IsDefault: true},
	}
}
