package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StageStatus is the pipeline state of one stage.
type StageStatus string

const (
	StageNotStarted StageStatus = "not_started"
	StageInProgress StageStatus = "in_progress"
	StageBlocked    StageStatus = "blocked"
	StageDone       StageStatus = "done"
)

// ValidStageStatus reports whether s is one of the known stage statuses.
func ValidStageStatus(s StageStatus) bool {
	switch s {
	case StageNotStarted, StageInProgress, StageBlocked, StageDone:
		return true
	}
	return false
}

// Stage pairs one release with one environment. At most one stage exists per
// (release, environment). Transitions into "done" happen only through the
// approval gate.
type Stage struct {
	ID            uuid.UUID   `gorm:"type:uuid;primaryKey;default:(gen_random_uuid())" json:"id"`
	ReleaseID     uuid.UUID   `gorm:"type:uuid;not null;index:idx_stages_release_env,unique" json:"release_id" validate:"required"`
	EnvironmentID uuid.UUID   `gorm:"type:uuid;not null;index:idx_stages_release_env,unique" json:"environment_id" validate:"required"`
	Status        StageStatus `gorm:"type:varchar(16);not null;default:'not_started'" json:"status" validate:"omitempty,oneof=not_started in_progress blocked done"`
	Approver      *uuid.UUID  `gorm:"type:uuid" json:"approver,omitempty"`
	StartedAt     *time.Time  `json:"started_at,omitempty"`
	EndedAt       *time.Time  `json:"ended_at,omitempty"`
	LastUpdate    time.Time   `gorm:"autoUpdateTime" json:"last_update"`

	Release     Release     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Environment Environment `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (s *Stage) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.Status == "" {
		s.Status = StageNotStarted
	}
	return nil
}
