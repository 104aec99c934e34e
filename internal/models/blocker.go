package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BlockerSeverity ranks an impediment from critical to low.
type BlockerSeverity string

const (
	SeverityP1 BlockerSeverity = "P1"
	SeverityP2 BlockerSeverity = "P2"
	SeverityP3 BlockerSeverity = "P3"
)

// ValidBlockerSeverity reports whether s is one of the known severities.
func ValidBlockerSeverity(s BlockerSeverity) bool {
	switch s {
	case SeverityP1, SeverityP2, SeverityP3:
		return true
	}
	return false
}

// Blocker is an impediment attached to a stage. While any blocker on a stage
// is active the stage status is "blocked".
type Blocker struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:(gen_random_uuid())" json:"id"`
	StageID   uuid.UUID       `gorm:"type:uuid;index;not null" json:"stage_id" validate:"required"`
	Severity  BlockerSeverity `gorm:"type:varchar(2);not null;default:'P2'" json:"severity" validate:"omitempty,oneof=P1 P2 P3"`
	Reason    string          `gorm:"type:text;not null" json:"reason" validate:"required"`
	Owner     string          `json:"owner,omitempty"`
	ETA       *time.Time      `json:"eta,omitempty"`
	Active    bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time       `json:"created_at"`

	Stage Stage `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (b *Blocker) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Severity == "" {
		b.Severity = SeverityP2
	}
	return nil
}
