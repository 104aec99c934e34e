package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaskStatus is the completion state of a checklist task.
type TaskStatus string

const (
	TaskTodo  TaskStatus = "todo"
	TaskDoing TaskStatus = "doing"
	TaskDone  TaskStatus = "done"
	TaskNA    TaskStatus = "na"
)

// ValidTaskStatus reports whether s is one of the known task statuses.
func ValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskTodo, TaskDoing, TaskDone, TaskNA:
		return true
	}
	return false
}

// Task is a unit of work on a stage's checklist. Required tasks gate the
// stage approval.
type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:(gen_random_uuid())" json:"id"`
	StageID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"stage_id" validate:"required"`
	Title       string     `gorm:"not null" json:"title" validate:"required"`
	Details     string     `gorm:"type:text" json:"details,omitempty"`
	Owner       string     `json:"owner,omitempty"`
	Required    bool       `gorm:"not null;default:true" json:"required"`
	Status      TaskStatus `gorm:"type:varchar(8);not null;default:'todo'" json:"status" validate:"omitempty,oneof=todo doing done na"`
	EvidenceURL string     `json:"evidence_url,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Stage Stage `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Status == "" {
		t.Status = TaskTodo
	}
	return nil
}
