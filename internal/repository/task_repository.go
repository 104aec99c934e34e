package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shipgate/engine/internal/models"
	appErr "github.com/shipgate/engine/pkg/errors"
	"gorm.io/gorm"
)

type TaskRepository interface {
	BaseRepository[models.Task]
	ListByStage(ctx context.Context, stageID uuid.UUID) ([]models.Task, error)
	ListByRelease(ctx context.Context, releaseID uuid.UUID) ([]models.Task, error)
}

type taskRepository struct {
	BaseRepository[models.Task]
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{BaseRepository: NewBaseRepository[models.Task](db), db: db}
}

func (r *taskRepository) ListByStage(ctx context.Context, stageID uuid.UUID) ([]models.Task, error) {
	var out []models.Task
	if err := r.db.WithContext(ctx).Where("stage_id = ?", stageID).Order("updated_at ASC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list tasks by stage failed")
	}
	return out, nil
}

// ListByRelease pulls every task across the release's stages in one query;
// the release progress computation reads from here.
func (r *taskRepository) ListByRelease(ctx context.Context, releaseID uuid.UUID) ([]models.Task, error) {
	var out []models.Task
	err := r.db.WithContext(ctx).
		Joins("JOIN stages ON stages.id = tasks.stage_id").
		Where("stages.release_id = ?", releaseID).
		Find(&out).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list tasks by release failed")
	}
	return out, nil
}
