package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shipgate/engine/internal/models"
	appErr "github.com/shipgate/engine/pkg/errors"
	"gorm.io/gorm"
)

type StageRepository interface {
	BaseRepository[models.Stage]
	ListByRelease(ctx context.Context, releaseID uuid.UUID) ([]models.Stage, error)
	FindByReleaseAndEnvironment(ctx context.Context, releaseID, environmentID uuid.UUID, dest *models.Stage) error
}

type stageRepository struct {
	BaseRepository[models.Stage]
	db *gorm.DB
}

func NewStageRepository(db *gorm.DB) StageRepository {
	return &stageRepository{BaseRepository: NewBaseRepository[models.Stage](db), db: db}
}

// ListByRelease returns stages ordered by their environment's sort order so
// callers see the pipeline in deployment order.
func (r *stageRepository) ListByRelease(ctx context.Context, releaseID uuid.UUID) ([]models.Stage, error) {
	var out []models.Stage
	err := r.db.WithContext(ctx).
		Joins("JOIN environments ON environments.id = stages.environment_id").
		Where("stages.release_id = ?", releaseID).
		Order("environments.sort_order ASC").
		Find(&out).Error
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list stages by release failed")
	}
	return out, nil
}

func (r *stageRepository) FindByReleaseAndEnvironment(ctx context.Context, releaseID, environmentID uuid.UUID, dest *models.Stage) error {
	err := r.db.WithContext(ctx).
		Where("release_id = ? AND environment_id = ?", releaseID, environmentID).
		First(dest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.New(appErr.CodeNotFound, "stage not found")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "find stage failed")
	}
	return nil
}
