package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shipgate/engine/internal/models"
	appErr "github.com/shipgate/engine/pkg/errors"
	"gorm.io/gorm"
)

type BlockerRepository interface {
	BaseRepository[models.Blocker]
	ListByStage(ctx context.Context, stageID uuid.UUID, activeOnly bool) ([]models.Blocker, error)
	CountActiveByRelease(ctx context.Context, releaseID uuid.UUID) (int64, error)
}

type blockerRepository struct {
	BaseRepository[models.Blocker]
	db *gorm.DB
}

func NewBlockerRepository(db *gorm.DB) BlockerRepository {
	return &blockerRepository{BaseRepository: NewBaseRepository[models.Blocker](db), db: db}
}

func (r *blockerRepository) ListByStage(ctx context.Context, stageID uuid.UUID, activeOnly bool) ([]models.Blocker, error) {
	q := r.db.WithContext(ctx).Where("stage_id = ?", stageID)
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var out []models.Blocker
	if err := q.Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list blockers by stage failed")
	}
	return out, nil
}

// CountActiveByRelease feeds the "failed" outcome filter: a release with any
// active blocker counts as failed regardless of stage statuses.
func (r *blockerRepository) CountActiveByRelease(ctx context.Context, releaseID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Blocker{}).
		Joins("JOIN stages ON stages.id = blockers.stage_id").
		Where("stages.release_id = ? AND blockers.active = ?", releaseID, true).
		Count(&n).Error
	if err != nil {
		return 0, appErr.Wrap(err, appErr.CodeInternal, "count active blockers failed")
	}
	return n, nil
}
