package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shipgate/engine/internal/models"
	appErr "github.com/shipgate/engine/pkg/errors"
	"gorm.io/gorm"
)

// activityFeedLimit bounds the feed to a recency tail; the activity log is
// not a paginated archive.
const activityFeedLimit = 100

// ActivityFilters narrows the feed; zero-value fields are ignored.
type ActivityFilters struct {
	WorkspaceID uuid.UUID
	ReleaseID   uuid.UUID
	StageID     uuid.UUID
}

// ActivityRepository is append-only: entries are never updated or deleted.
type ActivityRepository interface {
	Append(ctx context.Context, entry *models.ActivityLog) error
	Query(ctx context.Context, filters ActivityFilters) ([]models.ActivityLog, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Append(ctx context.Context, entry *models.ActivityLog) error {
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "append activity failed")
	}
	return nil
}

func (r *activityRepository) Query(ctx context.Context, filters ActivityFilters) ([]models.ActivityLog, error) {
	q := r.db.WithContext(ctx).Model(&models.ActivityLog{})
	if filters.WorkspaceID != uuid.Nil {
		q = q.Where("workspace_id = ?", filters.WorkspaceID)
	}
	if filters.ReleaseID != uuid.Nil {
		q = q.Where("release_id = ?", filters.ReleaseID)
	}
	if filters.StageID != uuid.Nil {
		q = q.Where("stage_id = ?", filters.StageID)
	}
	var out []models.ActivityLog
	if err := q.Order("at DESC").Limit(activityFeedLimit).Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "query activity failed")
	}
	return out, nil
}
