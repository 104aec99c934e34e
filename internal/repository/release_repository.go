package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shipgate/engine/internal/models"
	appErr "github.com/shipgate/engine/pkg/errors"
	"gorm.io/gorm"
)

type ReleaseRepository interface {
	BaseRepository[models.Release]
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Release, error)
}

type releaseRepository struct {
	BaseRepository[models.Release]
	db *gorm.DB
}

func NewReleaseRepository(db *gorm.DB) ReleaseRepository {
	return &releaseRepository{BaseRepository: NewBaseRepository[models.Release](db), db: db}
}

func (r *releaseRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Release, error) {
	var out []models.Release
	if err := r.db.WithContext(ctx).Where("team_id = ?", teamID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list releases by team failed")
	}
	return out, nil
}
