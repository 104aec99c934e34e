package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/shipgate/engine/internal/models"
	appErr "github.com/shipgate/engine/pkg/errors"
	"gorm.io/gorm"
)

type TeamRepository interface {
	BaseRepository[models.Team]
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Team, error)
}

type teamRepository struct {
	BaseRepository[models.Team]
	db *gorm.DB
}

func NewTeamRepository(db *gorm.DB) TeamRepository {
	return &teamRepository{BaseRepository: NewBaseRepository[models.Team](db), db: db}
}

func (r *teamRepository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Team, error) {
	var out []models.Team
	if err := r.db.WithContext(ctx).Where("workspace_id = ?", workspaceID).Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list teams by workspace failed")
	}
	return out, nil
}
