package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shipgate/engine/internal/models"
	appErr "github.com/shipgate/engine/pkg/errors"
	"gorm.io/gorm"
)

type EnvironmentRepository interface {
	BaseRepository[models.Environment]
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Environment, error)
	FindByTeamAndName(ctx context.Context, teamID uuid.UUID, name string, dest *models.Environment) error
}

type environmentRepository struct {
	BaseRepository[models.Environment]
	db *gorm.DB
}

func NewEnvironmentRepository(db *gorm.DB) EnvironmentRepository {
	return &environmentRepository{BaseRepository: NewBaseRepository[models.Environment](db), db: db}
}

func (r *environmentRepository) ListByTeam(ctx context.Context, teamID uuid.UUID) ([]models.Environment, error) {
	var out []models.Environment
	if err := r.db.WithContext(ctx).Where("team_id = ?", teamID).Order("sort_order ASC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list environments by team failed")
	}
	return out, nil
}

// FindByTeamAndName matches case-insensitively; this backs the documented
// reuse fallback when creating a duplicate-named environment conflicts.
func (r *environmentRepository) FindByTeamAndName(ctx context.Context, teamID uuid.UUID, name string, dest *models.Environment) error {
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND LOWER(name) = LOWER(?)", teamID, name).
		First(dest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.New(appErr.CodeNotFound, "environment not found")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "find environment by name failed")
	}
	return nil
}
