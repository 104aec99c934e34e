package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shipgate/engine/internal/models"
	appErr "github.com/shipgate/engine/pkg/errors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DiagramRepository persists canvas layouts: one record per release for the
// environment canvas, one record per stage for the task sub-canvas. Saves
// replace the stored layout document wholesale.
type DiagramRepository interface {
	GetByRelease(ctx context.Context, releaseID uuid.UUID, dest *models.Diagram) error
	UpsertByRelease(ctx context.Context, releaseID uuid.UUID, layout datatypes.JSON) (*models.Diagram, error)
	GetByStage(ctx context.Context, stageID uuid.UUID, dest *models.TaskDiagram) error
	UpsertByStage(ctx context.Context, stageID uuid.UUID, layout datatypes.JSON) (*models.TaskDiagram, error)
}

type diagramRepository struct {
	db *gorm.DB
}

func NewDiagramRepository(db *gorm.DB) DiagramRepository {
	return &diagramRepository{db: db}
}

func (r *diagramRepository) GetByRelease(ctx context.Context, releaseID uuid.UUID, dest *models.Diagram) error {
	err := r.db.WithContext(ctx).Where("release_id = ?", releaseID).First(dest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.New(appErr.CodeNotFound, "diagram not found")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get diagram failed")
	}
	return nil
}

func (r *diagramRepository) UpsertByRelease(ctx context.Context, releaseID uuid.UUID, layout datatypes.JSON) (*models.Diagram, error) {
	d := &models.Diagram{ReleaseID: releaseID, Layout: layout}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "release_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"layout", "updated_at"}),
	}).Create(d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, appErr.Wrap(err, appErr.CodeNotFound, "release not found")
		}
		return nil, appErr.Wrap(err, appErr.CodeInternal, "save diagram failed")
	}
	// re-read so callers get the persisted row, not the insert candidate
	var out models.Diagram
	if err := r.GetByRelease(ctx, releaseID, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *diagramRepository) GetByStage(ctx context.Context, stageID uuid.UUID, dest *models.TaskDiagram) error {
	err := r.db.WithContext(ctx).Where("stage_id = ?", stageID).First(dest).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return appErr.New(appErr.CodeNotFound, "task diagram not found")
		}
		return appErr.Wrap(err, appErr.CodeInternal, "get task diagram failed")
	}
	return nil
}

func (r *diagramRepository) UpsertByStage(ctx context.Context, stageID uuid.UUID, layout datatypes.JSON) (*models.TaskDiagram, error) {
	d := &models.TaskDiagram{StageID: stageID, Layout: layout}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stage_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"layout", "updated_at"}),
	}).Create(d).Error
	if err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, appErr.Wrap(err, appErr.CodeNotFound, "stage not found")
		}
		return nil, appErr.Wrap(err, appErr.CodeInternal, "save task diagram failed")
	}
	var out models.TaskDiagram
	if err := r.GetByStage(ctx, stageID, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
