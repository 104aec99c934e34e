package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shipgate/engine/internal/models"
	"github.com/shipgate/engine/internal/repository"
	appErr "github.com/shipgate/engine/pkg/errors"
	"github.com/shipgate/engine/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// ActivityService appends and queries the immutable audit trail.
type ActivityService interface {
	Append(ctx context.Context, entry ActivityEntry) error
	// Record is Append for the common in-band case: failures are logged and
	// swallowed so an audit write never fails the primary mutation.
	Record(ctx context.Context, entry ActivityEntry)
	Query(ctx context.Context, actx ActorContext, filters repository.ActivityFilters) ([]models.ActivityLog, error)
}

// ActivityEntry is the write shape of one audit event. Action is a dotted
// event name such as "stage.approved".
type ActivityEntry struct {
	WorkspaceID *uuid.UUID
	ReleaseID   *uuid.UUID
	StageID     *uuid.UUID
	Actor       string
	Action      string
	Meta        map[string]any
}

type activityService struct {
	guard Guard
	repo  repository.ActivityRepository
}

func NewActivityService(g Guard, repo repository.ActivityRepository) ActivityService {
	return &activityService{guard: g, repo: repo}
}

var _ ActivityService = (*activityService)(nil)

func (s *activityService) Append(ctx context.Context, entry ActivityEntry) error {
	if entry.Action == "" {
		return appErr.New(appErr.CodeInvalid, "activity action is required")
	}
	var meta datatypes.JSON
	if entry.Meta != nil {
		b, err := json.Marshal(entry.Meta)
		if err != nil {
			return appErr.Wrap(err, appErr.CodeInvalid, "invalid activity meta")
		}
		meta = datatypes.JSON(b)
	}
	row := &models.ActivityLog{
		WorkspaceID: entry.WorkspaceID,
		ReleaseID:   entry.ReleaseID,
		StageID:     entry.StageID,
		Actor:       entry.Actor,
		Action:      entry.Action,
		Meta:        meta,
	}
	return s.repo.Append(ctx, row)
}

func (s *activityService) Record(ctx context.Context, entry ActivityEntry) {
	if err := s.Append(ctx, entry); err != nil {
		logger.L().Warn("activity append failed",
			zap.String("action", entry.Action),
			zap.Error(err),
		)
	}
}

// Query returns matching feed rows, newest first. The actor must own the
// narrowest filter target: stage and release walk up to the owning team's
// workspace, a workspace filter checks membership directly. Unfiltered
// reads are rejected so no actor can scan across workspaces.
func (s *activityService) Query(ctx context.Context, actx ActorContext, filters repository.ActivityFilters) ([]models.ActivityLog, error) {
	switch {
	case filters.StageID != uuid.Nil:
		if _, _, err := s.guard.stage(ctx, actx, filters.StageID); err != nil {
			return nil, err
		}
	case filters.ReleaseID != uuid.Nil:
		if _, err := s.guard.release(ctx, actx, filters.ReleaseID); err != nil {
			return nil, err
		}
	case filters.WorkspaceID != uuid.Nil:
		if _, err := s.guard.workspace(ctx, actx, filters.WorkspaceID); err != nil {
			return nil, err
		}
	default:
		return nil, appErr.New(appErr.CodeInvalid, "one of workspaceId, releaseId or stageId is required")
	}
	return s.repo.Query(ctx, filters)
}
