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

// ReleaseService owns release CRUD and the read-time derivation of release
// status and progress.
type ReleaseService interface {
	ListReleases(ctx context.Context, actx ActorContext, teamID uuid.UUID, filter OutcomeFilter) ([]ReleaseSummary, error)
	GetRelease(ctx context.Context, actx ActorContext, releaseID uuid.UUID) (*ReleaseDetail, error)
	CreateRelease(ctx context.Context, actx ActorContext, input *CreateReleaseInput) (*models.Release, error)
	UpdateRelease(ctx context.Context, actx ActorContext, releaseID uuid.UUID, updates *UpdateReleaseInput) (*models.Release, error)
	DeleteRelease(ctx context.Context, actx ActorContext, releaseID uuid.UUID) error
}

type CreateReleaseInput struct {
	TeamID       uuid.UUID
	Name         string
	Version      string
	ChangeWindow map[string]any
}

type UpdateReleaseInput struct {
	Name         *string
	Version      *string
	ChangeWindow map[string]any
}

// ReleaseDetail is a release expanded with its stages, checklists, blockers
// and derived fields.
type ReleaseDetail struct {
	models.Release
	Status   models.StageStatus `json:"status"`
	Progress int                `json:"progress"`
	Stages   []StageDetail      `json:"stages"`
}

type releaseService struct {
	guard       Guard
	releaseRepo repository.ReleaseRepository
	envRepo     repository.EnvironmentRepository
	stageRepo   repository.StageRepository
	taskRepo    repository.TaskRepository
	blockerRepo repository.BlockerRepository
	stages      StageService
	activity    ActivityService
}

func NewReleaseService(
	g Guard,
	releaseRepo repository.ReleaseRepository,
	envRepo repository.EnvironmentRepository,
	stageRepo repository.StageRepository,
	taskRepo repository.TaskRepository,
	blockerRepo repository.BlockerRepository,
	stages StageService,
	activity ActivityService,
) ReleaseService {
	return &releaseService{
		guard:       g,
		releaseRepo: releaseRepo,
		envRepo:     envRepo,
		stageRepo:   stageRepo,
		taskRepo:    taskRepo,
		blockerRepo: blockerRepo,
		stages:      stages,
		activity:    activity,
	}
}

var _ ReleaseService = (*releaseService)(nil)

func (s *releaseService) ListReleases(ctx context.Context, actx ActorContext, teamID uuid.UUID, filter OutcomeFilter) ([]ReleaseSummary, error) {
	if filter != "" && !ValidOutcomeFilter(filter) {
		return nil, appErr.New(appErr.CodeInvalid, "unknown outcome filter")
	}
	if _, err := s.guard.team(ctx, actx, teamID); err != nil {
		return nil, err
	}
	releases, err := s.releaseRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ReleaseSummary, 0, len(releases))
	for _, rel := range releases {
		sum, err := s.summarize(ctx, rel)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *sum)
	}
	return FilterByOutcome(summaries, filter), nil
}

func (s *releaseService) summarize(ctx context.Context, rel models.Release) (*ReleaseSummary, error) {
	stages, err := s.stageRepo.ListByRelease(ctx, rel.ID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.taskRepo.ListByRelease(ctx, rel.ID)
	if err != nil {
		return nil, err
	}
	active, err := s.blockerRepo.CountActiveByRelease(ctx, rel.ID)
	if err != nil {
		return nil, err
	}
	return &ReleaseSummary{
		Release:          rel,
		Status:           ReleaseStatus(stages),
		Progress:         ReleaseProgress(tasks),
		StageCount:       len(stages),
		HasActiveBlocker: active > 0,
	}, nil
}

func (s *releaseService) GetRelease(ctx context.Context, actx ActorContext, releaseID uuid.UUID) (*ReleaseDetail, error) {
	rel, err := s.guard.release(ctx, actx, releaseID)
	if err != nil {
		return nil, err
	}
	stages, err := s.stageRepo.ListByRelease(ctx, rel.ID)
	if err != nil {
		return nil, err
	}

	details := make([]StageDetail, 0, len(stages))
	var allTasks []models.Task
	for _, st := range stages {
		tasks, err := s.taskRepo.ListByStage(ctx, st.ID)
		if err != nil {
			return nil, err
		}
		blockers, err := s.blockerRepo.ListByStage(ctx, st.ID, false)
		if err != nil {
			return nil, err
		}
		details = append(details, StageDetail{Stage: st, Tasks: tasks, Blockers: blockers})
		allTasks = append(allTasks, tasks...)
	}

	return &ReleaseDetail{
		Release:  *rel,
		Status:   ReleaseStatus(stages),
		Progress: ReleaseProgress(allTasks),
		Stages:   details,
	}, nil
}

// CreateRelease creates the release and instantiates one stage per
// environment currently defined for the team.
func (s *releaseService) CreateRelease(ctx context.Context, actx ActorContext, input *CreateReleaseInput) (*models.Release, error) {
	if input.Name == "" {
		return nil, appErr.New(appErr.CodeInvalid, "release name is required")
	}
	team, err := s.guard.team(ctx, actx, input.TeamID)
	if err != nil {
		return nil, err
	}

	var window datatypes.JSON
	if input.ChangeWindow != nil {
		b, err := json.Marshal(input.ChangeWindow)
		if err != nil {
			return nil, appErr.Wrap(err, appErr.CodeInvalid, "invalid change window")
		}
		window = datatypes.JSON(b)
	}

	rel := &models.Release{
		TeamID:       team.ID,
		Name:         input.Name,
		Version:      input.Version,
		ChangeWindow: window,
		CreatedBy:    actx.ActorID,
	}
	if err := s.releaseRepo.Create(ctx, rel); err != nil {
		return nil, err
	}

	envs, err := s.envRepo.ListByTeam(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	if _, err := s.stages.CreateDefaultStages(ctx, rel, envs); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		WorkspaceID: &team.WorkspaceID,
		ReleaseID:   &rel.ID,
		Actor:       actx.ActorID.String(),
		Action:      "release.created",
		Meta:        map[string]any{"name": rel.Name, "version": rel.Version},
	})
	logger.L().Info("release created",
		zap.String("release_id", rel.ID.String()),
		zap.String("team_id", team.ID.String()),
	)
	return rel, nil
}

func (s *releaseService) UpdateRelease(ctx context.Context, actx ActorContext, releaseID uuid.UUID, updates *UpdateReleaseInput) (*models.Release, error) {
	rel, err := s.guard.release(ctx, actx, releaseID)
	if err != nil {
		return nil, err
	}
	if updates.Name != nil {
		if *updates.Name == "" {
			return nil, appErr.New(appErr.CodeInvalid, "release name is required")
		}
		rel.Name = *updates.Name
	}
	if updates.Version != nil {
		rel.Version = *updates.Version
	}
	if updates.ChangeWindow != nil {
		b, err := json.Marshal(updates.ChangeWindow)
		if err != nil {
			return nil, appErr.Wrap(err, appErr.CodeInvalid, "invalid change window")
		}
		rel.ChangeWindow = datatypes.JSON(b)
	}
	if err := s.releaseRepo.Update(ctx, rel); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		ReleaseID: &rel.ID,
		Actor:     actx.ActorID.String(),
		Action:    "release.updated",
		Meta:      map[string]any{"name": rel.Name},
	})
	return rel, nil
}

// DeleteRelease removes the release; stages, tasks, blockers and diagrams go
// with it through the cascade graph.
func (s *releaseService) DeleteRelease(ctx context.Context, actx ActorContext, releaseID uuid.UUID) error {
	rel, err := s.guard.release(ctx, actx, releaseID)
	if err != nil {
		return err
	}
	if err := s.releaseRepo.Delete(ctx, releaseID); err != nil {
		return err
	}
	s.activity.Record(ctx, ActivityEntry{
		Actor:  actx.ActorID.String(),
		Action: "release.deleted",
		Meta:   map[string]any{"release_id": releaseID.String(), "name": rel.Name},
	})
	return nil
}
