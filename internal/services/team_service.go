package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shipgate/engine/internal/models"
	"github.com/shipgate/engine/internal/repository"
	appErr "github.com/shipgate/engine/pkg/errors"
	"github.com/shipgate/engine/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// TeamService manages teams and their environments. New teams are seeded
// with the default Staging/UAT/Production pipeline.
type TeamService interface {
	CreateTeam(ctx context.Context, actx ActorContext, workspaceID uuid.UUID, name, description string) (*models.Team, error)
	ListTeams(ctx context.Context, actx ActorContext, workspaceID uuid.UUID) ([]models.Team, error)
	DeleteTeam(ctx context.Context, actx ActorContext, teamID uuid.UUID) error

	ListEnvironments(ctx context.Context, actx ActorContext, teamID uuid.UUID) ([]models.Environment, error)
	CreateEnvironment(ctx context.Context, actx ActorContext, teamID uuid.UUID, input *CreateEnvironmentInput) (*models.Environment, error)
	DeleteEnvironment(ctx context.Context, actx ActorContext, environmentID uuid.UUID) error
}

type CreateEnvironmentInput struct {
	Name      string
	Color     string
	SortOrder int
}

type teamService struct {
	db            *gorm.DB
	guard         Guard
	teamRepo      repository.TeamRepository
	envRepo       repository.EnvironmentRepository
	workspaceRepo repository.WorkspaceRepository
	activity      ActivityService
}

func NewTeamService(db *gorm.DB, g Guard, teamRepo repository.TeamRepository, envRepo repository.EnvironmentRepository, workspaceRepo repository.WorkspaceRepository, activity ActivityService) TeamService {
	return &teamService{db: db, guard: g, teamRepo: teamRepo, envRepo: envRepo, workspaceRepo: workspaceRepo, activity: activity}
}

var _ TeamService = (*teamService)(nil)

func (s *teamService) requireMembership(ctx context.Context, actx ActorContext, workspaceID uuid.UUID) error {
	ok, err := s.workspaceRepo.IsMember(ctx, workspaceID, actx.ActorID)
	if err != nil {
		return err
	}
	if !ok {
		return appErr.New(appErr.CodeForbidden, "actor is not a member of the workspace")
	}
	return nil
}

// CreateTeam creates the team and its default environments in one
// transaction.
func (s *teamService) CreateTeam(ctx context.Context, actx ActorContext, workspaceID uuid.UUID, name, description string) (*models.Team, error) {
	if name == "" {
		return nil, appErr.New(appErr.CodeInvalid, "team name is required")
	}
	if err := s.requireMembership(ctx, actx, workspaceID); err != nil {
		return nil, err
	}

	team := &models.Team{WorkspaceID: workspaceID, Name: name, Description: description}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return appErr.Wrap(err, appErr.CodeConflict, "team name already in use")
			}
			return appErr.Wrap(err, appErr.CodeInternal, "create team failed")
		}
		envs := models.DefaultEnvironments(team.ID)
		if err := tx.Create(&envs).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "seed default environments failed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		WorkspaceID: &workspaceID,
		Actor:       actx.ActorID.String(),
		Action:      "team.created",
		Meta:        map[string]any{"team_id": team.ID.String(), "name": team.Name},
	})
	logger.L().Info("team created", zap.String("team_id", team.ID.String()))
	return team, nil
}

func (s *teamService) ListTeams(ctx context.Context, actx ActorContext, workspaceID uuid.UUID) ([]models.Team, error) {
	if err := s.requireMembership(ctx, actx, workspaceID); err != nil {
		return nil, err
	}
	return s.teamRepo.ListByWorkspace(ctx, workspaceID)
}

// DeleteTeam removes the team and, through the cascade graph, all of its
// environments, releases, stages, tasks, blockers and diagrams.
func (s *teamService) DeleteTeam(ctx context.Context, actx ActorContext, teamID uuid.UUID) error {
	team, err := s.guard.team(ctx, actx, teamID)
	if err != nil {
		return err
	}
	if err := s.teamRepo.Delete(ctx, teamID); err != nil {
		return err
	}
	s.activity.Record(ctx, ActivityEntry{
		WorkspaceID: &team.WorkspaceID,
		Actor:       actx.ActorID.String(),
		Action:      "team.deleted",
		Meta:        map[string]any{"team_id": teamID.String(), "name": team.Name},
	})
	return nil
}

func (s *teamService) ListEnvironments(ctx context.Context, actx ActorContext, teamID uuid.UUID) ([]models.Environment, error) {
	if _, err := s.guard.team(ctx, actx, teamID); err != nil {
		return nil, err
	}
	return s.envRepo.ListByTeam(ctx, teamID)
}

// CreateEnvironment fails with Conflict on a duplicate name within the team;
// callers wanting stage creation against an existing environment should fall
// back to the case-insensitive lookup instead of treating that as terminal.
func (s *teamService) CreateEnvironment(ctx context.Context, actx ActorContext, teamID uuid.UUID, input *CreateEnvironmentInput) (*models.Environment, error) {
	if input.Name == "" {
		return nil, appErr.New(appErr.CodeInvalid, "environment name is required")
	}
	if _, err := s.guard.team(ctx, actx, teamID); err != nil {
		return nil, err
	}
	env := &models.Environment{
		TeamID:    teamID,
		Name:      input.Name,
		Color:     input.Color,
		SortOrder: input.SortOrder,
	}
	if err := s.envRepo.Create(ctx, env); err != nil {
		return nil, err
	}
	s.activity.Record(ctx, ActivityEntry{
		Actor:  actx.ActorID.String(),
		Action: "environment.created",
		Meta:   map[string]any{"environment_id": env.ID.String(), "name": env.Name},
	})
	return env, nil
}

func (s *teamService) DeleteEnvironment(ctx context.Context, actx ActorContext, environmentID uuid.UUID) error {
	var env models.Environment
	if err := s.envRepo.GetByID(ctx, environmentID, &env); err != nil {
		return err
	}
	if _, err := s.guard.team(ctx, actx, env.TeamID); err != nil {
		return err
	}
	if err := s.envRepo.Delete(ctx, environmentID); err != nil {
		return err
	}
	s.activity.Record(ctx, ActivityEntry{
		Actor:  actx.ActorID.String(),
		Action: "environment.deleted",
		Meta:   map[string]any{"environment_id": environmentID.String(), "name": env.Name},
	})
	return nil
}
