package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/shipgate/engine/internal/models"
	"github.com/shipgate/engine/internal/repository"
	appErr "github.com/shipgate/engine/pkg/errors"
)

// ActorContext identifies the authenticated actor and the team scope of the
// request. It is threaded explicitly through every service call; there is no
// ambient session state.
type ActorContext struct {
	ActorID uuid.UUID
	TeamID  uuid.UUID
}

// Guard performs the ownership walk required by every operation: the target
// resource is followed up to its team, the team must match the actor's team
// scope, and the actor must belong to the team's workspace.
type Guard struct {
	teamRepo      repository.TeamRepository
	releaseRepo   repository.ReleaseRepository
	stageRepo     repository.StageRepository
	workspaceRepo repository.WorkspaceRepository
}

func NewGuard(teamRepo repository.TeamRepository, releaseRepo repository.ReleaseRepository, stageRepo repository.StageRepository, workspaceRepo repository.WorkspaceRepository) Guard {
	return Guard{teamRepo: teamRepo, releaseRepo: releaseRepo, stageRepo: stageRepo, workspaceRepo: workspaceRepo}
}

// SystemActor builds an ActorContext for trusted internal calls scoped to a
// team.
func SystemActor(actorID, teamID uuid.UUID) ActorContext {
	return ActorContext{ActorID: actorID, TeamID: teamID}
}

func (g Guard) workspace(ctx context.Context, actx ActorContext, workspaceID uuid.UUID) (*models.Workspace, error) {
	var ws models.Workspace
	if err := g.workspaceRepo.GetByID(ctx, workspaceID, &ws); err != nil {
		return nil, err
	}
	ok, err := g.workspaceRepo.IsMember(ctx, ws.ID, actx.ActorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErr.New(appErr.CodeForbidden, "actor is not a member of the workspace")
	}
	return &ws, nil
}

func (g Guard) team(ctx context.Context, actx ActorContext, teamID uuid.UUID) (*models.Team, error) {
	var t models.Team
	if err := g.teamRepo.GetByID(ctx, teamID, &t); err != nil {
		return nil, err
	}
	if actx.TeamID != uuid.Nil && actx.TeamID != t.ID {
		return nil, appErr.New(appErr.CodeForbidden, "resource belongs to another team")
	}
	ok, err := g.workspaceRepo.IsMember(ctx, t.WorkspaceID, actx.ActorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErr.New(appErr.CodeForbidden, "actor is not a member of the owning workspace")
	}
	return &t, nil
}

func (g Guard) release(ctx context.Context, actx ActorContext, releaseID uuid.UUID) (*models.Release, error) {
	var r models.Release
	if err := g.releaseRepo.GetByID(ctx, releaseID, &r); err != nil {
		return nil, err
	}
	if _, err := g.team(ctx, actx, r.TeamID); err != nil {
		return nil, err
	}
	return &r, nil
}

func (g Guard) stage(ctx context.Context, actx ActorContext, stageID uuid.UUID) (*models.Stage, *models.Release, error) {
	var s models.Stage
	if err := g.stageRepo.GetByID(ctx, stageID, &s); err != nil {
		return nil, nil, err
	}
	r, err := g.release(ctx, actx, s.ReleaseID)
	if err != nil {
		return nil, nil, err
	}
	return &s, r, nil
}
