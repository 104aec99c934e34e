package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shipgate/engine/internal/models"
	"github.com/shipgate/engine/internal/repository"
	appErr "github.com/shipgate/engine/pkg/errors"
	"github.com/shipgate/engine/pkg/logger"
	"github.com/shipgate/engine/pkg/utils"
	"go.uber.org/zap"
)

// WorkspaceService manages workspaces, memberships and email invitations.
// Invitation delivery goes through the best-effort notifier; a failed email
// never fails the invite itself.
type WorkspaceService interface {
	CreateWorkspace(ctx context.Context, name string, ownerID uuid.UUID) (*models.Workspace, error)
	Invite(ctx context.Context, actx ActorContext, workspaceID uuid.UUID, email, role string) (*models.Invitation, error)
	AcceptInvitation(ctx context.Context, token string, userID uuid.UUID) (*models.WorkspaceMember, error)
}

type workspaceService struct {
	repo          repository.WorkspaceRepository
	activity      ActivityService
	notifier      Notifier
	inviteBaseURL string
}

func NewWorkspaceService(repo repository.WorkspaceRepository, activity ActivityService, notifier Notifier, inviteBaseURL string) WorkspaceService {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &workspaceService{repo: repo, activity: activity, notifier: notifier, inviteBaseURL: inviteBaseURL}
}

var _ WorkspaceService = (*workspaceService)(nil)

// CreateWorkspace creates a workspace with the owner as its first admin.
func (s *workspaceService) CreateWorkspace(ctx context.Context, name string, ownerID uuid.UUID) (*models.Workspace, error) {
	if name == "" {
		return nil, appErr.New(appErr.CodeInvalid, "workspace name is required")
	}
	w := &models.Workspace{Name: name}
	if err := s.repo.Create(ctx, w); err != nil {
		return nil, err
	}
	member := &models.WorkspaceMember{WorkspaceID: w.ID, UserID: ownerID, Role: "admin"}
	if err := s.repo.AddMember(ctx, member); err != nil {
		return nil, err
	}
	return w, nil
}

func (s *workspaceService) Invite(ctx context.Context, actx ActorContext, workspaceID uuid.UUID, email, role string) (*models.Invitation, error) {
	if email == "" {
		return nil, appErr.New(appErr.CodeInvalid, "email is required")
	}
	if role == "" {
		role = "member"
	}
	ok, err := s.repo.IsMember(ctx, workspaceID, actx.ActorID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, appErr.New(appErr.CodeForbidden, "actor is not a member of the workspace")
	}

	token, err := utils.NewToken(24)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "generate invitation token failed")
	}
	inv := &models.Invitation{
		WorkspaceID: workspaceID,
		Email:       email,
		Role:        role,
		Token:       token,
		InvitedBy:   actx.ActorID,
	}
	if err := s.repo.CreateInvitation(ctx, inv); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		WorkspaceID: &workspaceID,
		Actor:       actx.ActorID.String(),
		Action:      "invitation.sent",
		Meta:        map[string]any{"email": email, "role": role},
	})

	// best-effort delivery; log and move on if the queue is down
	n := Notification{
		To:      email,
		Subject: "You have been invited to a workspace",
		Event:   "invitation.sent",
		Payload: map[string]any{
			"accept_url": fmt.Sprintf("%s/invite/%s", s.inviteBaseURL, token),
			"role":       role,
		},
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		logger.L().Warn("invitation email enqueue failed", zap.String("email", email), zap.Error(err))
	}
	return inv, nil
}

// AcceptInvitation consumes a token exactly once and adds the user to the
// workspace.
func (s *workspaceService) AcceptInvitation(ctx context.Context, token string, userID uuid.UUID) (*models.WorkspaceMember, error) {
	var inv models.Invitation
	if err := s.repo.GetInvitationByToken(ctx, token, &inv); err != nil {
		return nil, err
	}
	if inv.AcceptedAt != nil {
		return nil, appErr.New(appErr.CodeConflict, "invitation already accepted")
	}

	member := &models.WorkspaceMember{WorkspaceID: inv.WorkspaceID, UserID: userID, Role: inv.Role}
	if err := s.repo.AddMember(ctx, member); err != nil {
		return nil, err
	}
	now := time.Now()
	inv.AcceptedAt = &now
	if err := s.repo.UpdateInvitation(ctx, &inv); err != nil {
		return nil, err
	}

	s.activity.Record(ctx, ActivityEntry{
		WorkspaceID: &inv.WorkspaceID,
		Actor:       userID.String(),
		Action:      "invitation.accepted",
		Meta:        map[string]any{"email": inv.Email},
	})
	return member, nil
}
