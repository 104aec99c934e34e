package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipgate/engine/internal/models"
	appErr "github.com/shipgate/engine/pkg/errors"
)

func TestInviteAndAcceptOnce(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()

	inv, err := f.workspaces.Invite(ctx, f.actx, f.workspace.ID, "new@example.com", "")
	require.NoError(t, err)
	assert.NotEmpty(t, inv.Token)
	assert.Equal(t, "member", inv.Role)
	assert.Nil(t, inv.AcceptedAt)

	invitee := models.User{Email: "new@example.com", PasswordHash: "x", Name: "New"}
	require.NoError(t, f.db.Create(&invitee).Error)

	member, err := f.workspaces.AcceptInvitation(ctx, inv.Token, invitee.ID)
	require.NoError(t, err)
	assert.Equal(t, f.workspace.ID, member.WorkspaceID)
	assert.Equal(t, invitee.ID, member.UserID)

	// the invitee can now act within the workspace
	_, err = f.teams.ListTeams(ctx, ActorContext{ActorID: invitee.ID}, f.workspace.ID)
	require.NoError(t, err)

	// a token accepts exactly once
	_, err = f.workspaces.AcceptInvitation(ctx, inv.Token, invitee.ID)
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeConflict))
}

func TestInviteRequiresMembership(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()

	outsider := models.User{Email: "other@example.com", PasswordHash: "x", Name: "Other"}
	require.NoError(t, f.db.Create(&outsider).Error)

	_, err := f.workspaces.Invite(ctx, ActorContext{ActorID: outsider.ID}, f.workspace.ID, "x@example.com", "")
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeForbidden))
}

func TestAcceptUnknownToken(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()

	_, err := f.workspaces.AcceptInvitation(ctx, "no-such-token", f.user.ID)
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeNotFound))
}
