package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipgate/engine/internal/models"
	"github.com/shipgate/engine/internal/repository"
	appErr "github.com/shipgate/engine/pkg/errors"
)

func TestActivityFeedRequiresFilter(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()

	_, err := f.activity.Query(ctx, f.actx, repository.ActivityFilters{})
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}

func TestActivityFeedScopedToOwner(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()
	rel, stages := f.newRelease(t, "R1")

	_, err := f.stages.CreateTask(ctx, f.actx, stages[0].ID, &CreateTaskInput{Title: "verify"})
	require.NoError(t, err)

	logs, err := f.activity.Query(ctx, f.actx, repository.ActivityFilters{ReleaseID: rel.ID})
	require.NoError(t, err)
	require.NotEmpty(t, logs)

	logs, err = f.activity.Query(ctx, f.actx, repository.ActivityFilters{WorkspaceID: f.workspace.ID})
	require.NoError(t, err)
	require.NotEmpty(t, logs)
}

func TestActivityFeedForbiddenForOutsider(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()
	rel, stages := f.newRelease(t, "R1")

	outsider := models.User{Email: "other@example.com", PasswordHash: "x", Name: "Other"}
	require.NoError(t, f.db.Create(&outsider).Error)
	octx := ActorContext{ActorID: outsider.ID}

	_, err := f.activity.Query(ctx, octx, repository.ActivityFilters{ReleaseID: rel.ID})
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeForbidden))

	_, err = f.activity.Query(ctx, octx, repository.ActivityFilters{StageID: stages[0].ID})
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeForbidden))

	_, err = f.activity.Query(ctx, octx, repository.ActivityFilters{WorkspaceID: f.workspace.ID})
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeForbidden))
}
