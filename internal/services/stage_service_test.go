package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipgate/engine/internal/models"
	appErr "github.com/shipgate/engine/pkg/errors"
)

func (f *fixture) reloadStage(t *testing.T, id uuid.UUID) models.Stage {
	t.Helper()
	var st models.Stage
	require.NoError(t, f.db.Where("id = ?", id).First(&st).Error)
	return st
}

func TestCreateBlockerForcesBlocked(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()
	_, stages := f.newRelease(t, "R1")

	// from not_started
	b, err := f.stages.CreateBlocker(ctx, f.actx, stages[0].ID, &CreateBlockerInput{Reason: "migration failed"})
	require.NoError(t, err)
	assert.True(t, b.Active)
	assert.Equal(t, models.SeverityP2, b.Severity)
	assert.Equal(t, models.StageBlocked, f.reloadStage(t, stages[0].ID).Status)

	// from in_progress
	inProgress := models.StageInProgress
	_, err = f.stages.UpdateStage(ctx, f.actx, stages[1].ID, &UpdateStageInput{Status: &inProgress})
	require.NoError(t, err)
	_, err = f.stages.CreateBlocker(ctx, f.actx, stages[1].ID, &CreateBlockerInput{Reason: "cert expired", Severity: models.SeverityP1})
	require.NoError(t, err)
	assert.Equal(t, models.StageBlocked, f.reloadStage(t, stages[1].ID).Status)
}

func TestCreateBlockerReblocksDoneStage(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()
	_, stages := f.newRelease(t, "R1")

	st, err := f.stages.Approve(ctx, f.actx, stages[0].ID, f.user.ID, "")
	require.NoError(t, err)
	require.Equal(t, models.StageDone, st.Status)

	_, err = f.stages.CreateBlocker(ctx, f.actx, stages[0].ID, &CreateBlockerInput{Reason: "rollback needed"})
	require.NoError(t, err)
	assert.Equal(t, models.StageBlocked, f.reloadStage(t, stages[0].ID).Status)
}

func TestCreateBlockerLeavesDoneStageWhenReblockDisabled(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: false})
	ctx := context.Background()
	_, stages := f.newRelease(t, "R1")

	_, err := f.stages.Approve(ctx, f.actx, stages[0].ID, f.user.ID, "")
	require.NoError(t, err)

	b, err := f.stages.CreateBlocker(ctx, f.actx, stages[0].ID, &CreateBlockerInput{Reason: "late incident"})
	require.NoError(t, err)
	// blocker recorded, stage untouched
	assert.True(t, b.Active)
	assert.Equal(t, models.StageDone, f.reloadStage(t, stages[0].ID).Status)
}

func TestResolveLastBlockerUnblocks(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()
	_, stages := f.newRelease(t, "R1")
	stageID := stages[0].ID

	b1, err := f.stages.CreateBlocker(ctx, f.actx, stageID, &CreateBlockerInput{Reason: "first"})
	require.NoError(t, err)
	b2, err := f.stages.CreateBlocker(ctx, f.actx, stageID, &CreateBlockerInput{Reason: "second"})
	require.NoError(t, err)

	inactive := false

	// resolving one of two leaves the stage blocked
	_, err = f.stages.UpdateBlocker(ctx, f.actx, b1.ID, &UpdateBlockerInput{Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, models.StageBlocked, f.reloadStage(t, stageID).Status)

	// resolving the last one returns the stage to in_progress
	_, err = f.stages.UpdateBlocker(ctx, f.actx, b2.ID, &UpdateBlockerInput{Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, models.StageInProgress, f.reloadStage(t, stageID).Status)
}

func TestReactivateBlockerBlocksAgain(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()
	_, stages := f.newRelease(t, "R1")
	stageID := stages[0].ID

	b, err := f.stages.CreateBlocker(ctx, f.actx, stageID, &CreateBlockerInput{Reason: "flaky infra"})
	require.NoError(t, err)

	inactive, active := false, true
	_, err = f.stages.UpdateBlocker(ctx, f.actx, b.ID, &UpdateBlockerInput{Active: &inactive})
	require.NoError(t, err)
	require.Equal(t, models.StageInProgress, f.reloadStage(t, stageID).Status)

	_, err = f.stages.UpdateBlocker(ctx, f.actx, b.ID, &UpdateBlockerInput{Active: &active})
	require.NoError(t, err)
	assert.Equal(t, models.StageBlocked, f.reloadStage(t, stageID).Status)
}

func TestApproveGate(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()
	_, stages := f.newRelease(t, "R1")
	stageID := stages[0].ID

	required, err := f.stages.CreateTask(ctx, f.actx, stageID, &CreateTaskInput{Title: "Run migration"})
	require.NoError(t, err)
	require.True(t, required.Required)

	optional := false
	_, err = f.stages.CreateTask(ctx, f.actx, stageID, &CreateTaskInput{Title: "Smoke test", Required: &optional})
	require.NoError(t, err)

	// rejection names the incomplete required tasks and leaves the stage alone
	_, err = f.stages.Approve(ctx, f.actx, stageID, f.user.ID, "")
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeApprovalRejected))
	meta := appErr.MetaOf(err)
	require.NotNil(t, meta)
	assert.Contains(t, meta["incomplete_tasks"], "Run migration")
	assert.Equal(t, models.StageNotStarted, f.reloadStage(t, stageID).Status)

	// na satisfies the gate just like done
	na := models.TaskNA
	_, err = f.stages.UpdateTask(ctx, f.actx, required.ID, &UpdateTaskInput{Status: &na})
	require.NoError(t, err)

	st, err := f.stages.Approve(ctx, f.actx, stageID, f.user.ID, "ship it")
	require.NoError(t, err)
	assert.Equal(t, models.StageDone, st.Status)
	require.NotNil(t, st.Approver)
	assert.Equal(t, f.user.ID, *st.Approver)
	assert.NotNil(t, st.EndedAt)
}

func TestUpdateStageRejectsDirectDone(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()
	_, stages := f.newRelease(t, "R1")

	done := models.StageDone
	_, err := f.stages.UpdateStage(ctx, f.actx, stages[0].ID, &UpdateStageInput{Status: &done})
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}

func TestUpdateStageStampsStartedAt(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()
	_, stages := f.newRelease(t, "R1")

	inProgress := models.StageInProgress
	st, err := f.stages.UpdateStage(ctx, f.actx, stages[0].ID, &UpdateStageInput{Status: &inProgress})
	require.NoError(t, err)
	assert.NotNil(t, st.StartedAt)
}

func TestAddEnvironmentStageReusesDuplicateName(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()
	rel, stages := f.newRelease(t, "R1")
	require.Len(t, stages, 3)

	// a second "Staging" for the team conflicts outright
	_, err := f.teams.CreateEnvironment(ctx, f.actx, f.team.ID, &CreateEnvironmentInput{Name: "Staging"})
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeConflict))

	// adding a stage by duplicate name silently reuses the environment; the
	// conflict here is the stage itself, since Staging already has one
	_, err = f.stages.AddEnvironmentStage(ctx, f.actx, rel.ID, &AddStageInput{EnvironmentName: "Staging"})
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeConflict))

	// a fresh environment name creates the environment and exactly one stage
	st, err := f.stages.AddEnvironmentStage(ctx, f.actx, rel.ID, &AddStageInput{EnvironmentName: "Canary", Color: "#22c55e"})
	require.NoError(t, err)
	assert.Equal(t, models.StageNotStarted, st.Status)

	// a second add by the same name reuses, then conflicts on the stage
	_, err = f.stages.AddEnvironmentStage(ctx, f.actx, rel.ID, &AddStageInput{EnvironmentName: "Canary"})
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeConflict))

	var envCount int64
	require.NoError(t, f.db.Model(&models.Environment{}).
		Where("team_id = ? AND name = ?", f.team.ID, "Canary").Count(&envCount).Error)
	assert.EqualValues(t, 1, envCount)

	all, err := f.stageRepo.ListByRelease(ctx, rel.ID)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestStageForeignTeamForbidden(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()
	_, stages := f.newRelease(t, "R1")

	outsider := models.User{Email: "other@example.com", PasswordHash: "x", Name: "Other"}
	require.NoError(t, f.db.Create(&outsider).Error)

	_, err := f.stages.GetStage(ctx, ActorContext{ActorID: outsider.ID}, stages[0].ID)
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeForbidden))
}

func TestNotificationsAddressWorkspaceMembers(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()
	_, stages := f.newRelease(t, "R1")

	_, err := f.stages.Approve(ctx, f.actx, stages[0].ID, f.user.ID, "")
	require.NoError(t, err)

	_, err = f.stages.CreateBlocker(ctx, f.actx, stages[1].ID, &CreateBlockerInput{
		Severity: models.SeverityP1,
		Reason:   "regression in canary",
	})
	require.NoError(t, err)

	byEvent := map[string][]string{}
	for _, n := range f.notifier.sent {
		require.NotEmpty(t, n.To, "event %s enqueued without a recipient", n.Event)
		byEvent[n.Event] = append(byEvent[n.Event], n.To)
	}
	assert.Contains(t, byEvent["stage.approved"], f.user.Email)
	assert.Contains(t, byEvent["blocker.created"], f.user.Email)
}
