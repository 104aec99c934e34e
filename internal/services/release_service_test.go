package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipgate/engine/internal/models"
	appErr "github.com/shipgate/engine/pkg/errors"
)

func TestCreateReleaseFansOutStages(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()

	rel, stages := f.newRelease(t, "2026.09")
	assert.Equal(t, f.team.ID, rel.TeamID)
	for _, st := range stages {
		assert.Equal(t, models.StageNotStarted, st.Status)
	}

	// stages come back in pipeline order
	envByID := map[string]models.Environment{}
	for _, e := range f.envs {
		envByID[e.ID.String()] = e
	}
	assert.Equal(t, "Staging", envByID[stages[0].EnvironmentID.String()].Name)
	assert.Equal(t, "UAT", envByID[stages[1].EnvironmentID.String()].Name)
	assert.Equal(t, "Production", envByID[stages[2].EnvironmentID.String()].Name)

	// environments added later never retrofit stages onto existing releases
	_, err := f.teams.CreateEnvironment(ctx, f.actx, f.team.ID, &CreateEnvironmentInput{Name: "DR", SortOrder: 4})
	require.NoError(t, err)
	after, err := f.stageRepo.ListByRelease(ctx, rel.ID)
	require.NoError(t, err)
	assert.Len(t, after, 3)
}

// Completing every task does not advance any stage: progress reaches 100%
// while the release status stays not_started until a stage is explicitly
// moved or approved.
func TestTaskCompletionDoesNotAdvanceStatus(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()
	rel, stages := f.newRelease(t, "R1")

	task, err := f.stages.CreateTask(ctx, f.actx, stages[0].ID, &CreateTaskInput{Title: "Run migration"})
	require.NoError(t, err)

	detail, err := f.releases.GetRelease(ctx, f.actx, rel.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, detail.Progress)
	assert.Equal(t, models.StageNotStarted, detail.Status)

	done := models.TaskDone
	_, err = f.stages.UpdateTask(ctx, f.actx, task.ID, &UpdateTaskInput{Status: &done})
	require.NoError(t, err)

	detail, err = f.releases.GetRelease(ctx, f.actx, rel.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, detail.Progress)
	assert.Equal(t, models.StageNotStarted, detail.Status)
}

func TestListReleasesOutcomeFilter(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()

	_, _ = f.newRelease(t, "healthy")
	_, blockedStages := f.newRelease(t, "troubled")
	_, err := f.stages.CreateBlocker(ctx, f.actx, blockedStages[0].ID, &CreateBlockerInput{Reason: "incident"})
	require.NoError(t, err)

	all, err := f.releases.ListReleases(ctx, f.actx, f.team.ID, OutcomeAll)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	failed, err := f.releases.ListReleases(ctx, f.actx, f.team.ID, OutcomeFailed)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "troubled", failed[0].Name)
	assert.Equal(t, models.StageBlocked, failed[0].Status)
	assert.True(t, failed[0].HasActiveBlocker)

	ongoing, err := f.releases.ListReleases(ctx, f.actx, f.team.ID, OutcomeOngoing)
	require.NoError(t, err)
	require.Len(t, ongoing, 1)
	assert.Equal(t, "healthy", ongoing[0].Name)
}

func TestDeleteTeamCascades(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()
	rel, stages := f.newRelease(t, "R1")

	_, err := f.stages.CreateTask(ctx, f.actx, stages[0].ID, &CreateTaskInput{Title: "t"})
	require.NoError(t, err)
	_, err = f.stages.CreateBlocker(ctx, f.actx, stages[0].ID, &CreateBlockerInput{Reason: "b"})
	require.NoError(t, err)
	_, err = f.diagrams.SaveReleaseLayout(ctx, f.actx, rel.ID, &Layout{
		Nodes: []Node{{ID: stages[0].ID.String(), Position: Position{X: 1, Y: 2}}},
	})
	require.NoError(t, err)
	_, err = f.diagrams.SaveStageTaskLayout(ctx, f.actx, stages[0].ID, &Layout{})
	require.NoError(t, err)

	require.NoError(t, f.teams.DeleteTeam(ctx, f.actx, f.team.ID))

	for name, model := range map[string]any{
		"environments":  &models.Environment{},
		"releases":      &models.Release{},
		"stages":        &models.Stage{},
		"tasks":         &models.Task{},
		"blockers":      &models.Blocker{},
		"diagrams":      &models.Diagram{},
		"task_diagrams": &models.TaskDiagram{},
	} {
		var n int64
		require.NoError(t, f.db.Model(model).Count(&n).Error)
		assert.Zerof(t, n, "expected no %s rows after team delete", name)
	}
}

func TestDeleteReleaseCascadesAndKeepsActivity(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()
	rel, stages := f.newRelease(t, "R1")

	_, err := f.stages.CreateTask(ctx, f.actx, stages[0].ID, &CreateTaskInput{Title: "t"})
	require.NoError(t, err)

	require.NoError(t, f.releases.DeleteRelease(ctx, f.actx, rel.ID))

	var n int64
	require.NoError(t, f.db.Model(&models.Stage{}).Count(&n).Error)
	assert.Zero(t, n)

	// the audit trail outlives its subject with a nulled reference
	var logs []models.ActivityLog
	require.NoError(t, f.db.Where("action = ?", "task.created").Find(&logs).Error)
	require.Len(t, logs, 1)
	assert.Nil(t, logs[0].ReleaseID)
}

func TestGetReleaseForbiddenForOutsider(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()
	rel, _ := f.newRelease(t, "R1")

	outsider := models.User{Email: "other@example.com", PasswordHash: "x", Name: "Other"}
	require.NoError(t, f.db.Create(&outsider).Error)

	_, err := f.releases.GetRelease(ctx, ActorContext{ActorID: outsider.ID}, rel.ID)
	require.Error(t, err)
	assert.True(t, appErr.IsCode(err, appErr.CodeForbidden))
}
