package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipgate/engine/internal/models"
)

func stagesWith(statuses ...models.StageStatus) []models.Stage {
	out := make([]models.Stage, len(statuses))
	for i, s := range statuses {
		out[i] = models.Stage{Status: s}
	}
	return out
}

func tasksWith(statuses ...models.TaskStatus) []models.Task {
	out := make([]models.Task, len(statuses))
	for i, s := range statuses {
		out[i] = models.Task{Status: s}
	}
	return out
}

func TestReleaseStatusPrecedence(t *testing.T) {
	cases := []struct {
		name   string
		stages []models.Stage
		want   models.StageStatus
	}{
		{"no stages", nil, models.StageNotStarted},
		{"all not started", stagesWith(models.StageNotStarted, models.StageNotStarted), models.StageNotStarted},
		{"one in progress", stagesWith(models.StageNotStarted, models.StageInProgress), models.StageInProgress},
		{"partially done", stagesWith(models.StageDone, models.StageNotStarted), models.StageInProgress},
		{"all done", stagesWith(models.StageDone, models.StageDone, models.StageDone), models.StageDone},
		{"blocked dominates done", stagesWith(models.StageDone, models.StageBlocked, models.StageDone), models.StageBlocked},
		{"blocked dominates everything", stagesWith(models.StageInProgress, models.StageBlocked, models.StageNotStarted), models.StageBlocked},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ReleaseStatus(tc.stages))
		})
	}
}

func TestReleaseProgress(t *testing.T) {
	// zero tasks means zero progress regardless of stage count
	assert.Equal(t, 0, ReleaseProgress(nil))
	assert.Equal(t, 0, ReleaseProgress([]models.Task{}))

	assert.Equal(t, 100, ReleaseProgress(tasksWith(models.TaskDone)))
	assert.Equal(t, 50, ReleaseProgress(tasksWith(models.TaskDone, models.TaskTodo)))
	// 1/3 rounds to 33, 2/3 rounds to 67
	assert.Equal(t, 33, ReleaseProgress(tasksWith(models.TaskDone, models.TaskTodo, models.TaskTodo)))
	assert.Equal(t, 67, ReleaseProgress(tasksWith(models.TaskDone, models.TaskDone, models.TaskTodo)))
	// na and doing both count as not done
	assert.Equal(t, 50, ReleaseProgress(tasksWith(models.TaskDone, models.TaskNA)))
	assert.Equal(t, 50, ReleaseProgress(tasksWith(models.TaskDone, models.TaskDoing)))
}

func TestParseOutcomeFilter(t *testing.T) {
	f, err := ParseOutcomeFilter("")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAll, f)

	f, err = ParseOutcomeFilter("failed")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, f)

	_, err = ParseOutcomeFilter("bogus")
	require.Error(t, err)
}

func TestFilterByOutcome(t *testing.T) {
	ongoing := ReleaseSummary{Status: models.StageInProgress, StageCount: 3}
	finished := ReleaseSummary{Status: models.StageDone, StageCount: 2}
	blocked := ReleaseSummary{Status: models.StageBlocked, StageCount: 2}
	lingering := ReleaseSummary{Status: models.StageInProgress, StageCount: 3, HasActiveBlocker: true}
	// a release with no stages is never finished, even though "all stages
	// done" is vacuously true
	empty := ReleaseSummary{Status: models.StageNotStarted, StageCount: 0}

	all := []ReleaseSummary{ongoing, finished, blocked, lingering, empty}

	assert.Len(t, FilterByOutcome(all, OutcomeAll), 5)
	assert.Len(t, FilterByOutcome(all, ""), 5)

	finishedOnly := FilterByOutcome(all, OutcomeFinished)
	require.Len(t, finishedOnly, 1)
	assert.Equal(t, models.StageDone, finishedOnly[0].Status)

	// failed = blocked stage or any active blocker
	failed := FilterByOutcome(all, OutcomeFailed)
	assert.Len(t, failed, 2)

	assert.Len(t, FilterByOutcome(all, OutcomeOngoing), 2)
}
