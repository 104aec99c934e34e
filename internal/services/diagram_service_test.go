package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shipgate/engine/internal/models"
)

func TestReleaseLayoutRoundTrip(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()
	rel, stages := f.newRelease(t, "R1")

	layout := Layout{
		Nodes: []Node{
			{ID: stages[0].ID.String(), Label: "Staging", Position: Position{X: 120.25, Y: -33.333333}},
			{ID: "note-1", Label: "freeze window", Position: Position{X: 0.0001, Y: 987654.321}, Data: map[string]any{"color": "yellow"}},
		},
		Edges: []Edge{
			{ID: "e1", From: stages[0].ID.String(), To: "note-1"},
		},
	}

	saved, err := f.diagrams.SaveReleaseLayout(ctx, f.actx, rel.ID, &layout)
	require.NoError(t, err)

	got, err := f.diagrams.GetReleaseLayout(ctx, f.actx, rel.ID)
	require.NoError(t, err)
	// exact positions survive, no rounding or snapping
	assert.Equal(t, saved, got)
	require.Len(t, got.Nodes, 2)
	assert.Equal(t, 120.25, got.Nodes[0].Position.X)
	assert.Equal(t, -33.333333, got.Nodes[0].Position.Y)
	assert.Equal(t, 987654.321, got.Nodes[1].Position.Y)
	assert.Equal(t, "yellow", got.Nodes[1].Data["color"])
}

func TestGetLayoutBeforeAnySave(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()
	rel, stages := f.newRelease(t, "R1")

	got, err := f.diagrams.GetReleaseLayout(ctx, f.actx, rel.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Nodes)
	assert.Empty(t, got.Edges)
	assert.NotNil(t, got.Nodes)
	assert.NotNil(t, got.Edges)

	got, err = f.diagrams.GetStageTaskLayout(ctx, f.actx, stages[0].ID)
	require.NoError(t, err)
	assert.Empty(t, got.Nodes)
}

func TestSaveReplacesWholeDocument(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()
	rel, _ := f.newRelease(t, "R1")

	_, err := f.diagrams.SaveReleaseLayout(ctx, f.actx, rel.ID, &Layout{
		Nodes: []Node{{ID: "a"}, {ID: "b"}},
		Edges: []Edge{{ID: "e", From: "a", To: "b"}},
	})
	require.NoError(t, err)

	// second save is an overwrite, not a merge, and keeps a single row
	got, err := f.diagrams.SaveReleaseLayout(ctx, f.actx, rel.ID, &Layout{Nodes: []Node{{ID: "c"}}})
	require.NoError(t, err)
	require.Len(t, got.Nodes, 1)
	assert.Equal(t, "c", got.Nodes[0].ID)
	assert.Empty(t, got.Edges)

	var n int64
	require.NoError(t, f.db.Model(&models.Diagram{}).Where("release_id = ?", rel.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestClassifyReleaseLayout(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()
	rel, stages := f.newRelease(t, "R1")

	_, err := f.diagrams.SaveReleaseLayout(ctx, f.actx, rel.ID, &Layout{
		Nodes: []Node{
			{ID: stages[0].ID.String()},
			{ID: stages[1].ID.String()},
			{ID: "annotation"},
		},
	})
	require.NoError(t, err)

	c, err := f.diagrams.ClassifyReleaseLayout(ctx, f.actx, rel.ID)
	require.NoError(t, err)
	assert.Len(t, c.EntityBacked, 2)
	require.Len(t, c.Free, 1)
	assert.Equal(t, "annotation", c.Free[0].ID)

	// classification tracks the live entity set: delete a stage and its node
	// degrades to a free node on the next read
	require.NoError(t, f.db.Delete(&models.Stage{}, "id = ?", stages[1].ID).Error)
	c, err = f.diagrams.ClassifyReleaseLayout(ctx, f.actx, rel.ID)
	require.NoError(t, err)
	assert.Len(t, c.EntityBacked, 1)
	assert.Len(t, c.Free, 2)
}

func TestStageTaskLayoutRoundTrip(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()
	_, stages := f.newRelease(t, "R1")

	task, err := f.stages.CreateTask(ctx, f.actx, stages[0].ID, &CreateTaskInput{Title: "verify"})
	require.NoError(t, err)

	layout := Layout{Nodes: []Node{{ID: task.ID.String(), Position: Position{X: 7.5, Y: 9.25}}}}
	_, err = f.diagrams.SaveStageTaskLayout(ctx, f.actx, stages[0].ID, &layout)
	require.NoError(t, err)

	got, err := f.diagrams.GetStageTaskLayout(ctx, f.actx, stages[0].ID)
	require.NoError(t, err)
	require.Len(t, got.Nodes, 1)
	assert.Equal(t, 7.5, got.Nodes[0].Position.X)
}

func TestClassifyStageTaskLayout(t *testing.T) {
	f := newFixture(t, StageServiceOptions{ReblockDone: true})
	ctx := context.Background()
	_, stages := f.newRelease(t, "R1")

	task, err := f.stages.CreateTask(ctx, f.actx, stages[0].ID, &CreateTaskInput{Title: "verify"})
	require.NoError(t, err)

	_, err = f.diagrams.SaveStageTaskLayout(ctx, f.actx, stages[0].ID, &Layout{
		Nodes: []Node{
			{ID: task.ID.String()},
			{ID: "checklist-note"},
		},
	})
	require.NoError(t, err)

	c, err := f.diagrams.ClassifyStageTaskLayout(ctx, f.actx, stages[0].ID)
	require.NoError(t, err)
	require.Len(t, c.EntityBacked, 1)
	assert.Equal(t, task.ID.String(), c.EntityBacked[0].ID)
	require.Len(t, c.Free, 1)
	assert.Equal(t, "checklist-note", c.Free[0].ID)

	require.NoError(t, f.stages.DeleteTask(ctx, f.actx, task.ID))
	c, err = f.diagrams.ClassifyStageTaskLayout(ctx, f.actx, stages[0].ID)
	require.NoError(t, err)
	assert.Empty(t, c.EntityBacked)
	assert.Len(t, c.Free, 2)
}
