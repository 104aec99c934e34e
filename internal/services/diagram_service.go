package services

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shipgate/engine/internal/models"
	"github.com/shipgate/engine/internal/repository"
	appErr "github.com/shipgate/engine/pkg/errors"
	"gorm.io/datatypes"
)

// Layout is the whole canvas document: positioned nodes and directed edges.
// Saves replace the entire document; the store performs no merging. Callers
// that hold local edits are responsible for writing their own superset of
// entity-backed and free nodes (see pkg/layoutsync).
type Layout struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Node is one canvas box. Whether it is entity-backed or free is never
// stored; it is decided at read time by resolving ID against the live
// stage/task set (see ClassifyNodes).
type Node struct {
	ID       string         `json:"id"`
	Label    string         `json:"label,omitempty"`
	Position Position       `json:"position"`
	Data     map[string]any `json:"data,omitempty"`
}

// Edge is a directed connection between two node ids.
type Edge struct {
	ID   string `json:"id"`
	From string `json:"from"`
	To   string `json:"to"`
}

// Position holds exact canvas coordinates. Values round-trip as provided,
// with no snapping.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// EmptyLayout is what getters return when no layout was ever saved: absence
// is not an error, it means "no custom layout yet".
func EmptyLayout() Layout {
	return Layout{Nodes: []Node{}, Edges: []Edge{}}
}

// Classified splits a layout's nodes by whether their id resolves against a
// set of live entity ids.
type Classified struct {
	EntityBacked []Node
	Free         []Node
}

// ClassifyNodes resolves each node id against liveIDs. A node whose id
// matches a live entity is entity-backed; everything else is a free
// annotation node.
func ClassifyNodes(layout Layout, liveIDs map[string]struct{}) Classified {
	var c Classified
	for _, n := range layout.Nodes {
		if _, ok := liveIDs[n.ID]; ok {
			c.EntityBacked = append(c.EntityBacked, n)
		} else {
			c.Free = append(c.Free, n)
		}
	}
	return c
}

// DiagramService persists one layout per release (environment canvas) and
// one per stage (task sub-canvas), with whole-document replacement
// semantics.
type DiagramService interface {
	GetReleaseLayout(ctx context.Context, actx ActorContext, releaseID uuid.UUID) (*Layout, error)
	SaveReleaseLayout(ctx context.Context, actx ActorContext, releaseID uuid.UUID, layout *Layout) (*Layout, error)
	ClassifyReleaseLayout(ctx context.Context, actx ActorContext, releaseID uuid.UUID) (*Classified, error)
	GetStageTaskLayout(ctx context.Context, actx ActorContext, stageID uuid.UUID) (*Layout, error)
	SaveStageTaskLayout(ctx context.Context, actx ActorContext, stageID uuid.UUID, layout *Layout) (*Layout, error)
	ClassifyStageTaskLayout(ctx context.Context, actx ActorContext, stageID uuid.UUID) (*Classified, error)
}

type diagramService struct {
	guard    Guard
	repo     repository.DiagramRepository
	taskRepo repository.TaskRepository
	activity ActivityService
}

func NewDiagramService(g Guard, repo repository.DiagramRepository, taskRepo repository.TaskRepository, activity ActivityService) DiagramService {
	return &diagramService{guard: g, repo: repo, taskRepo: taskRepo, activity: activity}
}

var _ DiagramService = (*diagramService)(nil)

func (s *diagramService) GetReleaseLayout(ctx context.Context, actx ActorContext, releaseID uuid.UUID) (*Layout, error) {
	if _, err := s.guard.release(ctx, actx, releaseID); err != nil {
		return nil, err
	}
	var d models.Diagram
	if err := s.repo.GetByRelease(ctx, releaseID, &d); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			empty := EmptyLayout()
			return &empty, nil
		}
		return nil, err
	}
	return decodeLayout(d.Layout)
}

func (s *diagramService) SaveReleaseLayout(ctx context.Context, actx ActorContext, releaseID uuid.UUID, layout *Layout) (*Layout, error) {
	rel, err := s.guard.release(ctx, actx, releaseID)
	if err != nil {
		return nil, err
	}
	raw, err := encodeLayout(layout)
	if err != nil {
		return nil, err
	}
	d, err := s.repo.UpsertByRelease(ctx, releaseID, raw)
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, ActivityEntry{
		ReleaseID: &rel.ID,
		Actor:     actx.ActorID.String(),
		Action:    "diagram.saved",
		Meta:      map[string]any{"nodes": len(layout.Nodes), "edges": len(layout.Edges)},
	})
	return decodeLayout(d.Layout)
}

// ClassifyReleaseLayout resolves the saved layout's nodes against the
// release's current stage ids.
func (s *diagramService) ClassifyReleaseLayout(ctx context.Context, actx ActorContext, releaseID uuid.UUID) (*Classified, error) {
	layout, err := s.GetReleaseLayout(ctx, actx, releaseID)
	if err != nil {
		return nil, err
	}
	stages, err := s.guard.stageRepo.ListByRelease(ctx, releaseID)
	if err != nil {
		return nil, err
	}
	live := make(map[string]struct{}, len(stages))
	for _, st := range stages {
		live[st.ID.String()] = struct{}{}
	}
	c := ClassifyNodes(*layout, live)
	return &c, nil
}

// ClassifyStageTaskLayout resolves the saved task layout's nodes against the
// stage's current task ids, mirroring ClassifyReleaseLayout one level down.
func (s *diagramService) ClassifyStageTaskLayout(ctx context.Context, actx ActorContext, stageID uuid.UUID) (*Classified, error) {
	layout, err := s.GetStageTaskLayout(ctx, actx, stageID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.taskRepo.ListByStage(ctx, stageID)
	if err != nil {
		return nil, err
	}
	live := make(map[string]struct{}, len(tasks))
	for _, task := range tasks {
		live[task.ID.String()] = struct{}{}
	}
	c := ClassifyNodes(*layout, live)
	return &c, nil
}

func (s *diagramService) GetStageTaskLayout(ctx context.Context, actx ActorContext, stageID uuid.UUID) (*Layout, error) {
	if _, _, err := s.guard.stage(ctx, actx, stageID); err != nil {
		return nil, err
	}
	var d models.TaskDiagram
	if err := s.repo.GetByStage(ctx, stageID, &d); err != nil {
		if appErr.IsCode(err, appErr.CodeNotFound) {
			empty := EmptyLayout()
			return &empty, nil
		}
		return nil, err
	}
	return decodeLayout(d.Layout)
}

func (s *diagramService) SaveStageTaskLayout(ctx context.Context, actx ActorContext, stageID uuid.UUID, layout *Layout) (*Layout, error) {
	st, rel, err := s.guard.stage(ctx, actx, stageID)
	if err != nil {
		return nil, err
	}
	raw, err := encodeLayout(layout)
	if err != nil {
		return nil, err
	}
	d, err := s.repo.UpsertByStage(ctx, stageID, raw)
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, ActivityEntry{
		ReleaseID: &rel.ID,
		StageID:   &st.ID,
		Actor:     actx.ActorID.String(),
		Action:    "diagram.saved",
		Meta:      map[string]any{"scope": "stage", "nodes": len(layout.Nodes)},
	})
	return decodeLayout(d.Layout)
}

func encodeLayout(layout *Layout) (datatypes.JSON, error) {
	if layout == nil {
		return nil, appErr.New(appErr.CodeInvalid, "layout is required")
	}
	if layout.Nodes == nil {
		layout.Nodes = []Node{}
	}
	if layout.Edges == nil {
		layout.Edges = []Edge{}
	}
	b, err := json.Marshal(layout)
	if err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInvalid, "invalid layout")
	}
	return datatypes.JSON(b), nil
}

func decodeLayout(raw datatypes.JSON) (*Layout, error) {
	if len(raw) == 0 {
		empty := EmptyLayout()
		return &empty, nil
	}
	var l Layout
	if err := json.Unmarshal(raw, &l); err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "corrupt layout document")
	}
	if l.Nodes == nil {
		l.Nodes = []Node{}
	}
	if l.Edges == nil {
		l.Edges = []Edge{}
	}
	return &l, nil
}
