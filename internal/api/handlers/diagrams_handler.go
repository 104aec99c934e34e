package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/shipgate/engine/internal/api/types"
	"github.com/shipgate/engine/internal/services"
	appErr "github.com/shipgate/engine/pkg/errors"
)

type DiagramsHandler struct {
	diagrams services.DiagramService
}

func NewDiagramsHandler(diagrams services.DiagramService) *DiagramsHandler {
	return &DiagramsHandler{diagrams: diagrams}
}

// GetReleaseDiagram returns the saved layout, or an empty layout when none
// has been saved yet.
func (h *DiagramsHandler) GetReleaseDiagram(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	layout, err := h.diagrams.GetReleaseLayout(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: layout})
}

// SaveReleaseDiagram replaces the whole layout document; last writer wins.
func (h *DiagramsHandler) SaveReleaseDiagram(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	layout, err := decodeLayoutBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	saved, err := h.diagrams.SaveReleaseLayout(r.Context(), actorFrom(r), id, layout)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: saved})
}

// ClassifyReleaseDiagram splits the saved layout's nodes into entity-backed
// (id resolves to a live stage) and free nodes.
func (h *DiagramsHandler) ClassifyReleaseDiagram(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	classified, err := h.diagrams.ClassifyReleaseLayout(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: classified})
}

func (h *DiagramsHandler) GetStageTaskDiagram(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	layout, err := h.diagrams.GetStageTaskLayout(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: layout})
}

func (h *DiagramsHandler) SaveStageTaskDiagram(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	layout, err := decodeLayoutBody(r)
	if err != nil {
		writeError(w, err)
		return
	}
	saved, err := h.diagrams.SaveStageTaskLayout(r.Context(), actorFrom(r), id, layout)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: saved})
}

// ClassifyStageTaskDiagram splits the stage's saved task layout into
// entity-backed (id resolves to a live task) and free nodes.
func (h *DiagramsHandler) ClassifyStageTaskDiagram(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	classified, err := h.diagrams.ClassifyStageTaskLayout(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: classified})
}

func decodeLayoutBody(r *http.Request) (*services.Layout, error) {
	var layout services.Layout
	if err := json.NewDecoder(r.Body).Decode(&layout); err != nil {
		return nil, appErr.New(appErr.CodeInvalid, "invalid layout json")
	}
	for _, n := range layout.Nodes {
		if n.ID == "" {
			return nil, appErr.New(appErr.CodeInvalid, "layout node without id")
		}
	}
	for _, e := range layout.Edges {
		if e.From == "" || e.To == "" {
			return nil, appErr.New(appErr.CodeInvalid, "layout edge without endpoints")
		}
	}
	return &layout, nil
}
