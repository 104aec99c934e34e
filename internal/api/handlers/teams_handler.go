package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shipgate/engine/internal/api/types"
	"github.com/shipgate/engine/internal/services"
)

type TeamsHandler struct {
	teams services.TeamService
}

func NewTeamsHandler(teams services.TeamService) *TeamsHandler {
	return &TeamsHandler{teams: teams}
}

func (h *TeamsHandler) List(w http.ResponseWriter, r *http.Request) {
	workspaceID, err := queryID(r, "workspaceId")
	if err != nil {
		writeError(w, err)
		return
	}
	items, err := h.teams.ListTeams(r.Context(), actorFrom(r), workspaceID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items, Meta: &types.Meta{Total: int64(len(items))}})
}

func (h *TeamsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.TeamCreateRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	workspaceID, _ := uuid.Parse(req.WorkspaceID)
	team, err := h.teams.CreateTeam(r.Context(), actorFrom(r), workspaceID, req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: team})
}

func (h *TeamsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.teams.DeleteTeam(r.Context(), actorFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TeamsHandler) ListEnvironments(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	items, err := h.teams.ListEnvironments(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items, Meta: &types.Meta{Total: int64(len(items))}})
}

func (h *TeamsHandler) CreateEnvironment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req types.EnvironmentCreateRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	env, err := h.teams.CreateEnvironment(r.Context(), actorFrom(r), id, &services.CreateEnvironmentInput{
		Name:      req.Name,
		Color:     req.Color,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: env})
}

func (h *TeamsHandler) DeleteEnvironment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "envId")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.teams.DeleteEnvironment(r.Context(), actorFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
