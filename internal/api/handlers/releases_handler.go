package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shipgate/engine/internal/api/types"
	"github.com/shipgate/engine/internal/services"
)

type ReleasesHandler struct {
	releases services.ReleaseService
}

func NewReleasesHandler(releases services.ReleaseService) *ReleasesHandler {
	return &ReleasesHandler{releases: releases}
}

// List returns the team's releases decorated with derived status and
// progress, filterable by outcome (?filter=all|ongoing|finished|failed).
func (h *ReleasesHandler) List(w http.ResponseWriter, r *http.Request) {
	teamID, err := queryID(r, "teamId")
	if err != nil {
		writeError(w, err)
		return
	}
	filter, err := services.ParseOutcomeFilter(r.URL.Query().Get("filter"))
	if err != nil {
		writeError(w, err)
		return
	}
	actx := actorFrom(r)
	actx.TeamID = teamID
	items, err := h.releases.ListReleases(r.Context(), actx, teamID, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items, Meta: &types.Meta{Total: int64(len(items))}})
}

func (h *ReleasesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	detail, err := h.releases.GetRelease(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: detail})
}

func (h *ReleasesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req types.ReleaseCreateRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	teamID, _ := uuid.Parse(req.TeamID)
	rel, err := h.releases.CreateRelease(r.Context(), actorFrom(r), &services.CreateReleaseInput{
		TeamID:       teamID,
		Name:         req.Name,
		Version:      req.Version,
		ChangeWindow: req.ChangeWindow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: rel})
}

func (h *ReleasesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req types.ReleaseUpdateRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	rel, err := h.releases.UpdateRelease(r.Context(), actorFrom(r), id, &services.UpdateReleaseInput{
		Name:         req.Name,
		Version:      req.Version,
		ChangeWindow: req.ChangeWindow,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: rel})
}

func (h *ReleasesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.releases.DeleteRelease(r.Context(), actorFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
