package handlers

import (
	"net/http"

	"github.com/shipgate/engine/internal/api/types"
	"github.com/shipgate/engine/internal/models"
	"github.com/shipgate/engine/internal/services"
)

type BlockersHandler struct {
	stages services.StageService
}

func NewBlockersHandler(stages services.StageService) *BlockersHandler {
	return &BlockersHandler{stages: stages}
}

func (h *BlockersHandler) Create(w http.ResponseWriter, r *http.Request) {
	stageID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req types.BlockerCreateRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	input := services.CreateBlockerInput{
		Severity: models.BlockerSeverity(req.Severity),
		Reason:   req.Reason,
		Owner:    req.Owner,
	}
	eta := req.ETA
	if input.ETA, err = parseTimePtr(&eta); err != nil {
		writeInvalid(w, "invalid eta")
		return
	}
	blocker, err := h.stages.CreateBlocker(r.Context(), actorFrom(r), stageID, &input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: blocker})
}

func (h *BlockersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req types.BlockerUpdateRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	updates := services.UpdateBlockerInput{
		Reason: req.Reason,
		Owner:  req.Owner,
		Active: req.Active,
	}
	if req.Severity != nil {
		sev := models.BlockerSeverity(*req.Severity)
		updates.Severity = &sev
	}
	if updates.ETA, err = parseTimePtr(req.ETA); err != nil {
		writeInvalid(w, "invalid eta")
		return
	}
	blocker, err := h.stages.UpdateBlocker(r.Context(), actorFrom(r), id, &updates)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: blocker})
}

func (h *BlockersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.stages.DeleteBlocker(r.Context(), actorFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
