package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shipgate/engine/internal/api/middleware"
	"github.com/shipgate/engine/internal/api/types"
	"github.com/shipgate/engine/internal/models"
	"github.com/shipgate/engine/internal/services"
	appErr "github.com/shipgate/engine/pkg/errors"
)

type StagesHandler struct {
	stages services.StageService
}

func NewStagesHandler(stages services.StageService) *StagesHandler {
	return &StagesHandler{stages: stages}
}

// Create adds one environment's stage to an existing release. The request
// may name the environment instead of identifying it; a duplicate name
// reuses the team's existing environment.
func (h *StagesHandler) Create(w http.ResponseWriter, r *http.Request) {
	releaseID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req types.StageCreateRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	input := services.AddStageInput{EnvironmentName: req.EnvironmentName, Color: req.Color}
	if req.EnvironmentID != "" {
		envID, err := uuid.Parse(req.EnvironmentID)
		if err != nil {
			writeInvalid(w, "invalid environment_id")
			return
		}
		input.EnvironmentID = &envID
	}
	stage, err := h.stages.AddEnvironmentStage(r.Context(), actorFrom(r), releaseID, &input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: stage})
}

func (h *StagesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	detail, err := h.stages.GetStage(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: detail})
}

func (h *StagesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req types.StageUpdateRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	updates := services.UpdateStageInput{}
	if req.Status != nil {
		st := models.StageStatus(*req.Status)
		updates.Status = &st
	}
	if updates.StartedAt, err = parseTimePtr(req.StartedAt); err != nil {
		writeInvalid(w, "invalid started_at")
		return
	}
	if updates.EndedAt, err = parseTimePtr(req.EndedAt); err != nil {
		writeInvalid(w, "invalid ended_at")
		return
	}
	stage, err := h.stages.UpdateStage(r.Context(), actorFrom(r), id, &updates)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: stage})
}

// Approve is the only route into status "done". A rejection carries the
// incomplete required task titles in the error metadata.
func (h *StagesHandler) Approve(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req types.StageApproveRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	approver := middleware.GetActorID(r.Context())
	if approver == uuid.Nil {
		writeError(w, appErr.New(appErr.CodeUnauthorized, "approver identity required"))
		return
	}
	stage, err := h.stages.Approve(r.Context(), actorFrom(r), id, approver, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: stage})
}

func parseTimePtr(raw *string) (*time.Time, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
