package handlers

import (
	"net/http"

	"github.com/shipgate/engine/internal/api/types"
	"github.com/shipgate/engine/internal/models"
	"github.com/shipgate/engine/internal/services"
)

type TasksHandler struct {
	stages services.StageService
}

func NewTasksHandler(stages services.StageService) *TasksHandler {
	return &TasksHandler{stages: stages}
}

func (h *TasksHandler) Create(w http.ResponseWriter, r *http.Request) {
	stageID, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req types.TaskCreateRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	task, err := h.stages.CreateTask(r.Context(), actorFrom(r), stageID, &services.CreateTaskInput{
		Title:       req.Title,
		Details:     req.Details,
		Owner:       req.Owner,
		Required:    req.Required,
		Status:      models.TaskStatus(req.Status),
		EvidenceURL: req.EvidenceURL,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: task})
}

func (h *TasksHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req types.TaskUpdateRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	updates := services.UpdateTaskInput{
		Title:       req.Title,
		Details:     req.Details,
		Owner:       req.Owner,
		Required:    req.Required,
		EvidenceURL: req.EvidenceURL,
	}
	if req.Status != nil {
		st := models.TaskStatus(*req.Status)
		updates.Status = &st
	}
	task, err := h.stages.UpdateTask(r.Context(), actorFrom(r), id, &updates)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: task})
}

func (h *TasksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.stages.DeleteTask(r.Context(), actorFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
