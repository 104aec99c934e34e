package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shipgate/engine/internal/api/middleware"
	"github.com/shipgate/engine/internal/api/types"
	"github.com/shipgate/engine/internal/services"
	appErr "github.com/shipgate/engine/pkg/errors"
)

type WorkspacesHandler struct {
	workspaces services.WorkspaceService
}

func NewWorkspacesHandler(workspaces services.WorkspaceService) *WorkspacesHandler {
	return &WorkspacesHandler{workspaces: workspaces}
}

// Invite issues a single-use invitation token and queues the invitation
// email.
func (h *WorkspacesHandler) Invite(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req types.InviteRequest
	if err := decodeValid(r, &req); err != nil {
		writeError(w, err)
		return
	}
	inv, err := h.workspaces.Invite(r.Context(), actorFrom(r), id, req.Email, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.APIResponse{Success: true, Data: inv})
}

// AcceptInvitation joins the authenticated user to the inviting workspace.
// A token accepts exactly once.
func (h *WorkspacesHandler) AcceptInvitation(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		writeError(w, appErr.New(appErr.CodeInvalid, "token is required"))
		return
	}
	userID := middleware.GetActorID(r.Context())
	if userID == uuid.Nil {
		writeError(w, appErr.New(appErr.CodeUnauthorized, "authentication required"))
		return
	}
	member, err := h.workspaces.AcceptInvitation(r.Context(), token, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: member})
}
