package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shipgate/engine/internal/api/types"
	"github.com/shipgate/engine/internal/repository"
	"github.com/shipgate/engine/internal/services"
)

type ActivityHandler struct {
	activity services.ActivityService
}

func NewActivityHandler(activity services.ActivityService) *ActivityHandler {
	return &ActivityHandler{activity: activity}
}

// Feed returns the most recent activity, newest first, capped at 100 rows.
// At least one of ?workspaceId, ?releaseId or ?stageId is required; the
// caller must own the filtered resource.
func (h *ActivityHandler) Feed(w http.ResponseWriter, r *http.Request) {
	var filters repository.ActivityFilters
	q := r.URL.Query()
	for name, dst := range map[string]*uuid.UUID{
		"workspaceId": &filters.WorkspaceID,
		"releaseId":   &filters.ReleaseID,
		"stageId":     &filters.StageID,
	} {
		if raw := q.Get(name); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				writeInvalid(w, "invalid "+name)
				return
			}
			*dst = id
		}
	}
	items, err := h.activity.Query(r.Context(), actorFrom(r), filters)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.APIResponse{Success: true, Data: items, Meta: &types.Meta{Total: int64(len(items))}})
}
