package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shipgate/engine/internal/api/middleware"
	"github.com/shipgate/engine/internal/api/types"
	"github.com/shipgate/engine/internal/api/validators"
	"github.com/shipgate/engine/internal/services"
	appErr "github.com/shipgate/engine/pkg/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error's stable code to an HTTP status and renders the
// standard envelope.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, types.HTTPStatus(err), types.APIResponse{Success: false, Error: types.FromAppError(err)})
}

func writeInvalid(w http.ResponseWriter, msg string) {
	writeError(w, appErr.New(appErr.CodeInvalid, msg))
}

// decodeValid decodes the JSON body into dst and runs struct validation.
func decodeValid(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return appErr.New(appErr.CodeInvalid, "invalid json")
	}
	if err := validators.New().Struct(dst); err != nil {
		return appErr.Wrap(err, appErr.CodeInvalid, err.Error())
	}
	return nil
}

// actorFrom builds the per-request actor context. The team scope is uuid.Nil
// unless the endpoint carries an explicit teamId.
func actorFrom(r *http.Request) services.ActorContext {
	return services.ActorContext{ActorID: middleware.GetActorID(r.Context())}
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, appErr.New(appErr.CodeInvalid, "invalid "+name)
	}
	return id, nil
}

func queryID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return uuid.Nil, appErr.New(appErr.CodeInvalid, name+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, appErr.New(appErr.CodeInvalid, "invalid "+name)
	}
	return id, nil
}
