package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimid "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/shipgate/engine/internal/api/handlers"
	mw "github.com/shipgate/engine/internal/api/middleware"
)

type Dependencies struct {
	HMACSecret        []byte
	AuthHandler       *handlers.AuthHandler
	TeamsHandler      *handlers.TeamsHandler
	ReleasesHandler   *handlers.ReleasesHandler
	StagesHandler     *handlers.StagesHandler
	TasksHandler      *handlers.TasksHandler
	BlockersHandler   *handlers.BlockersHandler
	DiagramsHandler   *handlers.DiagramsHandler
	ActivityHandler   *handlers.ActivityHandler
	WorkspacesHandler *handlers.WorkspacesHandler
}

func NewRouter(dep Dependencies) http.Handler {
	r := chi.NewRouter()

	// Built-in middleware
	r.Use(mw.RequestID)
	r.Use(mw.Recovery)
	r.Use(mw.Logging)
	r.Use(mw.CORS)
	r.Use(mw.RateLimit(10, 20))
	r.Use(chimid.Compress(5))

	// Health endpoints
	hh := handlers.NewHealthHandler()
	r.Get("/healthz", hh.Liveness)
	r.Get("/readyz", hh.Readiness)

	// Swagger documentation
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/docs/doc.json"),
	))

	r.Route("/api/v1", func(api chi.Router) {
		// Auth routes (public)
		api.Route("/auth", func(ar chi.Router) {
			ar.Post("/register", dep.AuthHandler.Register)
			ar.Post("/login", dep.AuthHandler.Login)
		})

		// Protected routes
		api.Group(func(protected chi.Router) {
			protected.Use(mw.Auth(dep.HMACSecret))

			// Teams and their environments
			protected.Route("/teams", func(tr chi.Router) {
				tr.Get("/", dep.TeamsHandler.List)
				tr.Post("/", dep.TeamsHandler.Create)
				tr.Delete("/{id}", dep.TeamsHandler.Delete)
				tr.Get("/{id}/environments", dep.TeamsHandler.ListEnvironments)
				tr.Post("/{id}/environments", dep.TeamsHandler.CreateEnvironment)
				tr.Delete("/{id}/environments/{envId}", dep.TeamsHandler.DeleteEnvironment)
			})

			// Releases: dashboard list, detail, lifecycle, diagram
			protected.Route("/releases", func(rr chi.Router) {
				rr.Get("/", dep.ReleasesHandler.List)
				rr.Post("/", dep.ReleasesHandler.Create)
				rr.Get("/{id}", dep.ReleasesHandler.Get)
				rr.Patch("/{id}", dep.ReleasesHandler.Update)
				rr.Delete("/{id}", dep.ReleasesHandler.Delete)
				rr.Post("/{id}/stages", dep.StagesHandler.Create)
				rr.Get("/{id}/diagram", dep.DiagramsHandler.GetReleaseDiagram)
				rr.Put("/{id}/diagram", dep.DiagramsHandler.SaveReleaseDiagram)
				rr.Get("/{id}/diagram/classified", dep.DiagramsHandler.ClassifyReleaseDiagram)
			})

			// Stages: status, approval gate, checklist, blockers, sub-diagram
			protected.Route("/stages", func(sr chi.Router) {
				sr.Get("/{id}", dep.StagesHandler.Get)
				sr.Patch("/{id}", dep.StagesHandler.Update)
				sr.Post("/{id}/approve", dep.StagesHandler.Approve)
				sr.Post("/{id}/tasks", dep.TasksHandler.Create)
				sr.Post("/{id}/blockers", dep.BlockersHandler.Create)
				sr.Get("/{id}/task-diagram", dep.DiagramsHandler.GetStageTaskDiagram)
				sr.Post("/{id}/task-diagram", dep.DiagramsHandler.SaveStageTaskDiagram)
				sr.Get("/{id}/task-diagram/classified", dep.DiagramsHandler.ClassifyStageTaskDiagram)
			})

			protected.Route("/tasks", func(tr chi.Router) {
				tr.Patch("/{id}", dep.TasksHandler.Update)
				tr.Delete("/{id}", dep.TasksHandler.Delete)
			})

			protected.Route("/blockers", func(br chi.Router) {
				br.Patch("/{id}", dep.BlockersHandler.Update)
				br.Delete("/{id}", dep.BlockersHandler.Delete)
			})

			protected.Get("/activity", dep.ActivityHandler.Feed)

			protected.Post("/workspaces/{id}/invitations", dep.WorkspacesHandler.Invite)
			protected.Post("/invitations/{token}/accept", dep.WorkspacesHandler.AcceptInvitation)
		})
	})

	return r
}
