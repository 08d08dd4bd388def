// campusvoice/handlers/router.go
package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const requestTimeout = 60 * time.Second

func SetupRouter(app App) *chi.Mux {
	mux := chi.NewRouter()

	mux.Use(middleware.RequestID)
	trustProxy := app.Config().Server.TrustProxy
	if trustProxy {
		mux.Use(middleware.RealIP)
	}
	mux.Use(NewStructuredLogger(app.Logger()))
	mux.Use(middleware.Recoverer)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Device-ID"},
		MaxAge:         300,
	}))
	mux.Use(middleware.Timeout(requestTimeout))

	mux.Get("/healthz", MakeHandler(app, HandleHealth))

	mux.Group(func(r chi.Router) {
		r.Use(app.Identity().Middleware)

		r.Get("/problems", MakeHandler(app, HandleListProblems))
		r.Post("/problems", MakeHandler(app, HandleCreateProblem))
		r.Delete("/problems", MakeHandler(app, HandleDeleteProblem))
		r.Patch("/problems", MakeHandler(app, HandleSetSolved))
		r.Get("/problems/{problemID}", MakeHandler(app, HandleGetProblem))
		r.Get("/problems/{problemID}/replies", MakeHandler(app, HandleReplyTree))
		r.Get("/categories", MakeHandler(app, HandleCategories))

		r.Post("/replies", MakeHandler(app, HandleCreateReply))
		r.Delete("/replies", MakeHandler(app, HandleDeleteReply))

		r.Post("/vote", MakeHandler(app, HandleVote))
		r.Post("/poll_vote", MakeHandler(app, HandlePollVote))
		r.Post("/sync_votes", MakeHandler(app, HandleSyncVotes))
		r.Post("/sync_poll_votes", MakeHandler(app, HandleSyncPollVotes))

		r.Post("/visitors", MakeHandler(app, HandleVisitors))
		r.Post("/ai/suggest", MakeHandler(app, HandleSuggest))
		r.Post("/identity", MakeHandler(app, HandleIdentity))
	})

	mux.Route("/admin", func(r chi.Router) {
		if app.Config().Server.AdminLANOnly {
			r.Use(RequireLAN(trustProxy))
		}
		r.Post("/backup", MakeHandler(app, HandleDatabaseBackup))
	})

	mux.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"}, app)
	})
	mux.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"}, app)
	})

	return mux
}
