// Package http serves the single-page evaluation viewer, its form actions and the
// JSON API.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"cdim-evaluator/internal/app"
	"cdim-evaluator/internal/observability"
	"cdim-evaluator/internal/observability/logging"
)

// Server holds the handlers' dependencies.
type Server struct {
	app    *app.Application
	hub    *Hub
	logger zerolog.Logger
}

// NewRouter constructs the HTTP router for the viewer. When hub is non-nil it is
// subscribed to session changes and served on /ws.
func NewRouter(application *app.Application, hub *Hub) http.Handler {
	s := &Server{
		app:    application,
		hub:    hub,
		logger: logging.WithComponent("http"),
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestMetrics(application.Metrics))
	r.Use(middleware.Recoverer)

	r.Handle("/static/*", http.FileServer(http.FS(embeddedFiles)))

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if !application.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// Page and form actions; every POST answers 303 See Other back to the page.
	r.Get("/", s.handleIndex)
	r.Post("/upload", s.handleUpload)
	r.Post("/upload/reset", s.handleResetUpload)
	r.Post("/theme/toggle", s.handleToggleTheme)
	r.Route("/evaluation", func(r chi.Router) {
		r.Post("/discard", s.handleDiscard)
		r.Post("/{session}/cards/{card}/flip", s.handleFlip)
		r.Post("/{session}/cards/{card}/{side}/{index}/expand", s.handleExpand)
		r.Post("/{session}/panels/{panel}/toggle", s.handleTogglePanel)
	})

	// API routes
	r.Route("/v1", func(r chi.Router) {
		r.Get("/evaluation", s.handleGetEvaluation)
		r.Post("/evaluations", s.handleCreateEvaluation)
		r.Post("/evaluations/validate", s.handleValidate)
		r.Get("/schemas/{revision}", s.handleGetSchema)
	})

	if hub != nil {
		application.Subscribe(hub.Notify)
		r.Get("/ws", hub.ServeHTTP)
	}

	return r
}

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
