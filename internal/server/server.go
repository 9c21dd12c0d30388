package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/claude/repregret/internal/progress"
	"github.com/claude/repregret/internal/session"
	"github.com/claude/repregret/internal/settings"
	"github.com/claude/repregret/internal/storage"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	db       *storage.DB
	engine   *session.Engine
	agg      *progress.Aggregator
	settings *settings.Store
	log      *slog.Logger
	router   chi.Router
}

// New creates a new Server with all routes configured.
func New(db *storage.DB, engine *session.Engine, agg *progress.Aggregator, prefs *settings.Store, log *slog.Logger) *Server {
	s := &Server{
		db:       db,
		engine:   engine,
		agg:      agg,
		settings: prefs,
		log:      log,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		// Planner
		r.Get("/templates", s.handleListTemplates)
		r.Post("/templates", s.handleCreateTemplate)
		r.Put("/templates/{id}", s.handleUpdateTemplate)
		r.Delete("/templates/{id}", s.handleDeleteTemplate)

		r.Get("/exercises", s.handleListExercises)
		r.Post("/exercises", s.handleCreateExercise)
		r.Put("/exercises/{id}", s.handleUpdateExercise)
		r.Delete("/exercises/{id}", s.handleDeleteExercise)
		r.Post("/exercises/{id}/move", s.handleMoveExercise)

		// Sessions
		r.Get("/sessions", s.handleListSessions)
		r.Get("/sessions/active", s.handleActiveSession)
		r.Post("/sessions", s.handleStartSession)
		r.Get("/sessions/{id}", s.handleGetSession)
		r.Delete("/sessions/{id}", s.handleAbandonSession)
		r.Get("/sessions/{id}/working-sets", s.handleWorkingSets)
		r.Patch("/sessions/{id}/working-sets/{setID}", s.handleUpdateWorkingSet)
		r.Post("/sessions/{id}/working-sets/{setID}/complete", s.handleCompleteSet)
		r.Post("/sessions/{id}/exercises/{exerciseID}/sets", s.handleAddSet)
		r.Post("/sessions/{id}/exercises/{exerciseID}/use-last", s.handleUseLast)
		r.Post("/sessions/{id}/finish", s.handleFinishSession)

		// History & analytics
		r.Get("/sets", s.handleListSets)
		r.Get("/progress", s.handleProgress)

		// Backup & reporting
		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
		r.Get("/export.csv", s.handleExportCSV)
		r.Get("/stats", s.handleStats)

		// Preferences
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handlePutSettings)
	})
}

// MountMCP attaches the MCP transport handler under /mcp.
func (s *Server) MountMCP(h http.Handler) {
	s.router.Mount("/mcp", h)
}
