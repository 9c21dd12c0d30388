package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/claude/repregret/internal/backup"
	"github.com/claude/repregret/internal/models"
	"github.com/claude/repregret/internal/storage"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("encoding response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, storage.ErrInUse), errors.Is(err, storage.ErrSessionFinished):
		status = http.StatusConflict
	case errors.Is(err, storage.ErrInvalid):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, backup.ErrBadEnvelope):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeBadRequest(w http.ResponseWriter, msg string) {
	s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

func urlUUID(r *http.Request, key string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, key))
}

// Templates

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.db.ListTemplates(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if templates == nil {
		templates = []models.WorkoutTemplate{}
	}
	s.writeJSON(w, http.StatusOK, templates)
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var t models.WorkoutTemplate
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}
	t.ID = uuid.New()
	if err := s.db.InsertTemplate(r.Context(), t); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		s.writeBadRequest(w, "invalid template id")
		return
	}
	var t models.WorkoutTemplate
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}
	t.ID = id
	if err := s.db.UpdateTemplate(r.Context(), t); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		s.writeBadRequest(w, "invalid template id")
		return
	}
	if err := s.db.DeleteTemplate(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Exercises

func (s *Server) handleListExercises(w http.ResponseWriter, r *http.Request) {
	var templateID *uuid.UUID
	if v := r.URL.Query().Get("template"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			s.writeBadRequest(w, "invalid template filter")
			return
		}
		templateID = &id
	}
	exercises, err := s.db.ListExercises(r.Context(), templateID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if exercises == nil {
		exercises = []models.Exercise{}
	}
	s.writeJSON(w, http.StatusOK, exercises)
}

func (s *Server) handleCreateExercise(w http.ResponseWriter, r *http.Request) {
	var e models.Exercise
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}
	e.ID = uuid.New()
	if err := s.db.InsertExercise(r.Context(), e); err != nil {
		s.writeError(w, err)
		return
	}
	// Re-read to pick up the position assigned on insert.
	created, err := s.db.GetExercise(r.Context(), e.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		s.writeBadRequest(w, "invalid exercise id")
		return
	}
	var e models.Exercise
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}
	e.ID = id
	if err := s.db.UpdateExercise(r.Context(), e); err != nil {
		s.writeError(w, err)
		return
	}
	updated, err := s.db.GetExercise(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		s.writeBadRequest(w, "invalid exercise id")
		return
	}
	if err := s.db.DeleteExercise(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMoveExercise(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		s.writeBadRequest(w, "invalid exercise id")
		return
	}
	var req struct {
		Direction int `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}
	if err := s.db.MoveExercise(r.Context(), id, req.Direction); err != nil {
		s.writeError(w, err)
		return
	}
	moved, err := s.db.GetExercise(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, moved)
}

// History

func (s *Server) handleListSets(w http.ResponseWriter, r *http.Request) {
	var filter storage.SetFilter
	if v := r.URL.Query().Get("session"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			s.writeBadRequest(w, "invalid session filter")
			return
		}
		filter.SessionID = &id
	}
	if v := r.URL.Query().Get("exercise"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			s.writeBadRequest(w, "invalid exercise filter")
			return
		}
		filter.ExerciseID = &id
	}
	sets, err := s.db.ListSetLogs(r.Context(), filter)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if sets == nil {
		sets = []models.SetLog{}
	}
	s.writeJSON(w, http.StatusOK, sets)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	counts, err := s.db.GetCounts(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, counts)
}
