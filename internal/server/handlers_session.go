package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/claude/repregret/internal/models"
	"github.com/claude/repregret/internal/session"
)

type startSessionResponse struct {
	Session     models.Session       `json:"session"`
	WorkingSets []session.WorkingSet `json:"workingSets"`
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	desc := r.URL.Query().Get("order") != "asc"
	sessions, err := s.db.ListSessions(r.Context(), desc)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if sessions == nil {
		sessions = []models.Session{}
	}
	s.writeJSON(w, http.StatusOK, sessions)
}

// handleActiveSession returns the current unfinished session, or JSON null
// when there is none.
func (s *Server) handleActiveSession(w http.ResponseWriter, r *http.Request) {
	active, err := s.db.ActiveSession(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, active)
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		TemplateID uuid.UUID `json:"templateId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}
	sess, sets, err := s.engine.Start(r.Context(), req.TemplateID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, startSessionResponse{Session: sess, WorkingSets: sets})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		s.writeBadRequest(w, "invalid session id")
		return
	}
	sess, err := s.db.GetSession(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleAbandonSession(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		s.writeBadRequest(w, "invalid session id")
		return
	}
	if err := s.engine.Abandon(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleWorkingSets(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		s.writeBadRequest(w, "invalid session id")
		return
	}
	sets, err := s.engine.WorkingSets(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if sets == nil {
		sets = []session.WorkingSet{}
	}
	s.writeJSON(w, http.StatusOK, sets)
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	sessionID, err := urlUUID(r, "id")
	if err != nil {
		s.writeBadRequest(w, "invalid session id")
		return
	}
	exerciseID, err := urlUUID(r, "exerciseID")
	if err != nil {
		s.writeBadRequest(w, "invalid exercise id")
		return
	}
	set, err := s.engine.AddSet(r.Context(), sessionID, exerciseID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, set)
}

func (s *Server) handleUpdateWorkingSet(w http.ResponseWriter, r *http.Request) {
	sessionID, err := urlUUID(r, "id")
	if err != nil {
		s.writeBadRequest(w, "invalid session id")
		return
	}
	setID, err := urlUUID(r, "setID")
	if err != nil {
		s.writeBadRequest(w, "invalid set id")
		return
	}
	var patch session.SetPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}
	set, err := s.engine.UpdateSet(r.Context(), sessionID, setID, patch)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, set)
}

func (s *Server) handleCompleteSet(w http.ResponseWriter, r *http.Request) {
	sessionID, err := urlUUID(r, "id")
	if err != nil {
		s.writeBadRequest(w, "invalid session id")
		return
	}
	setID, err := urlUUID(r, "setID")
	if err != nil {
		s.writeBadRequest(w, "invalid set id")
		return
	}
	completedAt, err := s.engine.CompleteSet(r.Context(), sessionID, setID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]time.Time{"completedAt": completedAt})
}

func (s *Server) handleUseLast(w http.ResponseWriter, r *http.Request) {
	sessionID, err := urlUUID(r, "id")
	if err != nil {
		s.writeBadRequest(w, "invalid session id")
		return
	}
	exerciseID, err := urlUUID(r, "exerciseID")
	if err != nil {
		s.writeBadRequest(w, "invalid exercise id")
		return
	}
	found, err := s.engine.UseLast(r.Context(), sessionID, exerciseID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	sets, err := s.engine.WorkingSets(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"found":       found,
		"workingSets": sets,
	})
}

func (s *Server) handleFinishSession(w http.ResponseWriter, r *http.Request) {
	id, err := urlUUID(r, "id")
	if err != nil {
		s.writeBadRequest(w, "invalid session id")
		return
	}
	var req struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}
	if err := s.engine.Finish(r.Context(), id, req.Notes); err != nil {
		s.writeError(w, err)
		return
	}
	finished, err := s.db.GetSession(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, finished)
}
