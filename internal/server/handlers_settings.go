package server

import (
	"encoding/json"
	"net/http"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.settings.Get())
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	// Start from the current values so a partial body only changes the
	// fields it names.
	next := s.settings.Get()
	if err := json.NewDecoder(r.Body).Decode(&next); err != nil {
		s.writeBadRequest(w, "invalid request body")
		return
	}
	if !validTheme(next.Theme) {
		s.writeBadRequest(w, "theme must be one of system, light, dark")
		return
	}
	if next.RestTimerSec < 0 {
		s.writeBadRequest(w, "restTimerSec must not be negative")
		return
	}
	if err := s.settings.Save(next); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, next)
}

func validTheme(t string) bool {
	switch t {
	case "system", "light", "dark":
		return true
	}
	return false
}
