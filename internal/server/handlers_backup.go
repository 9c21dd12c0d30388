package server

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/claude/repregret/internal/backup"
	"github.com/claude/repregret/internal/progress"
)

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	env, err := backup.Export(r.Context(), s.db)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="rep-regret-backup.json"`)
	s.writeJSON(w, http.StatusOK, env)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if err := backup.Import(r.Context(), s.db, r.Body); err != nil {
		s.writeError(w, err)
		return
	}
	counts, err := s.db.GetCounts(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, counts)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	out, err := backup.ExportCSV(r.Context(), s.db)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="rep-regret-sets.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(out)); err != nil {
		s.log.Error("writing csv response", "error", err)
	}
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	exerciseID, err := uuid.Parse(q.Get("exercise"))
	if err != nil {
		s.writeBadRequest(w, "invalid or missing exercise id")
		return
	}
	metric, err := progress.ParseMetric(q.Get("metric"))
	if err != nil {
		s.writeBadRequest(w, err.Error())
		return
	}
	rng, err := progress.ParseRange(q.Get("range"))
	if err != nil {
		s.writeBadRequest(w, err.Error())
		return
	}

	opts := progress.Options{
		Metric: metric,
		Range:  rng,
		Smooth: s.settings.Get().SmoothingDefault,
	}
	if v := q.Get("excludeWarmup"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.writeBadRequest(w, "invalid excludeWarmup")
			return
		}
		opts.ExcludeWarmup = b
	}
	if v := q.Get("smooth"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.writeBadRequest(w, "invalid smooth")
			return
		}
		opts.Smooth = b
	}

	series, err := s.agg.Series(r.Context(), exerciseID, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if series.Points == nil {
		series.Points = []progress.Point{}
	}
	s.writeJSON(w, http.StatusOK, series)
}
