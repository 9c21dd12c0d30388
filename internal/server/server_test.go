package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/claude/repregret/internal/backup"
	"github.com/claude/repregret/internal/models"
	"github.com/claude/repregret/internal/progress"
	"github.com/claude/repregret/internal/session"
	"github.com/claude/repregret/internal/settings"
	"github.com/claude/repregret/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	prefs, err := settings.Load(filepath.Join(t.TempDir(), "settings.yaml"))
	if err != nil {
		t.Fatalf("loading settings: %v", err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := session.New(db, log)
	agg := progress.New(db)
	return New(db, engine, agg, prefs, log)
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshaling body: %v", err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

func createTemplate(t *testing.T, srv *Server, name string, day int) models.WorkoutTemplate {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/templates",
		map[string]any{"name": name, "dayOfWeek": day})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create template: status %d: %s", rec.Code, rec.Body)
	}
	return decode[models.WorkoutTemplate](t, rec)
}

func createExercise(t *testing.T, srv *Server, tpl models.WorkoutTemplate, name string, sets int) models.Exercise {
	t.Helper()
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/exercises", map[string]any{
		"templateId": tpl.ID, "name": name,
		"defaultSets": sets, "defaultReps": 5, "defaultWeight": 40,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create exercise: status %d: %s", rec.Code, rec.Body)
	}
	return decode[models.Exercise](t, rec)
}

func TestTemplateEndpoints(t *testing.T) {
	srv := newTestServer(t)

	tpl := createTemplate(t, srv, "Push", 2)
	if tpl.Name != "Push" || tpl.DayOfWeek != 2 {
		t.Fatalf("created = %+v", tpl)
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/templates", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status %d", rec.Code)
	}
	if got := decode[[]models.WorkoutTemplate](t, rec); len(got) != 1 {
		t.Fatalf("list length = %d, want 1", len(got))
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/v1/templates/"+tpl.ID.String(),
		map[string]any{"name": "Push Day", "dayOfWeek": 4})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d: %s", rec.Code, rec.Body)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/templates",
		map[string]any{"name": "", "dayOfWeek": 9})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid create: status %d, want 422", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/templates/"+tpl.ID.String(), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodDelete, "/api/v1/templates/"+tpl.ID.String(), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("double delete: status %d, want 404", rec.Code)
	}
}

func TestDeleteTemplateConflict(t *testing.T) {
	srv := newTestServer(t)
	tpl := createTemplate(t, srv, "Legs", 5)
	createExercise(t, srv, tpl, "Squat", 5)

	rec := doJSON(t, srv, http.MethodDelete, "/api/v1/templates/"+tpl.ID.String(), nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("delete in-use template: status %d, want 409", rec.Code)
	}
}

func TestSessionFlow(t *testing.T) {
	srv := newTestServer(t)
	tpl := createTemplate(t, srv, "Upper", 1)
	ex := createExercise(t, srv, tpl, "Bench Press", 2)

	// Start a session: two generated working sets.
	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions", map[string]any{"templateId": tpl.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("start: status %d: %s", rec.Code, rec.Body)
	}
	started := decode[startSessionResponse](t, rec)
	if len(started.WorkingSets) != 2 {
		t.Fatalf("working sets = %d, want 2", len(started.WorkingSets))
	}
	sessID := started.Session.ID.String()

	// It shows up as the active session.
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/sessions/active", nil)
	active := decode[*models.Session](t, rec)
	if active == nil || active.ID != started.Session.ID {
		t.Fatalf("active = %v", active)
	}

	// Patch one set, add a third, complete it.
	setID := started.WorkingSets[0].ID.String()
	rec = doJSON(t, srv, http.MethodPatch, "/api/v1/sessions/"+sessID+"/working-sets/"+setID,
		map[string]any{"weight": 42.5, "rpe": 8.0})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch: status %d: %s", rec.Code, rec.Body)
	}
	patched := decode[session.WorkingSet](t, rec)
	if patched.Weight != 42.5 || patched.RPE == nil || *patched.RPE != 8.0 {
		t.Fatalf("patched = %+v", patched)
	}

	rec = doJSON(t, srv, http.MethodPost,
		"/api/v1/sessions/"+sessID+"/exercises/"+ex.ID.String()+"/sets", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add set: status %d: %s", rec.Code, rec.Body)
	}
	added := decode[session.WorkingSet](t, rec)
	if added.SetNumber != 3 {
		t.Errorf("added set number = %d, want 3", added.SetNumber)
	}

	rec = doJSON(t, srv, http.MethodPost,
		"/api/v1/sessions/"+sessID+"/working-sets/"+added.ID.String()+"/complete", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: status %d", rec.Code)
	}

	// Finish; the session closes and the sets are durable.
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+sessID+"/finish",
		map[string]any{"notes": "done"})
	if rec.Code != http.StatusOK {
		t.Fatalf("finish: status %d: %s", rec.Code, rec.Body)
	}
	finished := decode[models.Session](t, rec)
	if finished.Active() || finished.Notes != "done" {
		t.Fatalf("finished = %+v", finished)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+sessID+"/finish",
		map[string]any{"notes": "again"})
	if rec.Code != http.StatusConflict {
		t.Errorf("double finish: status %d, want 409", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/sets?session="+sessID, nil)
	if sets := decode[[]models.SetLog](t, rec); len(sets) != 3 {
		t.Errorf("logged sets = %d, want 3", len(sets))
	}

	// No active session remains.
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/sessions/active", nil)
	if active := decode[*models.Session](t, rec); active != nil {
		t.Errorf("active after finish = %v", active.ID)
	}
}

func TestProgressEndpoint(t *testing.T) {
	srv := newTestServer(t)
	tpl := createTemplate(t, srv, "Upper", 1)
	ex := createExercise(t, srv, tpl, "Bench Press", 2)

	rec := doJSON(t, srv, http.MethodPost, "/api/v1/sessions", map[string]any{"templateId": tpl.ID})
	started := decode[startSessionResponse](t, rec)
	rec = doJSON(t, srv, http.MethodPost, "/api/v1/sessions/"+started.Session.ID.String()+"/finish",
		map[string]any{"notes": ""})
	if rec.Code != http.StatusOK {
		t.Fatalf("finish: status %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet,
		"/api/v1/progress?exercise="+ex.ID.String()+"&metric=volume&range=7", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("progress: status %d: %s", rec.Code, rec.Body)
	}
	series := decode[progress.Series](t, rec)
	if len(series.Points) != 1 {
		t.Fatalf("points = %d, want 1", len(series.Points))
	}
	// Two generated sets of 5 reps @ 40 each: daily volume 400.
	if series.Points[0].Value != 400 {
		t.Errorf("volume = %v, want 400", series.Points[0].Value)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/progress?exercise="+ex.ID.String()+"&metric=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad metric: status %d, want 400", rec.Code)
	}
}

func TestBackupEndpoints(t *testing.T) {
	srv := newTestServer(t)
	createTemplate(t, srv, "Upper", 1)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: status %d", rec.Code)
	}
	env := decode[backup.Envelope](t, rec)
	if env.App != backup.AppMarker || len(env.Data.Templates) != 1 {
		t.Fatalf("envelope = app %q, %d templates", env.App, len(env.Data.Templates))
	}

	// Importing the export back replaces the store with identical content.
	payload, _ := json.Marshal(env)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/import", bytes.NewReader(payload))
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("import: status %d: %s", rec.Code, rec.Body)
	}
	counts := decode[storage.Counts](t, rec)
	if counts.Templates != 1 {
		t.Errorf("templates after import = %d, want 1", counts.Templates)
	}

	rec = doJSON(t, srv, http.MethodPost, "/api/v1/import", map[string]any{"app": "other", "version": 1})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad envelope: status %d, want 400", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/api/v1/export.csv", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("csv: status %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
		t.Errorf("csv content type = %q", ct)
	}
}

func TestSettingsEndpoints(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/v1/settings", nil)
	got := decode[settings.Settings](t, rec)
	if got.Theme != "system" {
		t.Fatalf("default theme = %q", got.Theme)
	}

	// A partial body changes only the named field.
	rec = doJSON(t, srv, http.MethodPut, "/api/v1/settings", map[string]any{"theme": "dark"})
	if rec.Code != http.StatusOK {
		t.Fatalf("put: status %d: %s", rec.Code, rec.Body)
	}
	got = decode[settings.Settings](t, rec)
	if got.Theme != "dark" || got.RestTimerSec != 90 {
		t.Errorf("after partial put = %+v", got)
	}

	rec = doJSON(t, srv, http.MethodPut, "/api/v1/settings", map[string]any{"theme": "sepia"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid theme: status %d, want 400", rec.Code)
	}
}

func TestInvalidIDsRejected(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodDelete, "/api/v1/templates/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad template id: status %d, want 400", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/api/v1/sessions/not-a-uuid", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad session id: status %d, want 400", rec.Code)
	}
}
