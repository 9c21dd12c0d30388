// Package session turns a workout template into a working session and logs
// actual performance against it. Working sets are in-memory staging owned by
// the engine; they become durable set_logs rows only when the session is
// finished.
package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/claude/repregret/internal/models"
	"github.com/claude/repregret/internal/storage"
)

// WorkingSet is an in-progress, not-yet-finalized set entry.
type WorkingSet struct {
	ID          uuid.UUID  `json:"id"`
	ExerciseID  uuid.UUID  `json:"exerciseId"`
	SetNumber   int        `json:"setNumber"`
	Reps        int        `json:"reps"`
	Weight      float64    `json:"weight"`
	RPE         *float64   `json:"rpe"`
	IsWarmup    bool       `json:"isWarmup"`
	CompletedAt *time.Time `json:"completedAt"`
}

// SetPatch carries edits to a working set. Nil fields are untouched, so a
// caller can change the weight without clobbering an absent RPE; ClearRPE
// removes the RPE explicitly.
type SetPatch struct {
	Reps     *int     `json:"reps"`
	Weight   *float64 `json:"weight"`
	RPE      *float64 `json:"rpe"`
	ClearRPE bool     `json:"clearRpe"`
	IsWarmup *bool    `json:"isWarmup"`
}

// Engine drives active sessions. One engine serves the whole process; its
// staging map is guarded by a mutex because HTTP handlers call in
// concurrently, even though the store itself assumes a single logical writer.
type Engine struct {
	db  *storage.DB
	log *slog.Logger
	now func() time.Time

	mu      sync.Mutex
	staging map[uuid.UUID][]WorkingSet
}

// New creates a session engine backed by the given store.
func New(db *storage.DB, log *slog.Logger) *Engine {
	return &Engine{
		db:      db,
		log:     log,
		now:     time.Now,
		staging: make(map[uuid.UUID][]WorkingSet),
	}
}

// Start creates a session for the template and generates its working sets
// from the exercise defaults: for each exercise in order, defaultSets sets
// numbered 1..N with the exercise's reps and weight, RPE unset, not warmup.
func (e *Engine) Start(ctx context.Context, templateID uuid.UUID) (models.Session, []WorkingSet, error) {
	sess := models.Session{
		ID:         uuid.New(),
		TemplateID: templateID,
		StartedAt:  e.now(),
	}
	if err := e.db.InsertSession(ctx, sess); err != nil {
		return models.Session{}, nil, err
	}

	sets, err := e.generateDefaults(ctx, templateID)
	if err != nil {
		return models.Session{}, nil, err
	}

	e.mu.Lock()
	e.staging[sess.ID] = sets
	e.mu.Unlock()

	e.log.Info("session started", "session", sess.ID, "template", templateID, "sets", len(sets))
	return sess, copySets(sets), nil
}

// WorkingSets returns the current staging for an active session. If the
// process restarted and staging was lost, it is regenerated from the
// template defaults.
func (e *Engine) WorkingSets(ctx context.Context, sessionID uuid.UUID) ([]WorkingSet, error) {
	sets, err := e.ensureStaging(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return copySets(sets), nil
}

// AddSet appends a working set for the exercise, numbered one past the
// current maximum. Reps, weight and RPE default to the most recent existing
// set for that exercise, or to generic fallbacks when it has none.
func (e *Engine) AddSet(ctx context.Context, sessionID, exerciseID uuid.UUID) (WorkingSet, error) {
	if _, err := e.ensureStaging(ctx, sessionID); err != nil {
		return WorkingSet{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var last *WorkingSet
	for i := range e.staging[sessionID] {
		ws := &e.staging[sessionID][i]
		if ws.ExerciseID != exerciseID {
			continue
		}
		if last == nil || ws.SetNumber > last.SetNumber {
			last = ws
		}
	}

	next := WorkingSet{
		ID:         uuid.New(),
		ExerciseID: exerciseID,
		SetNumber:  1,
		Reps:       8,
	}
	if last != nil {
		rpe := models.OrDefault(last.RPE, 7.5)
		next.SetNumber = last.SetNumber + 1
		next.Reps = last.Reps
		next.Weight = last.Weight
		next.RPE = &rpe
	}

	e.staging[sessionID] = append(e.staging[sessionID], next)
	return next, nil
}

// UpdateSet applies a patch to one working set.
func (e *Engine) UpdateSet(ctx context.Context, sessionID, setID uuid.UUID, patch SetPatch) (WorkingSet, error) {
	if _, err := e.ensureStaging(ctx, sessionID); err != nil {
		return WorkingSet{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.staging[sessionID] {
		ws := &e.staging[sessionID][i]
		if ws.ID != setID {
			continue
		}
		if patch.Reps != nil {
			ws.Reps = *patch.Reps
		}
		if patch.Weight != nil {
			ws.Weight = *patch.Weight
		}
		if patch.ClearRPE {
			ws.RPE = nil
		} else if patch.RPE != nil {
			v := *patch.RPE
			ws.RPE = &v
		}
		if patch.IsWarmup != nil {
			ws.IsWarmup = *patch.IsWarmup
		}
		return *ws, nil
	}
	return WorkingSet{}, storage.ErrNotFound
}

// UseLast overwrites the exercise's working sets with the shape of its most
// recent prior performance: same count, per-set reps/weight/RPE/warmup flag
// copied, set numbers renumbered 1..N. found is false when no other session
// has logged sets for the exercise, which is an expected empty result.
func (e *Engine) UseLast(ctx context.Context, sessionID, exerciseID uuid.UUID) (found bool, err error) {
	if _, err := e.ensureStaging(ctx, sessionID); err != nil {
		return false, err
	}

	logs, ok, err := e.db.LastPerformance(ctx, exerciseID, sessionID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	replacement := make([]WorkingSet, 0, len(logs))
	for i, l := range logs {
		ws := WorkingSet{
			ID:         uuid.New(),
			ExerciseID: exerciseID,
			SetNumber:  i + 1,
			Reps:       l.Reps,
			Weight:     l.Weight,
			IsWarmup:   l.IsWarmup,
		}
		if l.RPE != nil {
			v := *l.RPE
			ws.RPE = &v
		}
		replacement = append(replacement, ws)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.staging[sessionID][:0:0]
	for _, ws := range e.staging[sessionID] {
		if ws.ExerciseID != exerciseID {
			kept = append(kept, ws)
		}
	}
	e.staging[sessionID] = append(kept, replacement...)
	return true, nil
}

// CompleteSet stamps the working set's completion moment and returns it, so
// a rest-timer collaborator can start counting from the same instant. No
// other set is affected.
func (e *Engine) CompleteSet(ctx context.Context, sessionID, setID uuid.UUID) (time.Time, error) {
	if _, err := e.ensureStaging(ctx, sessionID); err != nil {
		return time.Time{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.staging[sessionID] {
		ws := &e.staging[sessionID][i]
		if ws.ID == setID {
			t := e.now()
			ws.CompletedAt = &t
			return t, nil
		}
	}
	return time.Time{}, storage.ErrNotFound
}

// Finish seals the session: ended_at is set and every working set becomes a
// set_logs row, with completed_at defaulting to the finish time for sets
// never explicitly marked done. The store refuses to re-finish a completed
// session, so calling this twice cannot duplicate rows.
func (e *Engine) Finish(ctx context.Context, sessionID uuid.UUID, notes string) error {
	sets, err := e.ensureStaging(ctx, sessionID)
	if err != nil {
		return err
	}

	endedAt := e.now()

	ordered := copySets(sets)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SetNumber < ordered[j].SetNumber
	})

	logs := make([]models.SetLog, 0, len(ordered))
	for _, ws := range ordered {
		completed := endedAt
		if ws.CompletedAt != nil {
			completed = *ws.CompletedAt
		}
		logs = append(logs, models.SetLog{
			ID:          ws.ID,
			SessionID:   sessionID,
			ExerciseID:  ws.ExerciseID,
			SetNumber:   ws.SetNumber,
			Reps:        ws.Reps,
			Weight:      ws.Weight,
			RPE:         ws.RPE,
			IsWarmup:    ws.IsWarmup,
			CompletedAt: &completed,
		})
	}

	if err := e.db.FinishSession(ctx, sessionID, endedAt, notes, logs); err != nil {
		return err
	}

	e.mu.Lock()
	delete(e.staging, sessionID)
	e.mu.Unlock()

	e.log.Info("session finished", "session", sessionID, "sets", len(logs))
	return nil
}

// Abandon drops an unfinished session and its staging.
func (e *Engine) Abandon(ctx context.Context, sessionID uuid.UUID) error {
	if err := e.db.DeleteSession(ctx, sessionID); err != nil {
		return err
	}
	e.mu.Lock()
	delete(e.staging, sessionID)
	e.mu.Unlock()
	return nil
}

// ensureStaging verifies the session exists and is still active, and lazily
// regenerates staging from the template defaults when this process has none
// (e.g. after a restart mid-session).
func (e *Engine) ensureStaging(ctx context.Context, sessionID uuid.UUID) ([]WorkingSet, error) {
	e.mu.Lock()
	sets, ok := e.staging[sessionID]
	e.mu.Unlock()

	sess, err := e.db.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !sess.Active() {
		return nil, storage.ErrSessionFinished
	}
	if ok {
		return sets, nil
	}

	sets, err = e.generateDefaults(ctx, sess.TemplateID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	if existing, ok := e.staging[sessionID]; ok {
		sets = existing
	} else {
		e.staging[sessionID] = sets
	}
	e.mu.Unlock()
	return sets, nil
}

func (e *Engine) generateDefaults(ctx context.Context, templateID uuid.UUID) ([]WorkingSet, error) {
	exercises, err := e.db.ListExercises(ctx, &templateID)
	if err != nil {
		return nil, err
	}

	var sets []WorkingSet
	for _, ex := range exercises {
		for i := 1; i <= ex.DefaultSets; i++ {
			sets = append(sets, WorkingSet{
				ID:         uuid.New(),
				ExerciseID: ex.ID,
				SetNumber:  i,
				Reps:       ex.DefaultReps,
				Weight:     ex.DefaultWeight,
			})
		}
	}
	return sets, nil
}

func copySets(sets []WorkingSet) []WorkingSet {
	out := make([]WorkingSet, len(sets))
	copy(out, sets)
	return out
}
