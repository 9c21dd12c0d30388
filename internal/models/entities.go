package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkoutTemplate is a named, day-of-week-tagged recurring workout definition.
// DayOfWeek runs 1..7 with Monday = 1.
type WorkoutTemplate struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	DayOfWeek int       `json:"dayOfWeek"`
}

// Exercise belongs to one template. Order determines display and set-generation
// sequence among its siblings; values are unique per template but not required
// to be contiguous.
type Exercise struct {
	ID            uuid.UUID `json:"id"`
	TemplateID    uuid.UUID `json:"templateId"`
	Name          string    `json:"name"`
	DefaultSets   int       `json:"defaultSets"`
	DefaultReps   int       `json:"defaultReps"`
	DefaultWeight float64   `json:"defaultWeight"`
	Order         int       `json:"order"`
}

// Session is one logged workout. EndedAt nil means the session is still active.
type Session struct {
	ID         uuid.UUID  `json:"id"`
	TemplateID uuid.UUID  `json:"templateId"`
	StartedAt  time.Time  `json:"startedAt"`
	EndedAt    *time.Time `json:"endedAt"`
	Notes      string     `json:"notes"`
}

// Active reports whether the session has not been finished yet.
func (s Session) Active() bool { return s.EndedAt == nil }

// SetLog is the finalized record of one set. CompletedAt is nil only while the
// set is still being worked; rows written by a session finish always carry it.
type SetLog struct {
	ID          uuid.UUID  `json:"id"`
	SessionID   uuid.UUID  `json:"sessionId"`
	ExerciseID  uuid.UUID  `json:"exerciseId"`
	SetNumber   int        `json:"setNumber"`
	Reps        int        `json:"reps"`
	Weight      float64    `json:"weight"`
	RPE         *float64   `json:"rpe"`
	IsWarmup    bool       `json:"isWarmup"`
	CompletedAt *time.Time `json:"completedAt"`
}

// MetaEntry is a store-level key/value flag (e.g. the seeded marker).
type MetaEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Volume is the work done in one set.
func Volume(weight float64, reps int) float64 {
	return weight * float64(reps)
}

// Est1RM is the Epley-style one-rep-max estimate for a weight/rep pair.
func Est1RM(weight float64, reps int) float64 {
	return weight * (1 + float64(reps)/30)
}
