// Package backup serializes the whole store to a portable snapshot and
// restores it, replacing all data transactionally.
package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/claude/repregret/internal/models"
	"github.com/claude/repregret/internal/storage"
)

const (
	// AppMarker identifies payloads produced by this application.
	AppMarker = "rep-regret"
	// FormatVersion is the current envelope version.
	FormatVersion = 1
)

// ErrBadEnvelope is returned for payloads that are malformed or carry an
// unrecognized app marker or version. The store is never touched in that case.
var ErrBadEnvelope = errors.New("not a valid backup")

// Envelope is the portable backup payload.
type Envelope struct {
	App        string `json:"app"`
	Version    int    `json:"version"`
	ExportedAt string `json:"exportedAt"`
	Data       Data   `json:"data"`
}

// Data holds every table's rows verbatim as stored.
type Data struct {
	Templates []models.WorkoutTemplate `json:"workout_templates"`
	Exercises []models.Exercise        `json:"exercises"`
	Sessions  []models.Session         `json:"sessions"`
	Sets      []models.SetLog          `json:"sets"`
	Meta      []models.MetaEntry       `json:"meta"`
}

// Export reads all five tables and wraps them in an envelope.
func Export(ctx context.Context, db *storage.DB) (Envelope, error) {
	templates, err := db.ListTemplates(ctx)
	if err != nil {
		return Envelope{}, err
	}
	exercises, err := db.ListExercises(ctx, nil)
	if err != nil {
		return Envelope{}, err
	}
	sessions, err := db.ListSessions(ctx, false)
	if err != nil {
		return Envelope{}, err
	}
	sets, err := db.ListSetLogs(ctx, storage.SetFilter{})
	if err != nil {
		return Envelope{}, err
	}
	meta, err := db.ListMeta(ctx)
	if err != nil {
		return Envelope{}, err
	}

	return Envelope{
		App:        AppMarker,
		Version:    FormatVersion,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Data: Data{
			Templates: templates,
			Exercises: exercises,
			Sessions:  sessions,
			Sets:      sets,
			Meta:      meta,
		},
	}, nil
}

// Import parses and validates an envelope, then replaces the entire store
// with its contents in one transaction. Import is destructive; confirming
// intent is the caller's job.
func Import(ctx context.Context, db *storage.DB, r io.Reader) error {
	var env Envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return fmt.Errorf("%w: %v", ErrBadEnvelope, err)
	}
	if env.App != AppMarker {
		return fmt.Errorf("%w: unrecognized app marker %q", ErrBadEnvelope, env.App)
	}
	if env.Version != FormatVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrBadEnvelope, env.Version)
	}

	return db.ReplaceAll(ctx,
		env.Data.Templates, env.Data.Exercises, env.Data.Sessions, env.Data.Sets, env.Data.Meta)
}
