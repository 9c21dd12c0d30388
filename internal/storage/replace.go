package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/claude/repregret/internal/models"
)

// ReplaceAll clears every table and bulk-inserts the given rows in dependency
// order, all inside one transaction. A failure at any point leaves the store
// exactly as it was; a concurrent reader never sees the half-replaced state.
func (db *DB) ReplaceAll(ctx context.Context,
	templates []models.WorkoutTemplate,
	exercises []models.Exercise,
	sessions []models.Session,
	sets []models.SetLog,
	meta []models.MetaEntry,
) error {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"set_logs", "sessions", "exercises", "workout_templates", "meta"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}

		for _, t := range templates {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO workout_templates (id, name, day_of_week) VALUES (?, ?, ?)`,
				t.ID, t.Name, t.DayOfWeek); err != nil {
				return fmt.Errorf("restoring template: %w", err)
			}
		}
		for _, e := range exercises {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO exercises (id, template_id, name, default_sets, default_reps, default_weight, position)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				e.ID, e.TemplateID, e.Name, e.DefaultSets, e.DefaultReps, e.DefaultWeight, e.Order); err != nil {
				return fmt.Errorf("restoring exercise: %w", err)
			}
		}
		for _, s := range sessions {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO sessions (id, template_id, started_at, ended_at, notes) VALUES (?, ?, ?, ?, ?)`,
				s.ID, s.TemplateID, s.StartedAt, nullTime(s.EndedAt), s.Notes); err != nil {
				return fmt.Errorf("restoring session: %w", err)
			}
		}
		if err := insertSetLogsTx(ctx, tx, sets); err != nil {
			return err
		}
		for _, m := range meta {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO meta (key, value) VALUES (?, ?)`, m.Key, m.Value); err != nil {
				return fmt.Errorf("restoring meta: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	db.notify("workout_templates", "exercises", "sessions", "set_logs", "meta")
	return nil
}
