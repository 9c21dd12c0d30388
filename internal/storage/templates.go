package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/claude/repregret/internal/models"
)

// InsertTemplate validates and inserts a workout template.
func (db *DB) InsertTemplate(ctx context.Context, t models.WorkoutTemplate) error {
	if err := validateTemplate(t); err != nil {
		return err
	}
	_, err := db.sql.ExecContext(ctx,
		`INSERT INTO workout_templates (id, name, day_of_week) VALUES (?, ?, ?)`,
		t.ID, t.Name, t.DayOfWeek)
	if err != nil {
		return fmt.Errorf("inserting template: %w", err)
	}
	db.notify("workout_templates")
	return nil
}

// GetTemplate retrieves one template by id.
func (db *DB) GetTemplate(ctx context.Context, id uuid.UUID) (models.WorkoutTemplate, error) {
	var t models.WorkoutTemplate
	err := db.sql.QueryRowContext(ctx,
		`SELECT id, name, day_of_week FROM workout_templates WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.DayOfWeek)
	if errors.Is(err, sql.ErrNoRows) {
		return models.WorkoutTemplate{}, ErrNotFound
	}
	if err != nil {
		return models.WorkoutTemplate{}, fmt.Errorf("querying template: %w", err)
	}
	return t, nil
}

// ListTemplates returns all templates ordered by day of week, then insertion.
func (db *DB) ListTemplates(ctx context.Context) ([]models.WorkoutTemplate, error) {
	return db.queryTemplates(ctx,
		`SELECT id, name, day_of_week FROM workout_templates ORDER BY day_of_week ASC, rowid ASC`)
}

// listTemplatesByInsertion returns templates in insertion order, which the
// dedupe pass uses to decide the keeper of a duplicate group.
func (db *DB) listTemplatesByInsertion(ctx context.Context) ([]models.WorkoutTemplate, error) {
	return db.queryTemplates(ctx,
		`SELECT id, name, day_of_week FROM workout_templates ORDER BY rowid ASC`)
}

func (db *DB) queryTemplates(ctx context.Context, query string) ([]models.WorkoutTemplate, error) {
	rows, err := db.sql.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}
	defer rows.Close()

	var result []models.WorkoutTemplate
	for rows.Next() {
		var t models.WorkoutTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.DayOfWeek); err != nil {
			return nil, fmt.Errorf("scanning template: %w", err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// UpdateTemplate renames a template and/or moves it to another day.
func (db *DB) UpdateTemplate(ctx context.Context, t models.WorkoutTemplate) error {
	if err := validateTemplate(t); err != nil {
		return err
	}
	res, err := db.sql.ExecContext(ctx,
		`UPDATE workout_templates SET name = ?, day_of_week = ? WHERE id = ?`,
		t.Name, t.DayOfWeek, t.ID)
	if err != nil {
		return fmt.Errorf("updating template: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	db.notify("workout_templates")
	return nil
}

// DeleteTemplate removes a template. The delete is refused with ErrInUse when
// any exercise or session still references it; logged history is never
// silently deleted.
func (db *DB) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var deps int
		if err := tx.QueryRowContext(ctx,
			`SELECT (SELECT COUNT(*) FROM exercises WHERE template_id = ?)
			      + (SELECT COUNT(*) FROM sessions  WHERE template_id = ?)`,
			id, id).Scan(&deps); err != nil {
			return fmt.Errorf("counting template dependents: %w", err)
		}
		if deps > 0 {
			return ErrInUse
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM workout_templates WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting template: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	db.notify("workout_templates")
	return nil
}
