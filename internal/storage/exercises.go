package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/claude/repregret/internal/models"
)

// InsertExercise validates and inserts an exercise. When Order is zero the
// exercise is appended after its template's current last position.
func (db *DB) InsertExercise(ctx context.Context, e models.Exercise) error {
	if err := validateExercise(e); err != nil {
		return err
	}
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM workout_templates WHERE id = ?`, e.TemplateID).Scan(&exists); err != nil {
			return fmt.Errorf("checking template: %w", err)
		}
		if exists == 0 {
			return ErrNotFound
		}
		if e.Order == 0 {
			if err := tx.QueryRowContext(ctx,
				`SELECT COALESCE(MAX(position), 0) + 1 FROM exercises WHERE template_id = ?`,
				e.TemplateID).Scan(&e.Order); err != nil {
				return fmt.Errorf("computing position: %w", err)
			}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO exercises (id, template_id, name, default_sets, default_reps, default_weight, position)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.TemplateID, e.Name, e.DefaultSets, e.DefaultReps, e.DefaultWeight, e.Order)
		if err != nil {
			return fmt.Errorf("inserting exercise: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	db.notify("exercises")
	return nil
}

// GetExercise retrieves one exercise by id.
func (db *DB) GetExercise(ctx context.Context, id uuid.UUID) (models.Exercise, error) {
	var e models.Exercise
	err := db.sql.QueryRowContext(ctx,
		`SELECT id, template_id, name, default_sets, default_reps, default_weight, position
		 FROM exercises WHERE id = ?`, id).
		Scan(&e.ID, &e.TemplateID, &e.Name, &e.DefaultSets, &e.DefaultReps, &e.DefaultWeight, &e.Order)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Exercise{}, ErrNotFound
	}
	if err != nil {
		return models.Exercise{}, fmt.Errorf("querying exercise: %w", err)
	}
	return e, nil
}

// ListExercises returns all exercises, optionally filtered by template, in
// position order with ties broken by insertion.
func (db *DB) ListExercises(ctx context.Context, templateID *uuid.UUID) ([]models.Exercise, error) {
	query := `SELECT id, template_id, name, default_sets, default_reps, default_weight, position
	          FROM exercises`
	var args []any
	if templateID != nil {
		query += ` WHERE template_id = ?`
		args = append(args, *templateID)
	}
	query += ` ORDER BY position ASC, rowid ASC`

	rows, err := db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying exercises: %w", err)
	}
	defer rows.Close()

	var result []models.Exercise
	for rows.Next() {
		var e models.Exercise
		if err := rows.Scan(&e.ID, &e.TemplateID, &e.Name, &e.DefaultSets, &e.DefaultReps,
			&e.DefaultWeight, &e.Order); err != nil {
			return nil, fmt.Errorf("scanning exercise: %w", err)
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

// UpdateExercise updates an exercise's name and default set/rep/weight values.
// Position changes go through MoveExercise.
func (db *DB) UpdateExercise(ctx context.Context, e models.Exercise) error {
	if err := validateExercise(e); err != nil {
		return err
	}
	res, err := db.sql.ExecContext(ctx,
		`UPDATE exercises SET name = ?, default_sets = ?, default_reps = ?, default_weight = ?
		 WHERE id = ?`,
		e.Name, e.DefaultSets, e.DefaultReps, e.DefaultWeight, e.ID)
	if err != nil {
		return fmt.Errorf("updating exercise: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	db.notify("exercises")
	return nil
}

// DeleteExercise removes an exercise unless logged sets reference it.
func (db *DB) DeleteExercise(ctx context.Context, id uuid.UUID) error {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var deps int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM set_logs WHERE exercise_id = ?`, id).Scan(&deps); err != nil {
			return fmt.Errorf("counting exercise dependents: %w", err)
		}
		if deps > 0 {
			return ErrInUse
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM exercises WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("deleting exercise: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	db.notify("exercises")
	return nil
}

// MoveExercise swaps an exercise's position with its neighbor within the same
// template. dir is -1 (up) or +1 (down); moves past the list boundary are
// no-ops.
func (db *DB) MoveExercise(ctx context.Context, id uuid.UUID, dir int) error {
	if dir != -1 && dir != 1 {
		return fmt.Errorf("%w: move direction must be -1 or +1", ErrInvalid)
	}
	var moved bool
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var templateID uuid.UUID
		var pos int
		err := tx.QueryRowContext(ctx,
			`SELECT template_id, position FROM exercises WHERE id = ?`, id).
			Scan(&templateID, &pos)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("querying exercise position: %w", err)
		}

		// Neighbor in the requested direction; positions need not be
		// contiguous, so compare with < / > rather than position±1.
		var neighborID uuid.UUID
		var neighborPos int
		query := `SELECT id, position FROM exercises
		          WHERE template_id = ? AND position > ?
		          ORDER BY position ASC, rowid ASC LIMIT 1`
		if dir == -1 {
			query = `SELECT id, position FROM exercises
			         WHERE template_id = ? AND position < ?
			         ORDER BY position DESC, rowid DESC LIMIT 1`
		}
		err = tx.QueryRowContext(ctx, query, templateID, pos).Scan(&neighborID, &neighborPos)
		if errors.Is(err, sql.ErrNoRows) {
			return nil // already at the boundary
		}
		if err != nil {
			return fmt.Errorf("querying neighbor: %w", err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE exercises SET position = ? WHERE id = ?`, neighborPos, id); err != nil {
			return fmt.Errorf("moving exercise: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE exercises SET position = ? WHERE id = ?`, pos, neighborID); err != nil {
			return fmt.Errorf("moving neighbor: %w", err)
		}
		moved = true
		return nil
	})
	if err != nil {
		return err
	}
	if moved {
		db.notify("exercises")
	}
	return nil
}
