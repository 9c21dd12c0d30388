package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/claude/repregret/internal/models"
)

// SetFilter narrows ListSetLogs. Nil fields match everything.
type SetFilter struct {
	SessionID  *uuid.UUID
	ExerciseID *uuid.UUID
}

// ListSetLogs returns set logs matching the filter, ordered by set number
// within insertion order.
func (db *DB) ListSetLogs(ctx context.Context, f SetFilter) ([]models.SetLog, error) {
	query := `SELECT id, session_id, exercise_id, set_number, reps, weight, rpe, is_warmup, completed_at
	          FROM set_logs`
	var conds []string
	var args []any
	if f.SessionID != nil {
		conds = append(conds, `session_id = ?`)
		args = append(args, *f.SessionID)
	}
	if f.ExerciseID != nil {
		conds = append(conds, `exercise_id = ?`)
		args = append(args, *f.ExerciseID)
	}
	for i, c := range conds {
		if i == 0 {
			query += ` WHERE ` + c
		} else {
			query += ` AND ` + c
		}
	}
	query += ` ORDER BY set_number ASC, rowid ASC`

	rows, err := db.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying set logs: %w", err)
	}
	defer rows.Close()
	return scanSetLogs(rows)
}

// LastPerformance finds the most recently started session, other than the one
// given, that has logged sets for the exercise, and returns those sets in set
// number order. ok is false when no prior session has data for the exercise;
// that is a normal empty result, not an error.
func (db *DB) LastPerformance(ctx context.Context, exerciseID, excludeSessionID uuid.UUID) (logs []models.SetLog, ok bool, err error) {
	var sessionID uuid.UUID
	err = db.sql.QueryRowContext(ctx,
		`SELECT s.id FROM sessions s
		 WHERE s.id <> ? AND EXISTS (
		     SELECT 1 FROM set_logs l WHERE l.session_id = s.id AND l.exercise_id = ?
		 )
		 ORDER BY s.started_at DESC LIMIT 1`,
		excludeSessionID, exerciseID).Scan(&sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("querying last performance session: %w", err)
	}

	logs, err = db.ListSetLogs(ctx, SetFilter{SessionID: &sessionID, ExerciseID: &exerciseID})
	if err != nil {
		return nil, false, err
	}
	return logs, len(logs) > 0, nil
}

func insertSetLogsTx(ctx context.Context, tx *sql.Tx, logs []models.SetLog) error {
	if len(logs) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO set_logs (id, session_id, exercise_id, set_number, reps, weight, rpe, is_warmup, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing set log insert: %w", err)
	}
	defer stmt.Close()

	for _, l := range logs {
		if _, err := stmt.ExecContext(ctx,
			l.ID, l.SessionID, l.ExerciseID, l.SetNumber, l.Reps, l.Weight,
			l.RPE, l.IsWarmup, nullTime(l.CompletedAt)); err != nil {
			return fmt.Errorf("inserting set log: %w", err)
		}
	}
	return nil
}

func scanSetLogs(rows *sql.Rows) ([]models.SetLog, error) {
	var result []models.SetLog
	for rows.Next() {
		var l models.SetLog
		var rpe sql.NullFloat64
		var completed sql.NullTime
		if err := rows.Scan(&l.ID, &l.SessionID, &l.ExerciseID, &l.SetNumber,
			&l.Reps, &l.Weight, &rpe, &l.IsWarmup, &completed); err != nil {
			return nil, fmt.Errorf("scanning set log: %w", err)
		}
		if rpe.Valid {
			v := rpe.Float64
			l.RPE = &v
		}
		if completed.Valid {
			t := completed.Time
			l.CompletedAt = &t
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
