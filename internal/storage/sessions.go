package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/claude/repregret/internal/models"
)

// InsertSession inserts a session row. The referenced template must exist.
func (db *DB) InsertSession(ctx context.Context, s models.Session) error {
	if _, err := db.GetTemplate(ctx, s.TemplateID); err != nil {
		return err
	}
	_, err := db.sql.ExecContext(ctx,
		`INSERT INTO sessions (id, template_id, started_at, ended_at, notes) VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.TemplateID, s.StartedAt, nullTime(s.EndedAt), s.Notes)
	if err != nil {
		return fmt.Errorf("inserting session: %w", err)
	}
	db.notify("sessions")
	return nil
}

// GetSession retrieves one session by id.
func (db *DB) GetSession(ctx context.Context, id uuid.UUID) (models.Session, error) {
	row := db.sql.QueryRowContext(ctx,
		`SELECT id, template_id, started_at, ended_at, notes FROM sessions WHERE id = ?`, id)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, ErrNotFound
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("querying session: %w", err)
	}
	return s, nil
}

// ListSessions returns all sessions ordered by start time, newest first when
// desc is set.
func (db *DB) ListSessions(ctx context.Context, desc bool) ([]models.Session, error) {
	order := "ASC"
	if desc {
		order = "DESC"
	}
	rows, err := db.sql.QueryContext(ctx,
		`SELECT id, template_id, started_at, ended_at, notes FROM sessions ORDER BY started_at `+order)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var result []models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

// ActiveSession returns the most recently started unfinished session, or nil.
func (db *DB) ActiveSession(ctx context.Context) (*models.Session, error) {
	row := db.sql.QueryRowContext(ctx,
		`SELECT id, template_id, started_at, ended_at, notes FROM sessions
		 WHERE ended_at IS NULL ORDER BY started_at DESC LIMIT 1`)
	s, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying active session: %w", err)
	}
	return &s, nil
}

// FinishSession seals a session: sets ended_at and persists its set logs in
// one transaction. A session that already has an end time is left untouched
// and ErrSessionFinished is returned, so finishing twice can never duplicate
// rows or move the end time.
func (db *DB) FinishSession(ctx context.Context, id uuid.UUID, endedAt time.Time, notes string, logs []models.SetLog) error {
	for _, l := range logs {
		if err := validateSetLog(l); err != nil {
			return err
		}
	}
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var ended sql.NullTime
		err := tx.QueryRowContext(ctx,
			`SELECT ended_at FROM sessions WHERE id = ?`, id).Scan(&ended)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("querying session end: %w", err)
		}
		if ended.Valid {
			return ErrSessionFinished
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE sessions SET ended_at = ?, notes = ? WHERE id = ?`,
			endedAt, notes, id); err != nil {
			return fmt.Errorf("ending session: %w", err)
		}
		return insertSetLogsTx(ctx, tx, logs)
	})
	if err != nil {
		return err
	}
	db.notify("sessions", "set_logs")
	return nil
}

// DeleteSession removes an unfinished, abandoned session and any of its rows.
// Completed sessions are immutable history and are refused with ErrInUse.
func (db *DB) DeleteSession(ctx context.Context, id uuid.UUID) error {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var ended sql.NullTime
		err := tx.QueryRowContext(ctx, `SELECT ended_at FROM sessions WHERE id = ?`, id).Scan(&ended)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("querying session end: %w", err)
		}
		if ended.Valid {
			return ErrInUse
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM set_logs WHERE session_id = ?`, id); err != nil {
			return fmt.Errorf("deleting session sets: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
			return fmt.Errorf("deleting session: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	db.notify("sessions", "set_logs")
	return nil
}

func scanSession(row interface{ Scan(dest ...any) error }) (models.Session, error) {
	var s models.Session
	var ended sql.NullTime
	if err := row.Scan(&s.ID, &s.TemplateID, &s.StartedAt, &ended, &s.Notes); err != nil {
		return models.Session{}, err
	}
	if ended.Valid {
		t := ended.Time
		s.EndedAt = &t
	}
	return s, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
