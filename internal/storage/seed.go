package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const seededKey = "seeded"

// seedExercise is one fixed default exercise inserted on first run.
type seedExercise struct {
	name     string
	sets     int
	reps     int
	weight   float64
	position int
}

// EnsureSeeded inserts the default configuration exactly once and reports
// whether this call did the seeding. The flag check and the inserts share one
// transaction, so the initializer may be called any number of times and only
// one seeding takes effect, with no half-seeded state visible in between.
func (db *DB) EnsureSeeded(ctx context.Context) (bool, error) {
	var seeded bool
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM meta WHERE key = ?`, seededKey).Scan(&n); err != nil {
			return fmt.Errorf("checking seeded flag: %w", err)
		}
		if n > 0 {
			return nil
		}

		defaults := []struct {
			name      string
			dayOfWeek int
			exercises []seedExercise
		}{
			{"Upper", 1, []seedExercise{
				{"Bench Press", 5, 5, 40, 1},
				{"Row", 4, 8, 30, 2},
			}},
			{"Lower", 3, []seedExercise{
				{"Back Squat", 5, 5, 50, 1},
				{"Romanian Deadlift", 4, 8, 40, 2},
			}},
		}

		for _, t := range defaults {
			templateID := uuid.New()
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO workout_templates (id, name, day_of_week) VALUES (?, ?, ?)`,
				templateID, t.name, t.dayOfWeek); err != nil {
				return fmt.Errorf("seeding template %q: %w", t.name, err)
			}
			for _, e := range t.exercises {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO exercises (id, template_id, name, default_sets, default_reps, default_weight, position)
					 VALUES (?, ?, ?, ?, ?, ?, ?)`,
					uuid.New(), templateID, e.name, e.sets, e.reps, e.weight, e.position); err != nil {
					return fmt.Errorf("seeding exercise %q: %w", e.name, err)
				}
			}
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO meta (key, value) VALUES (?, '1')`, seededKey); err != nil {
			return fmt.Errorf("setting seeded flag: %w", err)
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if seeded {
		db.notify("workout_templates", "exercises", "meta")
	}
	return seeded, nil
}

// DedupeTemplates removes accidental duplicate templates: same day of week
// and same trimmed, lowercased name. The first-inserted member of each group
// is kept, and a duplicate that any session references is left alone so
// logged history is never orphaned. Returns the number of templates removed.
func (db *DB) DedupeTemplates(ctx context.Context) (int, error) {
	templates, err := db.listTemplatesByInsertion(ctx)
	if err != nil {
		return 0, err
	}

	groups := make(map[string][]uuid.UUID)
	var keys []string
	for _, t := range templates {
		key := fmt.Sprintf("%d::%s", t.DayOfWeek, strings.ToLower(strings.TrimSpace(t.Name)))
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], t.ID)
	}

	var removed int
	for _, key := range keys {
		group := groups[key]
		if len(group) <= 1 {
			continue
		}
		for _, dupID := range group[1:] {
			err := db.withTx(ctx, func(tx *sql.Tx) error {
				var sessions int
				if err := tx.QueryRowContext(ctx,
					`SELECT COUNT(*) FROM sessions WHERE template_id = ?`, dupID).Scan(&sessions); err != nil {
					return fmt.Errorf("counting duplicate sessions: %w", err)
				}
				if sessions > 0 {
					return nil
				}
				if _, err := tx.ExecContext(ctx,
					`DELETE FROM exercises WHERE template_id = ?`, dupID); err != nil {
					return fmt.Errorf("deleting duplicate exercises: %w", err)
				}
				if _, err := tx.ExecContext(ctx,
					`DELETE FROM workout_templates WHERE id = ?`, dupID); err != nil {
					return fmt.Errorf("deleting duplicate template: %w", err)
				}
				removed++
				return nil
			})
			if err != nil {
				return removed, err
			}
		}
	}
	if removed > 0 {
		db.notify("workout_templates", "exercises")
	}
	return removed, nil
}
