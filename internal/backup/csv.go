package backup

import (
	"context"
	"encoding/csv"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/claude/repregret/internal/models"
	"github.com/claude/repregret/internal/storage"
)

var csvHeader = []string{
	"session_id", "session_date", "workout", "exercise",
	"set_number", "reps", "weight", "rpe", "is_warmup", "volume", "est_1rm",
}

// ExportCSV renders one row per logged set: sessions in start order, each
// session's sets in completion order. Quoting follows RFC 4180: fields with
// a comma, quote or newline are double-quoted with inner quotes doubled.
func ExportCSV(ctx context.Context, db *storage.DB) (string, error) {
	sessions, err := db.ListSessions(ctx, false)
	if err != nil {
		return "", err
	}
	sets, err := db.ListSetLogs(ctx, storage.SetFilter{})
	if err != nil {
		return "", err
	}
	templates, err := db.ListTemplates(ctx)
	if err != nil {
		return "", err
	}
	exercises, err := db.ListExercises(ctx, nil)
	if err != nil {
		return "", err
	}

	templateNames := make(map[uuid.UUID]string, len(templates))
	for _, t := range templates {
		templateNames[t.ID] = t.Name
	}
	exerciseNames := make(map[uuid.UUID]string, len(exercises))
	for _, e := range exercises {
		exerciseNames[e.ID] = e.Name
	}
	setsBySession := make(map[uuid.UUID][]models.SetLog)
	for _, l := range sets {
		setsBySession[l.SessionID] = append(setsBySession[l.SessionID], l)
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.Write(csvHeader); err != nil {
		return "", err
	}

	for _, s := range sessions {
		rows := setsBySession[s.ID]
		sort.SliceStable(rows, func(i, j int) bool {
			ti, tj := rows[i].CompletedAt, rows[j].CompletedAt
			if ti == nil || tj == nil {
				return tj == nil && ti != nil
			}
			return ti.Before(*tj)
		})

		for _, l := range rows {
			workout := templateNames[s.TemplateID]
			if workout == "" {
				workout = "Workout"
			}
			exercise := exerciseNames[l.ExerciseID]
			if exercise == "" {
				exercise = "Exercise"
			}
			warmup := "0"
			if l.IsWarmup {
				warmup = "1"
			}
			record := []string{
				s.ID.String(),
				s.StartedAt.UTC().Format(time.RFC3339),
				workout,
				exercise,
				strconv.Itoa(l.SetNumber),
				strconv.Itoa(l.Reps),
				strconv.FormatFloat(l.Weight, 'f', -1, 64),
				models.FormatOptional(l.RPE),
				warmup,
				strconv.FormatFloat(models.Volume(l.Weight, l.Reps), 'f', -1, 64),
				strconv.FormatFloat(models.Est1RM(l.Weight, l.Reps), 'f', 2, 64),
			}
			if err := w.Write(record); err != nil {
				return "", err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return sb.String(), nil
}
