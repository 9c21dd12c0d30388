package storage

import (
	"fmt"
	"math"
	"strings"

	"github.com/claude/repregret/internal/models"
)

const weightStep = 2.5

func validateTemplate(t models.WorkoutTemplate) error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: template name must not be blank", ErrInvalid)
	}
	if t.DayOfWeek < 1 || t.DayOfWeek > 7 {
		return fmt.Errorf("%w: dayOfWeek %d outside 1..7", ErrInvalid, t.DayOfWeek)
	}
	return nil
}

func validateExercise(e models.Exercise) error {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: exercise name must not be blank", ErrInvalid)
	}
	if e.DefaultSets < 0 || e.DefaultReps < 0 {
		return fmt.Errorf("%w: default sets/reps must not be negative", ErrInvalid)
	}
	if e.DefaultWeight < 0 {
		return fmt.Errorf("%w: default weight must not be negative", ErrInvalid)
	}
	if !onWeightStep(e.DefaultWeight) {
		return fmt.Errorf("%w: weight %.2f not on a %.1f step", ErrInvalid, e.DefaultWeight, weightStep)
	}
	return nil
}

func validateSetLog(l models.SetLog) error {
	if l.Reps < 0 || l.Weight < 0 {
		return fmt.Errorf("%w: reps/weight must not be negative", ErrInvalid)
	}
	if l.RPE != nil && (*l.RPE < 5.0 || *l.RPE > 10.0) {
		return fmt.Errorf("%w: rpe %.1f outside 5.0..10.0", ErrInvalid, *l.RPE)
	}
	return nil
}

func onWeightStep(w float64) bool {
	return math.Abs(math.Remainder(w, weightStep)) < 1e-9
}
