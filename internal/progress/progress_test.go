package progress

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/claude/repregret/internal/models"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestParseMetric(t *testing.T) {
	for _, valid := range []string{"weight", "volume", "est1rm"} {
		if _, err := ParseMetric(valid); err != nil {
			t.Errorf("ParseMetric(%q) = %v", valid, err)
		}
	}
	if _, err := ParseMetric("tonnage"); err == nil {
		t.Error("ParseMetric accepted unknown metric")
	}
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in      string
		want    Range
		wantErr bool
	}{
		{"7", Range(7), false},
		{"30", Range(30), false},
		{"90", Range(90), false},
		{"all", RangeAll, false},
		{"", RangeAll, false},
		{"14", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseRange(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseRange(%q) error = %v", tt.in, err)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParseRange(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestBuildDailyReduction(t *testing.T) {
	sessA := uuid.New()
	sessB := uuid.New()
	ex := uuid.New()
	starts := map[uuid.UUID]time.Time{
		sessA: day("2026-08-01"),
		sessB: day("2026-08-03"),
	}
	sets := []models.SetLog{
		{SessionID: sessA, ExerciseID: ex, SetNumber: 1, Reps: 5, Weight: 100},
		{SessionID: sessA, ExerciseID: ex, SetNumber: 2, Reps: 5, Weight: 110},
		{SessionID: sessB, ExerciseID: ex, SetNumber: 1, Reps: 3, Weight: 120},
	}
	today := day("2026-08-10")

	// Weight reduces to the daily max.
	s := Build(sets, starts, Options{Metric: MetricWeight, Range: RangeAll}, today)
	if len(s.Points) != 2 {
		t.Fatalf("point count = %d, want 2", len(s.Points))
	}
	if s.Points[0].Date != "2026-08-01" || s.Points[0].Value != 110 {
		t.Errorf("weight day 1 = %+v, want max 110", s.Points[0])
	}
	if s.Points[1].Date != "2026-08-03" || s.Points[1].Value != 120 {
		t.Errorf("weight day 2 = %+v, want 120", s.Points[1])
	}

	// Volume reduces to the daily sum: 100*5 + 110*5 = 1050.
	s = Build(sets, starts, Options{Metric: MetricVolume, Range: RangeAll}, today)
	if s.Points[0].Value != 1050 {
		t.Errorf("volume day 1 = %v, want 1050", s.Points[0].Value)
	}

	// Est-1RM reduces to the daily max: 110*(1+5/30) = 128.33...
	s = Build(sets, starts, Options{Metric: MetricEst1RM, Range: RangeAll}, today)
	want := 110 * (1 + 5.0/30)
	if math.Abs(s.Points[0].Value-want) > 1e-9 {
		t.Errorf("est1rm day 1 = %v, want %v", s.Points[0].Value, want)
	}
}

func TestBuildExcludesWarmup(t *testing.T) {
	sess := uuid.New()
	starts := map[uuid.UUID]time.Time{sess: day("2026-08-01")}
	sets := []models.SetLog{
		{SessionID: sess, SetNumber: 1, Reps: 10, Weight: 60, IsWarmup: true},
		{SessionID: sess, SetNumber: 2, Reps: 5, Weight: 100},
	}

	s := Build(sets, starts, Options{Metric: MetricWeight, Range: RangeAll, ExcludeWarmup: true}, day("2026-08-02"))
	if len(s.Points) != 1 || s.Points[0].Value != 100 {
		t.Errorf("series with warmups excluded = %+v, want single 100 point", s.Points)
	}

	s = Build(sets, starts, Options{Metric: MetricWeight, Range: RangeAll}, day("2026-08-02"))
	if s.Points[0].Value != 100 {
		t.Errorf("warmups included changed daily max: %v", s.Points[0].Value)
	}
}

// TestBuildRangeBoundary pins the window edge: with a 7-day range and today
// fixed, a session 6 days ago is in and one 7 days ago is out.
func TestBuildRangeBoundary(t *testing.T) {
	today := day("2026-08-10")
	inside := uuid.New()
	outside := uuid.New()
	starts := map[uuid.UUID]time.Time{
		inside:  day("2026-08-04"),
		outside: day("2026-08-03"),
	}
	sets := []models.SetLog{
		{SessionID: inside, SetNumber: 1, Reps: 5, Weight: 100},
		{SessionID: outside, SetNumber: 1, Reps: 5, Weight: 90},
	}

	s := Build(sets, starts, Options{Metric: MetricWeight, Range: Range(7)}, today)
	if len(s.Points) != 1 {
		t.Fatalf("point count = %d, want 1", len(s.Points))
	}
	if s.Points[0].Date != "2026-08-04" {
		t.Errorf("kept %s, want the session 6 days back", s.Points[0].Date)
	}
}

func TestBuildSmoothing(t *testing.T) {
	starts := map[uuid.UUID]time.Time{}
	var sets []models.SetLog
	for i, w := range []float64{10, 20, 30} {
		id := uuid.New()
		starts[id] = day("2026-08-01").AddDate(0, 0, i)
		sets = append(sets, models.SetLog{SessionID: id, SetNumber: 1, Reps: 1, Weight: w})
	}

	s := Build(sets, starts, Options{Metric: MetricWeight, Range: RangeAll, Smooth: true}, day("2026-08-10"))
	if len(s.Smoothed) != 3 {
		t.Fatalf("smoothed count = %d, want 3", len(s.Smoothed))
	}
	// Trailing window grows from the start: avg(10), avg(10,20), avg(10,20,30).
	want := []float64{10, 15, 20}
	for i, w := range want {
		if s.Smoothed[i].Value != w {
			t.Errorf("smoothed[%d] = %v, want %v", i, s.Smoothed[i].Value, w)
		}
		if s.Smoothed[i].Date != s.Points[i].Date {
			t.Errorf("smoothed[%d] date %s != raw date %s", i, s.Smoothed[i].Date, s.Points[i].Date)
		}
	}
}

func TestBuildSmoothingRounds(t *testing.T) {
	starts := map[uuid.UUID]time.Time{}
	var sets []models.SetLog
	for i, w := range []float64{10, 11} {
		id := uuid.New()
		starts[id] = day("2026-08-01").AddDate(0, 0, i)
		sets = append(sets, models.SetLog{SessionID: id, SetNumber: 1, Reps: 1, Weight: w})
	}
	s := Build(sets, starts, Options{Metric: MetricWeight, Range: RangeAll, Smooth: true}, day("2026-08-10"))
	if s.Smoothed[1].Value != 10.5 {
		t.Errorf("smoothed[1] = %v, want 10.5 (two decimals)", s.Smoothed[1].Value)
	}
}

func TestBuildEmpty(t *testing.T) {
	s := Build(nil, nil, Options{Metric: MetricWeight, Range: RangeAll, Smooth: true}, time.Now())
	if len(s.Points) != 0 || len(s.Smoothed) != 0 {
		t.Errorf("empty input produced points: %+v", s)
	}
}
